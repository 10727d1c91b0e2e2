package models

import "time"

const (
	CategoryNameMaxLength  = 100
	PostTitleMaxLength     = 200
	PostAuthorMaxLength    = 100
	PostCountryMaxLength   = 100
	CommentAuthorMaxLength = 100
	CommentTextMaxLength   = 500
	UsernameMaxLength      = 150
	EmailMaxLength         = 254
)

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"<-:create;index" json:"created_at"` // never rewritten after insert
	UpdatedAt  time.Time `json:"updated_at"`
	CategoryID uint      `gorm:"not null;index" json:"category_id"`
	Category   Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
	Author     string    `gorm:"size:100;not null" json:"author"`
	Country    string    `gorm:"size:100;not null" json:"country"`
	Image      string    `gorm:"size:255" json:"image,omitempty"` // path relative to MEDIA_DIR
}

type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	Post        Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Author      string    `gorm:"size:100;not null" json:"author"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CreatedAt   time.Time `gorm:"<-:create;index" json:"created_at"`
	IsPublished bool      `gorm:"not null;default:true" json:"is_published"`
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // json:"-" keeps the hash out of any API output
	CreatedAt    time.Time `gorm:"<-:create" json:"created_at"`
}
