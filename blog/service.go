package blog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"travelblog/models"
)

var ErrNotFound = errors.New("not found")

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// List returns every post with its category, newest first.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Category").
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Category").First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Published returns the visible comments of a post, newest first.
func (s *CommentService) Published(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND is_published = ?", postID, true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// Create stores an already validated comment on post as published.
func (s *CommentService) Create(ctx context.Context, post *models.Post, author, text string) (*models.Comment, error) {
	comment := models.Comment{
		PostID:      post.ID,
		Author:      author,
		Text:        text,
		IsPublished: true,
	}
	if err := s.db.WithContext(ctx).Omit("Post").Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment on post %d: %w", post.ID, err)
	}
	return &comment, nil
}
