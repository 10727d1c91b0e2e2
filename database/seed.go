package database

import (
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"travelblog/models"
)

var (
	seedStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	seedEnd   = time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
)

var seedCategories = []string{
	"Europe", "Asia", "Africa", "South America", "North America", "Oceania",
	"Road trips", "Hiking", "City breaks", "Food",
}

// Seed fills the database with demo categories, posts and comments. The same
// seed value always produces the same content.
func Seed(db *gorm.DB, categories, posts int, seed int64) error {
	if categories < 1 {
		return fmt.Errorf("need at least one category, got %d", categories)
	}
	faker := gofakeit.New(seed)

	return db.Transaction(func(tx *gorm.DB) error {
		created := make([]models.Category, 0, categories)
		for i := 0; i < categories; i++ {
			category := models.Category{
				Name:        seedCategories[i%len(seedCategories)],
				Description: faker.Sentence(12),
			}
			if i >= len(seedCategories) {
				category.Name = fmt.Sprintf("%s %d", category.Name, i/len(seedCategories)+1)
			}
			if err := tx.Create(&category).Error; err != nil {
				return fmt.Errorf("seed category: %w", err)
			}
			created = append(created, category)
		}

		for i := 0; i < posts; i++ {
			post := models.Post{
				Title:      fmt.Sprintf("%d days in %s", faker.Number(2, 14), faker.City()),
				Content:    faker.Paragraph(3, 4, 12, "\n\n"),
				CategoryID: created[faker.Number(0, len(created)-1)].ID,
				Author:     faker.Name(),
				Country:    faker.Country(),
				CreatedAt:  faker.DateRange(seedStart, seedEnd),
			}
			if err := tx.Create(&post).Error; err != nil {
				return fmt.Errorf("seed post: %w", err)
			}

			for j := faker.Number(0, 3); j > 0; j-- {
				comment := models.Comment{
					PostID:      post.ID,
					Author:      faker.FirstName(),
					Text:        faker.Sentence(faker.Number(4, 20)),
					IsPublished: true,
				}
				if err := tx.Create(&comment).Error; err != nil {
					return fmt.Errorf("seed comment: %w", err)
				}
			}
		}

		log.Printf("Seeded %d categories and %d posts", categories, posts)
		return nil
	})
}
