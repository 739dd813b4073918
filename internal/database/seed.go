package database

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/lucverne/bistro-api/data"
	"github.com/lucverne/bistro-api/internal/models"
	"gorm.io/gorm"
)

type seedMenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
}

// SeedMenu loads the embedded menu into an empty menu_items table. A
// populated table is left untouched, so operator edits survive restarts.
func SeedMenu(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count menu items: %w", err)
	}
	if count > 0 {
		return nil
	}

	var seed []seedMenuItem
	if err := json.Unmarshal(data.SeedMenuJSON, &seed); err != nil {
		return fmt.Errorf("failed to parse embedded menu seed: %w", err)
	}

	items := make([]models.MenuItem, 0, len(seed))
	for _, s := range seed {
		items = append(items, models.MenuItem{
			Name:        s.Name,
			Description: s.Description,
			Price:       s.Price,
			Category:    s.Category,
			ImageURL:    s.ImageURL,
			Available:   true,
		})
	}

	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to seed menu: %w", err)
	}

	log.Printf("Seeded menu with %d items", len(items))
	return nil
}
