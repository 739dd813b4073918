package services

import (
	"errors"

	"github.com/lucverne/bistro-api/internal/models"
	"github.com/lucverne/bistro-api/internal/types"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced record does not exist
var ErrNotFound = errors.New("not found")

// MenuItemInput carries a create/update request for a menu item. Pointer
// fields distinguish "not provided" from zero values on update.
type MenuItemInput struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Price       *types.FlexFloat64 `json:"price"`
	Category    *string            `json:"category"`
	ImageURL    *string            `json:"image_url"`
	Available   *bool              `json:"available"`
}

// ListMenu returns menu items, optionally filtered by category and availability
func ListMenu(db *gorm.DB, category string, availableOnly bool) ([]models.MenuItem, error) {
	query := db.Model(&models.MenuItem{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if availableOnly {
		query = query.Where("available = ?", true)
	}

	var items []models.MenuItem
	err := query.Order("category, name").Find(&items).Error
	return items, err
}

// GetMenuItem loads one menu item by id
func GetMenuItem(db *gorm.DB, itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Categories returns the distinct non-empty menu categories
func Categories(db *gorm.DB) ([]string, error) {
	var categories []string
	err := db.Model(&models.MenuItem{}).
		Distinct("category").
		Where("category <> ''").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

// CreateMenuItem creates a menu item. Name and price are required.
func CreateMenuItem(db *gorm.DB, input MenuItemInput) (*models.MenuItem, error) {
	if input.Name == nil || *input.Name == "" || input.Price == nil {
		return nil, errors.New("missing required fields (name, price)")
	}

	item := &models.MenuItem{
		Name:      *input.Name,
		Price:     input.Price.Float64(),
		Category:  "general",
		Available: true,
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Category != nil && *input.Category != "" {
		item.Category = *input.Category
	}
	if input.ImageURL != nil {
		item.ImageURL = *input.ImageURL
	}
	if input.Available != nil {
		item.Available = *input.Available
	}

	if err := db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateMenuItem applies the provided fields to an existing menu item
func UpdateMenuItem(db *gorm.DB, itemID uint, input MenuItemInput) (*models.MenuItem, error) {
	item, err := GetMenuItem(db, itemID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		updates["price"] = input.Price.Float64()
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.Available != nil {
		updates["available"] = *input.Available
	}

	if len(updates) > 0 {
		if err := db.Model(item).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return item, nil
}

// DeleteMenuItem removes a menu item
func DeleteMenuItem(db *gorm.DB, itemID uint) error {
	result := db.Delete(&models.MenuItem{}, itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
