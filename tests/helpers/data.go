package helpers

import (
	"testing"

	"github.com/lucverne/bistro-api/internal/models"
	"gorm.io/gorm"
)

// CreateTestUser creates a user with the given role and a known password
func CreateTestUser(t *testing.T, db *gorm.DB, username, city, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		City:     city,
		Role:     role,
	}
	if err := user.SetPassword("Test#1234"); err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateTestMenuItem creates a menu item
func CreateTestMenuItem(t *testing.T, db *gorm.DB, name string, price float64, category string, available bool) *models.MenuItem {
	t.Helper()

	item := &models.MenuItem{
		Name:      name,
		Price:     price,
		Category:  category,
		Available: available,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to create menu item %s: %v", name, err)
	}
	return item
}
