package models

import "time"

// MenuItem represents a dish or drink on the menu
type MenuItem struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Category    string    `gorm:"size:50;index" json:"category"` // e.g. 'appetizer', 'main', 'dessert', 'drink'
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	Available   bool      `gorm:"default:true" json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the table name for MenuItem
func (MenuItem) TableName() string {
	return "menu_items"
}
