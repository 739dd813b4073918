package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role values for User.Role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered customer or administrator
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	City         string `gorm:"size:100;not null" json:"city"`
	Role         string `gorm:"size:20;default:user" json:"role"`
	CreatedAt    time.Time `json:"created_at"`

	Orders    []Order        `gorm:"foreignKey:UserID" json:"-"`
	Locations []UserLocation `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// SetPassword hashes and stores the password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies the password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
