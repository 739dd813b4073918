package models

import "time"

// Tracked action kinds for UserLocation.Action
const (
	ActionLogin = "login"
	ActionOrder = "order"
)

// UserLocation is one append-only record of where a tracked user action came
// from. MatchesUserCity is tri-state: nil means the detected city was empty or
// the lookup was unavailable, so no comparison was possible. The flag is
// computed once at write time and never recomputed if the user later changes
// their registered city.
type UserLocation struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	IPAddress       string    `gorm:"size:45;not null;index" json:"ip_address"` // IPv6 support
	City            string    `gorm:"size:100" json:"city"`
	Region          string    `gorm:"size:100" json:"region"`
	Country         string    `gorm:"size:100" json:"country"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	MatchesUserCity *bool     `json:"matches_user_city"`
	Action          string    `gorm:"size:50" json:"action"`
	RawPayload      JSON      `json:"-"` // provider response as received, for audit
	Timestamp       time.Time `gorm:"autoCreateTime;index" json:"timestamp"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name for UserLocation
func (UserLocation) TableName() string {
	return "user_locations"
}
