package services

import (
	"strings"

	"github.com/lucverne/bistro-api/internal/geoip"
	"github.com/lucverne/bistro-api/internal/models"
	"gorm.io/gorm"
)

// MatchFlag computes the tri-state city-match flag for a resolution: nil when
// the lookup was unavailable or the detected city is empty, else
// case-insensitive equality with the registered city. Computed once at write
// time; never recomputed.
func MatchFlag(res geoip.Resolution, registeredCity string) *bool {
	if !res.Resolved() || res.City == "" {
		return nil
	}
	matches := strings.EqualFold(res.City, registeredCity)
	return &matches
}

// RecordLocation appends one UserLocation row for a tracked action. The write
// happens on the caller's db handle, so inside a transaction it commits or
// rolls back together with the triggering action. Storage errors propagate.
func RecordLocation(tx *gorm.DB, user *models.User, res geoip.Resolution, ipAddress, action string) (*models.UserLocation, error) {
	loc := res.ForRecord()

	record := &models.UserLocation{
		UserID:          user.ID,
		IPAddress:       ipAddress,
		City:            loc.City,
		Region:          loc.Region,
		Country:         loc.Country,
		Latitude:        loc.Latitude,
		Longitude:       loc.Longitude,
		MatchesUserCity: MatchFlag(res, user.City),
		Action:          action,
	}
	if len(res.Raw) > 0 {
		record.RawPayload.JSON = res.Raw
	}

	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}

	return record, nil
}

// UserLocations returns a user's location history, newest first
func UserLocations(db *gorm.DB, userID uint) ([]models.UserLocation, error) {
	var locations []models.UserLocation
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&locations).Error
	return locations, err
}

// RecentLocations returns the most recent location records across all users,
// for the operator dashboard
func RecentLocations(db *gorm.DB, limit int) ([]models.UserLocation, error) {
	var locations []models.UserLocation
	err := db.Order("timestamp DESC").
		Limit(limit).
		Find(&locations).Error
	return locations, err
}

// SharedIPAlert reports an IP address seen on location records of more than
// one account, computed from the relational store
type SharedIPAlert struct {
	IPAddress string `json:"ip_address"`
	UserCount int64  `json:"user_count"`
}

// SharedIPAlerts scans user_locations for IPs shared across accounts. This is
// the relational counterpart of the graph scan; the dashboard shows it even
// when the graph store is down.
func SharedIPAlerts(db *gorm.DB) ([]SharedIPAlert, error) {
	var alerts []SharedIPAlert
	err := db.Model(&models.UserLocation{}).
		Select("ip_address, COUNT(DISTINCT user_id) AS user_count").
		Group("ip_address").
		Having("COUNT(DISTINCT user_id) > 1").
		Order("ip_address").
		Scan(&alerts).Error
	return alerts, err
}

// LatestOrderLocation returns the most recent 'order' record for a user, if any
func LatestOrderLocation(db *gorm.DB, userID uint) (*models.UserLocation, error) {
	var loc models.UserLocation
	err := db.Where("user_id = ? AND action = ?", userID, models.ActionOrder).
		Order("timestamp DESC").
		First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
