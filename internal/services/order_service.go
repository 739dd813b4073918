package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lucverne/bistro-api/internal/geoip"
	"github.com/lucverne/bistro-api/internal/models"
	"github.com/lucverne/bistro-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

var (
	// ErrForbidden is returned when a user touches an order they do not own
	ErrForbidden = errors.New("access denied")
	// ErrEmptyOrder is returned when an order request carries no items
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrInvalidStatus is returned for an unrecognized order status
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrNotCancellable is returned when a non-admin cancels a non-pending order
	ErrNotCancellable = errors.New("only pending orders can be cancelled")
	// ErrItemUnavailable is returned when a requested item exists but is off the menu
	ErrItemUnavailable = errors.New("not currently available")
	// ErrInvalidQuantity is returned for a zero-or-negative explicit quantity
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// OrderItemInput is one requested line item
type OrderItemInput struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

// CreateOrderInput carries an order request
type CreateOrderInput struct {
	Items types.FlexList[OrderItemInput] `json:"items"`
	Notes string                         `json:"notes"`
}

// CreateOrder validates the requested items and writes the location record
// and the order in one transaction, so a failure downstream rolls back both.
// Graph recording is the caller's concern, strictly after this commit.
func CreateOrder(db *gorm.DB, user *models.User, input CreateOrderInput, res geoip.Resolution, ipAddress string) (*models.Order, *models.UserLocation, error) {
	items := input.Items.Slice()
	if len(items) == 0 {
		return nil, nil, ErrEmptyOrder
	}

	var order *models.Order
	var location *models.UserLocation

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		location, err = RecordLocation(tx, user, res, ipAddress, models.ActionOrder)
		if err != nil {
			return err
		}

		var totalPrice float64
		orderItems := make([]models.OrderItem, 0, len(items))

		for _, it := range items {
			var menuItem models.MenuItem
			if err := tx.First(&menuItem, it.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("menu item %d: %w", it.MenuItemID, ErrNotFound)
				}
				return err
			}
			if !menuItem.Available {
				return fmt.Errorf("%s is %w", menuItem.Name, ErrItemUnavailable)
			}

			quantity := it.Quantity
			if quantity == 0 {
				quantity = 1
			}
			if quantity < 1 {
				return ErrInvalidQuantity
			}

			totalPrice += menuItem.Price * float64(quantity)
			orderItems = append(orderItems, models.OrderItem{
				MenuItemID:   menuItem.ID,
				Quantity:     quantity,
				PriceAtOrder: menuItem.Price,
			})
		}

		order = &models.Order{
			Reference:  uuid.NewString(),
			UserID:     user.ID,
			Status:     models.OrderStatusPending,
			TotalPrice: totalPrice,
			Notes:      input.Notes,
			Items:      orderItems,
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, nil, err
	}

	// Reload with menu items for the response
	if err := db.Preload("Items.MenuItem").First(order, order.ID).Error; err != nil {
		return nil, nil, err
	}

	return order, location, nil
}

// LocationTracking is the per-order location block surfaced to the client.
// A mismatch is a warning alongside a successful order, never a rejection.
type LocationTracking struct {
	IPAddress      string `json:"ip_address"`
	DetectedCity   string `json:"detected_city"`
	RegisteredCity string `json:"registered_city"`
	Matches        *bool  `json:"matches"`
	Warning        string `json:"warning,omitempty"`
}

// TrackingFor builds the location block for a recorded action
func TrackingFor(record *models.UserLocation, registeredCity string) LocationTracking {
	t := LocationTracking{
		IPAddress:      record.IPAddress,
		DetectedCity:   record.City,
		RegisteredCity: registeredCity,
		Matches:        record.MatchesUserCity,
	}
	if t.Matches != nil && !*t.Matches {
		t.Warning = "Location mismatch detected"
	}
	return t
}

// ListOrders returns all orders for admins, else the user's own, newest first
func ListOrders(db *gorm.DB, user *models.User) ([]models.Order, error) {
	query := db.Preload("Items.MenuItem").Preload("User").Order("created_at DESC")
	if !user.IsAdmin() {
		query = query.Where("user_id = ?", user.ID)
	}

	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

// GetOrder loads one order, enforcing owner-or-admin access
func GetOrder(db *gorm.DB, user *models.User, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items.MenuItem").Preload("User").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !user.IsAdmin() && order.UserID != user.ID {
		return nil, ErrForbidden
	}

	return &order, nil
}

// UpdateOrderStatus sets the status of an order (operator action)
func UpdateOrderStatus(db *gorm.DB, orderID uint, status string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	var order models.Order
	if err := db.Preload("Items.MenuItem").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := db.Model(&order).Update("status", status).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// CancelOrder cancels an order. Non-admins may only cancel their own pending
// orders; admins may cancel any order.
func CancelOrder(db *gorm.DB, user *models.User, orderID uint) (*models.Order, error) {
	order, err := GetOrder(db, user, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPending && !user.IsAdmin() {
		return nil, ErrNotCancellable
	}

	if err := db.Model(order).Update("status", models.OrderStatusCancelled).Error; err != nil {
		return nil, err
	}

	return order, nil
}

// UserOrderStats aggregates one user's order activity
type UserOrderStats struct {
	UserID         uint       `json:"user_id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	City           string     `json:"city"`
	TotalOrders    int64      `json:"total_orders"`
	TotalAmount    float64    `json:"total_amount"`
	AvgOrderAmount float64    `json:"avg_order_amount"`
	LastOrderDate  *time.Time `json:"last_order_date"`
}

// OverallStats aggregates activity across all users
type OverallStats struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalOrders   int64   `json:"total_orders"`
	TotalUsers    int64   `json:"total_users"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// Statistics computes the operator statistics view: per-user aggregates plus
// overall totals. Full scan, recomputed per call.
func Statistics(db *gorm.DB) (OverallStats, []UserOrderStats, error) {
	var userStats []UserOrderStats
	err := db.Model(&models.User{}).
		Clauses(hints.Comment("select", "admin-statistics")).
		Select("users.id AS user_id, users.username, users.email, users.city, " +
			"COUNT(orders.id) AS total_orders, " +
			"COALESCE(SUM(orders.total_price), 0) AS total_amount, " +
			"COALESCE(AVG(orders.total_price), 0) AS avg_order_amount, " +
			"MAX(orders.created_at) AS last_order_date").
		Joins("LEFT JOIN orders ON orders.user_id = users.id").
		Group("users.id, users.username, users.email, users.city").
		Order("total_amount DESC").
		Scan(&userStats).Error
	if err != nil {
		return OverallStats{}, nil, err
	}

	var overall OverallStats
	if err := db.Model(&models.Order{}).Count(&overall.TotalOrders).Error; err != nil {
		return OverallStats{}, nil, err
	}
	if err := db.Model(&models.User{}).Count(&overall.TotalUsers).Error; err != nil {
		return OverallStats{}, nil, err
	}
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&overall.TotalRevenue).Error; err != nil {
		return OverallStats{}, nil, err
	}
	if overall.TotalOrders > 0 {
		overall.AvgOrderValue = overall.TotalRevenue / float64(overall.TotalOrders)
	}

	return overall, userStats, nil
}
