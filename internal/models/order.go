package models

import "time"

// Order status values. Transitions are operator-driven except the initial
// 'pending' and user-initiated cancellation of pending orders.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatuses lists the accepted order status values in display order
var ValidOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports whether s is an accepted order status
func IsValidOrderStatus(s string) bool {
	for _, v := range ValidOrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Order represents a placed order
type Order struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference  string    `gorm:"type:char(36);uniqueIndex;not null" json:"reference"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Status     string    `gorm:"size:20;default:pending" json:"status"`
	TotalPrice float64   `gorm:"not null" json:"total_price"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// TableName overrides the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line item on an order. PriceAtOrder captures the menu price
// at the time the order was placed so later menu edits do not rewrite history.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      uint    `gorm:"not null;index" json:"-"`
	MenuItemID   uint    `gorm:"not null" json:"menu_item_id"`
	Quantity     int     `gorm:"not null;default:1" json:"quantity"`
	PriceAtOrder float64 `gorm:"not null" json:"price_at_order"`

	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID" json:"menu_item,omitempty"`
}

// TableName overrides the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal calculates the line total for this order item
func (i *OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.PriceAtOrder
}
