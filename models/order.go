package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderDelivered OrderStatus = "delivered"
	OrderPaid      OrderStatus = "paid"
)

// OpenOrderStatuses are the statuses settlement turns into paid.
var OpenOrderStatuses = []string{string(OrderPending), string(OrderDelivered)}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderDelivered, OrderPaid:
		return true
	}
	return false
}

// CanTransition: pending -> delivered -> paid, plus pending -> paid.
// Nothing leaves paid and nothing moves back to pending.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderPending:
		return to == OrderDelivered || to == OrderPaid
	case OrderDelivered:
		return to == OrderPaid
	}
	return false
}

type OrderLine struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Note       string  `json:"note,omitempty"`
}

type Order struct {
	ID           string                        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID      string                        `gorm:"type:varchar(64);not null;index:idx_order_owner" json:"table_id"`
	CustomerName string                        `gorm:"type:varchar(100);not null;index:idx_order_owner" json:"customer_name"`
	SessionID    string                        `gorm:"type:varchar(36);not null;index:idx_order_owner" json:"session_id"`
	Items        datatypes.JSONSlice[OrderLine] `json:"items"`
	Total        float64                       `gorm:"type:decimal(10,2);not null" json:"total"`
	Status       OrderStatus                   `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt    time.Time                     `gorm:"not null" json:"created_at"`
}

func (Order) TableName() string { return CollectionOrders }

// LinesTotal is sum(unit price x quantity) rounded to 2 decimal places.
func LinesTotal(lines []OrderLine) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}
