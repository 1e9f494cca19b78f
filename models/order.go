package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// RevenueStatuses are the order states that count towards revenue and sales.
var RevenueStatuses = []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered}

type Order struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderNumber string          `gorm:"size:50;uniqueIndex;not null" json:"order_number"`
	Email       string          `gorm:"size:255;index" json:"email"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Status      OrderStatus     `gorm:"type:enum('paid','shipped','delivered','cancelled');default:paid;index" json:"status"`
	Items       []OrderItem     `gorm:"foreignKey:OrderId" json:"items"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	OrderId         int             `gorm:"index;not null" json:"order_id"`
	ProductId       int             `gorm:"index" json:"product_id"`
	ProductName     string          `gorm:"size:255" json:"product_name"`
	Quantity        int             `gorm:"not null;default:1" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_at_purchase"`
}

// ItemCount is the number of order lines, not units.
func (o Order) ItemCount() int {
	return len(o.Items)
}
