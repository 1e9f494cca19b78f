package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Read-only snapshots returned by StoreGateway. One set is fetched per insights request.

type OrderRecord struct {
	ID          int
	OrderNumber string
	Total       decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
	ItemCount   int
	Items       []OrderItemRecord
}

type OrderItemRecord struct {
	ProductId       int
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// StatusDistribution field order is part of the insights fingerprint.
type StatusDistribution struct {
	Paid      int64 `json:"paid"`
	Shipped   int64 `json:"shipped"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
}

// ProductSale is one sold order line joined with the catalog price.
// ProductPrice is invalid when the product no longer exists.
type ProductSale struct {
	ProductId    int
	ProductName  string
	ProductPrice decimal.NullDecimal
	Quantity     int
}

type ProductRecord struct {
	ID       int
	Name     string
	Price    decimal.Decimal
	Stock    int
	Category string
}

type UnfulfilledOrder struct {
	ID          int
	OrderNumber string
	Total       decimal.Decimal
	CreatedAt   time.Time
	Email       string
	ItemCount   int
}

type RevenuePeriod struct {
	CurrentPeriod      decimal.Decimal
	PreviousPeriod     decimal.Decimal
	CurrentOrderCount  int64
	PreviousOrderCount int64
}
