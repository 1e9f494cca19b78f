package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StoreGateway runs the read queries the insights pipeline needs against the storefront database.
// Every method is safe for concurrent use.
type StoreGateway struct {
	db *gorm.DB
}

func NewStoreGateway(db *gorm.DB) *StoreGateway {
	return &StoreGateway{db: db}
}

func (g *StoreGateway) conn(ctx context.Context) (*gorm.DB, error) {
	if g == nil || g.db == nil {
		return nil, errors.New("db is nil")
	}
	return g.db.WithContext(ctx), nil
}

func revenueStatusValues() []string {
	out := make([]string, 0, len(RevenueStatuses))
	for _, s := range RevenueStatuses {
		out = append(out, string(s))
	}
	return out
}

// RecentOrders returns non-cancelled orders created at or after since, newest first, with their lines.
func (g *StoreGateway) RecentOrders(ctx context.Context, since time.Time) ([]OrderRecord, error) {
	db, err := g.conn(ctx)
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := db.Preload("Items").
		Where("created_at >= ? AND status IN ?", since.UTC(), revenueStatusValues()).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	records := make([]OrderRecord, 0, len(orders))
	for _, o := range orders {
		items := make([]OrderItemRecord, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, OrderItemRecord{
				ProductId:       item.ProductId,
				ProductName:     item.ProductName,
				Quantity:        item.Quantity,
				PriceAtPurchase: item.PriceAtPurchase,
			})
		}
		records = append(records, OrderRecord{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Total:       o.Total,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			ItemCount:   o.ItemCount(),
			Items:       items,
		})
	}
	return records, nil
}

func (g *StoreGateway) StatusDistribution(ctx context.Context) (StatusDistribution, error) {
	var dist StatusDistribution
	db, err := g.conn(ctx)
	if err != nil {
		return dist, err
	}

	query := `
    SELECT
        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS paid,
        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS shipped,
        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS delivered,
        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS cancelled
    FROM
        orders;`

	if err := db.Raw(query,
		OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled).
		Scan(&dist).Error; err != nil {
		return dist, err
	}
	return dist, nil
}

// ProductSales returns one row per sold order line. The price is the current catalog price.
func (g *StoreGateway) ProductSales(ctx context.Context) ([]ProductSale, error) {
	db, err := g.conn(ctx)
	if err != nil {
		return nil, err
	}

	query := `
    SELECT
        oi.product_id,
        COALESCE(p.name, oi.product_name) AS product_name,
        p.price AS product_price,
        oi.quantity
    FROM
        order_items oi
        JOIN orders o ON o.id = oi.order_id
        LEFT JOIN products p ON p.id = oi.product_id
    WHERE
        o.status IN ?
    ORDER BY
        oi.id;`

	var sales []ProductSale
	if err := db.Raw(query, revenueStatusValues()).Scan(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (g *StoreGateway) ProductInventory(ctx context.Context) ([]ProductRecord, error) {
	db, err := g.conn(ctx)
	if err != nil {
		return nil, err
	}

	var products []ProductRecord
	if err := db.Model(&Product{}).
		Select("id, name, price, stock, category").
		Order("id ASC").
		Scan(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UnfulfilledOrders returns paid orders that have not shipped yet, oldest first.
func (g *StoreGateway) UnfulfilledOrders(ctx context.Context) ([]UnfulfilledOrder, error) {
	db, err := g.conn(ctx)
	if err != nil {
		return nil, err
	}

	query := `
    SELECT
        o.id,
        o.order_number,
        o.total,
        o.created_at,
        o.email,
        COUNT(oi.id) AS item_count
    FROM
        orders o
        LEFT JOIN order_items oi ON oi.order_id = o.id
    WHERE
        o.status = ?
    GROUP BY
        o.id
    ORDER BY
        o.created_at ASC;`

	var orders []UnfulfilledOrder
	if err := db.Raw(query, OrderStatusPaid).Scan(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// RevenueByPeriod sums revenue for [currentStart, now) and [previousStart, currentStart).
func (g *StoreGateway) RevenueByPeriod(ctx context.Context, currentStart, previousStart time.Time) (RevenuePeriod, error) {
	var period RevenuePeriod
	db, err := g.conn(ctx)
	if err != nil {
		return period, err
	}

	currentStart = currentStart.UTC()
	previousStart = previousStart.UTC()

	query := `
    SELECT
        COALESCE(SUM(CASE WHEN created_at >= ? THEN total ELSE 0 END), 0) AS current_period,
        COALESCE(SUM(CASE WHEN created_at < ? THEN total ELSE 0 END), 0) AS previous_period,
        COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS current_order_count,
        COALESCE(SUM(CASE WHEN created_at < ? THEN 1 ELSE 0 END), 0) AS previous_order_count
    FROM
        orders
    WHERE
        status IN ?
        AND created_at >= ?;`

	if err := db.Raw(query,
		currentStart, currentStart, currentStart, currentStart,
		revenueStatusValues(), previousStart).
		Scan(&period).Error; err != nil {
		return period, err
	}
	return period, nil
}
