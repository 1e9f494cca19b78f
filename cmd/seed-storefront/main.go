// seed-storefront loads a small demo catalog and a week of orders so the insights endpoint
// has something to say: out-of-stock, low-stock and slow-moving products, old unfulfilled orders,
// and revenue in both the current and the previous week.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-storefront -reset
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/mmdatafocus/storefront_insights/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	Name     string
	Category string
	Price    string
	Stock    int
}

type seedOrder struct {
	Status  models.OrderStatus
	AgeDays float64
	Lines   map[string]int
}

var products = []seedProduct{
	{"Velvet Sofa", "Sofas", "899.00", 2},
	{"Modern Coffee Table", "Tables", "249.00", 0},
	{"Oak Dining Chair", "Chairs", "129.00", 4},
	{"Linen Armchair", "Chairs", "459.00", 8},
	{"Brass Floor Lamp", "Lighting", "189.00", 25},
	{"Wool Rug", "Rugs", "320.00", 14},
	{"Walnut Bookshelf", "Storage", "540.00", 12},
}

var orders = []seedOrder{
	{models.OrderStatusPaid, 4.5, map[string]int{"Velvet Sofa": 1}},
	{models.OrderStatusPaid, 3.2, map[string]int{"Oak Dining Chair": 4}},
	{models.OrderStatusPaid, 0.5, map[string]int{"Linen Armchair": 1, "Oak Dining Chair": 2}},
	{models.OrderStatusShipped, 2, map[string]int{"Modern Coffee Table": 2}},
	{models.OrderStatusDelivered, 5, map[string]int{"Velvet Sofa": 1, "Linen Armchair": 1}},
	{models.OrderStatusCancelled, 1, map[string]int{"Brass Floor Lamp": 1}},
	{models.OrderStatusDelivered, 9, map[string]int{"Modern Coffee Table": 1}},
	{models.OrderStatusDelivered, 11, map[string]int{"Velvet Sofa": 1}},
	{models.OrderStatusShipped, 13, map[string]int{"Oak Dining Chair": 2}},
}

func main() {
	reset := flag.Bool("reset", false, "Delete existing orders and products before seeding")
	migrate := flag.Bool("migrate", true, "Run AutoMigrate before seeding")
	flag.Parse()

	ctx := context.Background()
	if err := config.ConnectDatabaseWithRetry(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "database not initialized: %v\n", err)
		os.Exit(1)
	}
	db := config.GetDB()

	if *migrate {
		if err := models.MigrateTable(db); err != nil {
			fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
			os.Exit(1)
		}
	}

	now := time.Now().UTC()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if *reset {
			for _, table := range []string{"order_items", "orders", "products"} {
				if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
					return err
				}
			}
		}

		byName := make(map[string]models.Product, len(products))
		for _, p := range products {
			row := models.Product{
				Name:     p.Name,
				Slug:     strings.ReplaceAll(strings.ToLower(p.Name), " ", "-"),
				Category: p.Category,
				Price:    decimal.RequireFromString(p.Price),
				Stock:    p.Stock,
			}
			if err := tx.Where("slug = ?", row.Slug).Assign(row).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("product %s: %w", p.Name, err)
			}
			byName[p.Name] = row
		}

		for i, o := range orders {
			createdAt := now.Add(-time.Duration(o.AgeDays * float64(24*time.Hour)))
			order := models.Order{
				OrderNumber: fmt.Sprintf("ORD-%s-%03d", now.Format("0102"), i+1),
				Email:       fmt.Sprintf("customer%d@example.com", i+1),
				Status:      o.Status,
				CreatedAt:   createdAt,
			}
			total := decimal.Zero
			for name, qty := range o.Lines {
				p := byName[name]
				order.Items = append(order.Items, models.OrderItem{
					ProductId:       p.ID,
					ProductName:     p.Name,
					Quantity:        qty,
					PriceAtPurchase: p.Price,
				})
				total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
			}
			order.Total = total
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("order %s: %w", order.OrderNumber, err)
			}
		}
		return nil
	})
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		fmt.Fprintf(os.Stderr, "seed failed: today's orders already exist, rerun with -reset: %v\n", err)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d products and %d orders\n", len(products), len(orders))
}
