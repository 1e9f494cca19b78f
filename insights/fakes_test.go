package insights

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmdatafocus/storefront_insights/models"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu   sync.Mutex
	snap Snapshot
	fail string
}

func (f *fakeSource) set(snap Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

func (f *fakeSource) get() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) err(query string) error {
	if f.fail == query {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeSource) RecentOrders(ctx context.Context, since time.Time) ([]models.OrderRecord, error) {
	return f.get().RecentOrders, f.err("recent")
}

func (f *fakeSource) StatusDistribution(ctx context.Context) (models.StatusDistribution, error) {
	return f.get().StatusDistribution, f.err("status")
}

func (f *fakeSource) ProductSales(ctx context.Context) ([]models.ProductSale, error) {
	return f.get().ProductSales, f.err("sales")
}

func (f *fakeSource) ProductInventory(ctx context.Context) ([]models.ProductRecord, error) {
	return f.get().Inventory, f.err("inventory")
}

func (f *fakeSource) UnfulfilledOrders(ctx context.Context) ([]models.UnfulfilledOrder, error) {
	return f.get().Unfulfilled, f.err("unfulfilled")
}

func (f *fakeSource) RevenueByPeriod(ctx context.Context, currentStart, previousStart time.Time) (models.RevenuePeriod, error) {
	return f.get().Revenue, f.err("revenue")
}

type fakeGenerator struct {
	calls   atomic.Int32
	text    string
	err     error
	release chan struct{}
}

func (g *fakeGenerator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	g.calls.Add(1)
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func price(v string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(v), Valid: true}
}

const validInsightsJSON = `{
  "salesTrends": {"summary": "Sales grew.", "highlights": ["12 orders"], "trend": "up"},
  "inventory": {"summary": "Stock is fine.", "alerts": [], "recommendations": ["Reorder sofas"]},
  "actionItems": {"urgent": ["Ship ORD-1"], "recommended": [], "opportunities": []}
}`

// sampleSnapshot is a small store: one paid order pending for four days, one low-stock best seller
// and one slow mover.
func sampleSnapshot(now time.Time) Snapshot {
	return Snapshot{
		RecentOrders: []models.OrderRecord{
			{ID: 1, OrderNumber: "ORD-1", Total: dec("120.00"), Status: models.OrderStatusPaid, CreatedAt: now.Add(-4 * 24 * time.Hour), ItemCount: 1},
			{ID: 2, OrderNumber: "ORD-2", Total: dec("80.00"), Status: models.OrderStatusShipped, CreatedAt: now.Add(-24 * time.Hour), ItemCount: 2},
		},
		StatusDistribution: models.StatusDistribution{Paid: 1, Shipped: 1, Delivered: 3, Cancelled: 1},
		ProductSales: []models.ProductSale{
			{ProductId: 10, ProductName: "Velvet Sofa", ProductPrice: price("40"), Quantity: 3},
			{ProductId: 11, ProductName: "Oak Chair", ProductPrice: price("20"), Quantity: 1},
		},
		Inventory: []models.ProductRecord{
			{ID: 10, Name: "Velvet Sofa", Price: dec("40"), Stock: 2, Category: "Sofas"},
			{ID: 11, Name: "Oak Chair", Price: dec("20"), Stock: 8, Category: "Chairs"},
			{ID: 12, Name: "Floor Lamp", Price: dec("15"), Stock: 30, Category: "Lighting"},
			{ID: 13, Name: "Coffee Table", Price: dec("90"), Stock: 0, Category: "Tables"},
		},
		Unfulfilled: []models.UnfulfilledOrder{
			{ID: 1, OrderNumber: "ORD-1", Total: dec("120.00"), CreatedAt: now.Add(-4 * 24 * time.Hour), Email: "a@example.com", ItemCount: 1},
		},
		Revenue: models.RevenuePeriod{
			CurrentPeriod:      dec("1200"),
			PreviousPeriod:     dec("1000"),
			CurrentOrderCount:  2,
			PreviousOrderCount: 2,
		},
	}
}
