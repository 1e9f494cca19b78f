package insights

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mmdatafocus/storefront_insights/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	topProductLimit   = 5
	restockLimit      = 5
	slowMovingLimit   = 5
	lowStockThreshold = 5
	slowMovingStock   = 10
	urgentAfterDays   = 2

	window = 7 * 24 * time.Hour
)

var ErrSourceFetch = errors.New("insights: source fetch failed")

// DataSource is the read side of the storefront store. models.StoreGateway implements it.
type DataSource interface {
	RecentOrders(ctx context.Context, since time.Time) ([]models.OrderRecord, error)
	StatusDistribution(ctx context.Context) (models.StatusDistribution, error)
	ProductSales(ctx context.Context) ([]models.ProductSale, error)
	ProductInventory(ctx context.Context) ([]models.ProductRecord, error)
	UnfulfilledOrders(ctx context.Context) ([]models.UnfulfilledOrder, error)
	RevenueByPeriod(ctx context.Context, currentStart, previousStart time.Time) (models.RevenuePeriod, error)
}

// Snapshot is the raw result of the six source queries for one request.
type Snapshot struct {
	RecentOrders       []models.OrderRecord
	StatusDistribution models.StatusDistribution
	ProductSales       []models.ProductSale
	Inventory          []models.ProductRecord
	Unfulfilled        []models.UnfulfilledOrder
	Revenue            models.RevenuePeriod
}

type TopProduct struct {
	ProductId     int
	Name          string
	TotalQuantity int
	Revenue       decimal.Decimal
}

// Aggregate carries the derived values the synthesizer needs besides the summary itself.
type Aggregate struct {
	Summary DataSummary
	Metrics RawMetrics

	CurrentRevenue    decimal.Decimal
	RevenueChange     decimal.Decimal
	AvgOrderValue     decimal.Decimal
	CurrentOrderCount int64
	TopProducts       []TopProduct
	NeedsRestock      []models.ProductRecord
	SlowMoving        []models.ProductRecord
	UnfulfilledCount  int
}

type Aggregator struct {
	source DataSource
	now    func() time.Time
}

func NewAggregator(source DataSource) *Aggregator {
	return &Aggregator{source: source, now: time.Now}
}

// Fetch runs the six source queries concurrently. The first failure cancels the rest.
func (a *Aggregator) Fetch(ctx context.Context, now time.Time) (Snapshot, error) {
	var snap Snapshot
	currentStart := now.Add(-window)
	previousStart := now.Add(-2 * window)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.RecentOrders, err = a.source.RecentOrders(gctx, currentStart)
		return wrapFetch("recent orders", err)
	})
	g.Go(func() (err error) {
		snap.StatusDistribution, err = a.source.StatusDistribution(gctx)
		return wrapFetch("status distribution", err)
	})
	g.Go(func() (err error) {
		snap.ProductSales, err = a.source.ProductSales(gctx)
		return wrapFetch("product sales", err)
	})
	g.Go(func() (err error) {
		snap.Inventory, err = a.source.ProductInventory(gctx)
		return wrapFetch("product inventory", err)
	})
	g.Go(func() (err error) {
		snap.Unfulfilled, err = a.source.UnfulfilledOrders(gctx)
		return wrapFetch("unfulfilled orders", err)
	})
	g.Go(func() (err error) {
		snap.Revenue, err = a.source.RevenueByPeriod(gctx, currentStart, previousStart)
		return wrapFetch("revenue by period", err)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func wrapFetch(query string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrSourceFetch, query, err)
}

// Aggregate fetches a snapshot and derives the summary and the raw metrics from it.
func (a *Aggregator) Aggregate(ctx context.Context) (*Aggregate, error) {
	ctx, span := tracer.Start(ctx, "insights.aggregate")
	defer span.End()

	now := a.now()
	snap, err := a.Fetch(ctx, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return Summarize(now, snap), nil
}

// Summarize is the pure derivation step of Aggregate.
func Summarize(now time.Time, snap Snapshot) *Aggregate {
	topProducts, soldById := rankProducts(snap.ProductSales)

	needsRestock := make([]models.ProductRecord, 0)
	for _, p := range snap.Inventory {
		if p.Stock <= lowStockThreshold && soldById[p.ID] > 0 {
			needsRestock = append(needsRestock, p)
		}
	}
	sort.SliceStable(needsRestock, func(i, j int) bool {
		return needsRestock[i].Stock < needsRestock[j].Stock
	})
	if len(needsRestock) > restockLimit {
		needsRestock = needsRestock[:restockLimit]
	}

	slowMoving := make([]models.ProductRecord, 0)
	for _, p := range snap.Inventory {
		if len(slowMoving) == slowMovingLimit {
			break
		}
		if p.Stock > slowMovingStock && soldById[p.ID] == 0 {
			slowMoving = append(slowMoving, p)
		}
	}

	currentRevenue := snap.Revenue.CurrentPeriod
	previousRevenue := snap.Revenue.PreviousPeriod
	change := RevenueChange(currentRevenue, previousRevenue)

	avgOrderValue := decimal.Zero
	if n := len(snap.RecentOrders); n > 0 {
		sum := decimal.Zero
		for _, o := range snap.RecentOrders {
			sum = sum.Add(o.Total)
		}
		avgOrderValue = sum.Div(decimal.NewFromInt(int64(n)))
	}

	outOfStock := make([]OutOfStockLine, 0)
	lowStock := make([]StockLine, 0)
	atOrBelowThreshold := 0
	for _, p := range snap.Inventory {
		if p.Stock == 0 {
			outOfStock = append(outOfStock, OutOfStockLine{Name: p.Name, Category: p.Category})
		}
		if p.Stock > 0 && p.Stock <= lowStockThreshold {
			lowStock = append(lowStock, stockLine(p))
		}
		if p.Stock <= lowStockThreshold {
			atOrBelowThreshold++
		}
	}

	unfulfilled := make([]UnfulfilledLine, 0, len(snap.Unfulfilled))
	urgent := 0
	for _, o := range snap.Unfulfilled {
		days := DaysSince(now, o.CreatedAt)
		if days > urgentAfterDays {
			urgent++
		}
		unfulfilled = append(unfulfilled, UnfulfilledLine{
			OrderNumber:    o.OrderNumber,
			Total:          o.Total.InexactFloat64(),
			DaysSinceOrder: days,
			ItemCount:      o.ItemCount,
		})
	}

	topLines := make([]TopProductLine, 0, len(topProducts))
	for _, p := range topProducts {
		topLines = append(topLines, TopProductLine{
			Name:      p.Name,
			UnitsSold: p.TotalQuantity,
			Revenue:   p.Revenue.StringFixed(2),
		})
	}

	summary := DataSummary{
		SalesTrends: SalesTrendsSummary{
			CurrentWeekRevenue:   currentRevenue.InexactFloat64(),
			PreviousWeekRevenue:  previousRevenue.InexactFloat64(),
			RevenueChangePercent: change.StringFixed(1),
			CurrentWeekOrders:    snap.Revenue.CurrentOrderCount,
			PreviousWeekOrders:   snap.Revenue.PreviousOrderCount,
			AvgOrderValue:        avgOrderValue.StringFixed(2),
			TopProducts:          topLines,
		},
		Inventory: InventorySummary{
			OutOfStock:      outOfStock,
			LowStock:        lowStock,
			NeedsRestock:    stockLines(needsRestock),
			SlowMoving:      stockLines(slowMoving),
			TotalProducts:   len(snap.Inventory),
			OutOfStockCount: len(outOfStock),
			LowStockCount:   len(lowStock),
		},
		Operations: OperationsSummary{
			StatusDistribution: snap.StatusDistribution,
			UnfulfilledOrders:  unfulfilled,
			UrgentOrders:       urgent,
		},
	}

	return &Aggregate{
		Summary: summary,
		Metrics: RawMetrics{
			CurrentRevenue:   currentRevenue.InexactFloat64(),
			PreviousRevenue:  previousRevenue.InexactFloat64(),
			RevenueChange:    change.StringFixed(1),
			OrderCount:       snap.Revenue.CurrentOrderCount,
			AvgOrderValue:    avgOrderValue.StringFixed(2),
			UnfulfilledCount: len(snap.Unfulfilled),
			LowStockCount:    atOrBelowThreshold,
		},
		CurrentRevenue:    currentRevenue,
		RevenueChange:     change,
		AvgOrderValue:     avgOrderValue,
		CurrentOrderCount: snap.Revenue.CurrentOrderCount,
		TopProducts:       topProducts,
		NeedsRestock:      needsRestock,
		SlowMoving:        slowMoving,
		UnfulfilledCount:  len(snap.Unfulfilled),
	}
}

// rankProducts groups sale lines by product, in first-seen order, and returns the best sellers
// plus total units sold per product id.
func rankProducts(sales []models.ProductSale) ([]TopProduct, map[int]int) {
	byId := make(map[int]*TopProduct)
	order := make([]int, 0)
	for _, sale := range sales {
		if sale.ProductId == 0 {
			continue
		}
		price := decimal.Zero
		if sale.ProductPrice.Valid {
			price = sale.ProductPrice.Decimal
		}
		revenue := price.Mul(decimal.NewFromInt(int64(sale.Quantity)))

		existing, ok := byId[sale.ProductId]
		if !ok {
			name := sale.ProductName
			if name == "" {
				name = "Unknown"
			}
			byId[sale.ProductId] = &TopProduct{
				ProductId:     sale.ProductId,
				Name:          name,
				TotalQuantity: sale.Quantity,
				Revenue:       revenue,
			}
			order = append(order, sale.ProductId)
			continue
		}
		existing.TotalQuantity += sale.Quantity
		existing.Revenue = existing.Revenue.Add(revenue)
	}

	ranked := make([]TopProduct, 0, len(order))
	sold := make(map[int]int, len(order))
	for _, id := range order {
		ranked = append(ranked, *byId[id])
		sold[id] = byId[id].TotalQuantity
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalQuantity > ranked[j].TotalQuantity
	})
	if len(ranked) > topProductLimit {
		ranked = ranked[:topProductLimit]
	}
	return ranked, sold
}

// RevenueChange is the percentage change from previous to current.
// With no previous revenue it is 100 when there is current revenue and 0 otherwise.
func RevenueChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsPositive() {
		return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	}
	if current.IsPositive() {
		return decimal.NewFromInt(100)
	}
	return decimal.Zero
}

// DaysSince counts whole elapsed days, rounding down.
func DaysSince(now, t time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

func stockLine(p models.ProductRecord) StockLine {
	return StockLine{Name: p.Name, Stock: p.Stock, Category: p.Category}
}

func stockLines(products []models.ProductRecord) []StockLine {
	lines := make([]StockLine, 0, len(products))
	for _, p := range products {
		lines = append(lines, stockLine(p))
	}
	return lines
}
