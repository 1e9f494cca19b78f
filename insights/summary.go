package insights

import (
	"github.com/mmdatafocus/storefront_insights/models"
)

// DataSummary is the aggregated view handed to the generator and hashed for change detection.
// Field order is significant: it fixes the canonical JSON and therefore the fingerprint.
type DataSummary struct {
	SalesTrends SalesTrendsSummary `json:"salesTrends"`
	Inventory   InventorySummary   `json:"inventory"`
	Operations  OperationsSummary  `json:"operations"`
}

type SalesTrendsSummary struct {
	CurrentWeekRevenue   float64          `json:"currentWeekRevenue"`
	PreviousWeekRevenue  float64          `json:"previousWeekRevenue"`
	RevenueChangePercent string           `json:"revenueChangePercent"`
	CurrentWeekOrders    int64            `json:"currentWeekOrders"`
	PreviousWeekOrders   int64            `json:"previousWeekOrders"`
	AvgOrderValue        string           `json:"avgOrderValue"`
	TopProducts          []TopProductLine `json:"topProducts"`
}

type TopProductLine struct {
	Name      string `json:"name"`
	UnitsSold int    `json:"unitsSold"`
	Revenue   string `json:"revenue"`
}

type InventorySummary struct {
	OutOfStock      []OutOfStockLine `json:"outOfStock"`
	LowStock        []StockLine      `json:"lowStock"`
	NeedsRestock    []StockLine      `json:"needsRestock"`
	SlowMoving      []StockLine      `json:"slowMoving"`
	TotalProducts   int              `json:"totalProducts"`
	OutOfStockCount int              `json:"outOfStockCount"`
	LowStockCount   int              `json:"lowStockCount"`
}

type OutOfStockLine struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type StockLine struct {
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	Category string `json:"category"`
}

type OperationsSummary struct {
	StatusDistribution models.StatusDistribution `json:"statusDistribution"`
	UnfulfilledOrders  []UnfulfilledLine         `json:"unfulfilledOrders"`
	UrgentOrders       int                       `json:"urgentOrders"`
}

type UnfulfilledLine struct {
	OrderNumber    string  `json:"orderNumber"`
	Total          float64 `json:"total"`
	DaysSinceOrder int     `json:"daysSinceOrder"`
	ItemCount      int     `json:"itemCount"`
}

// RawMetrics are recomputed on every request, cached or not.
type RawMetrics struct {
	CurrentRevenue   float64 `json:"currentRevenue"`
	PreviousRevenue  float64 `json:"previousRevenue"`
	RevenueChange    string  `json:"revenueChange"`
	OrderCount       int64   `json:"orderCount"`
	AvgOrderValue    string  `json:"avgOrderValue"`
	UnfulfilledCount int     `json:"unfulfilledCount"`
	LowStockCount    int     `json:"lowStockCount"`
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Insights is the three-section answer returned to the admin dashboard.
type Insights struct {
	SalesTrends SalesTrendsInsight `json:"salesTrends"`
	Inventory   InventoryInsight   `json:"inventory"`
	ActionItems ActionItems        `json:"actionItems"`
}

type SalesTrendsInsight struct {
	Summary    string   `json:"summary" validate:"required"`
	Highlights []string `json:"highlights"`
	Trend      Trend    `json:"trend" validate:"oneof=up down stable"`
}

type InventoryInsight struct {
	Summary         string   `json:"summary" validate:"required"`
	Alerts          []string `json:"alerts"`
	Recommendations []string `json:"recommendations"`
}

type ActionItems struct {
	Urgent        []string `json:"urgent"`
	Recommended   []string `json:"recommended"`
	Opportunities []string `json:"opportunities"`
}

// Origin tells whether insights came from the generator or the deterministic fallback.
type Origin string

const (
	OriginGenerated Origin = "ai"
	OriginFallback  Origin = "fallback"
)

// Response is the success body of the insights endpoint.
type Response struct {
	Success     bool       `json:"success"`
	Insights    Insights   `json:"insights"`
	RawMetrics  RawMetrics `json:"rawMetrics"`
	GeneratedAt string     `json:"generatedAt"`
	Cached      bool       `json:"cached"`
}
