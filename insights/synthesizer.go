package insights

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	errNoObject = errors.New("no JSON object found in response")

	trendThreshold = decimal.NewFromInt(5)
)

// Synthesizer turns generator text into Insights. It always produces a value.
type Synthesizer struct {
	currency string
	strict   bool
	validate *validator.Validate
}

func NewSynthesizer(currency string, strict bool) *Synthesizer {
	if currency == "" {
		currency = "£"
	}
	return &Synthesizer{currency: currency, strict: strict, validate: validator.New()}
}

// Synthesize parses the first JSON object found in text. Any failure yields the fallback for agg.
func (s *Synthesizer) Synthesize(text string, agg *Aggregate) (Insights, Origin) {
	parsed, err := s.parse(text)
	if err == nil {
		return parsed, OriginGenerated
	}
	config.GetLogger().WithFields(logrus.Fields{
		"field":  "insightsSynthesizer",
		"length": len(text),
	}).Warn("unusable generator output, using fallback: " + err.Error())
	return s.Fallback(agg), OriginFallback
}

func (s *Synthesizer) parse(text string) (Insights, error) {
	var out Insights
	object, ok := ExtractObject(text)
	if !ok {
		return out, errNoObject
	}
	if err := json.Unmarshal([]byte(object), &out); err != nil {
		return Insights{}, err
	}
	if s.strict {
		if err := s.validate.Struct(out); err != nil {
			return Insights{}, err
		}
	}
	return out, nil
}

// Fallback builds insights from the aggregate alone.
func (s *Synthesizer) Fallback(agg *Aggregate) Insights {
	if agg == nil {
		agg = &Aggregate{}
	}

	sign := ""
	if agg.RevenueChange.IsPositive() {
		sign = "+"
	}

	topSeller := "No sales data yet"
	if len(agg.TopProducts) > 0 {
		topSeller = "Top seller: " + agg.TopProducts[0].Name
	}

	trend := TrendStable
	if agg.RevenueChange.GreaterThan(trendThreshold) {
		trend = TrendUp
	} else if agg.RevenueChange.LessThan(trendThreshold.Neg()) {
		trend = TrendDown
	}

	alerts := make([]string, 0, 2)
	for i, p := range agg.NeedsRestock {
		if i == 2 {
			break
		}
		alerts = append(alerts, fmt.Sprintf("%s has only %d left", p.Name, p.Stock))
	}

	urgent := []string{"All orders fulfilled!"}
	if agg.UnfulfilledCount > 0 {
		urgent = []string{fmt.Sprintf("Ship %d pending orders", agg.UnfulfilledCount)}
	}

	return Insights{
		SalesTrends: SalesTrendsInsight{
			Summary: fmt.Sprintf("Revenue this week: %s%s (%s%s%% vs last week)",
				s.currency, agg.CurrentRevenue.StringFixed(2), sign, agg.RevenueChange.StringFixed(1)),
			Highlights: []string{
				fmt.Sprintf("%d orders this week", agg.CurrentOrderCount),
				fmt.Sprintf("Average order value: %s%s", s.currency, agg.AvgOrderValue.StringFixed(2)),
				topSeller,
			},
			Trend: trend,
		},
		Inventory: InventoryInsight{
			Summary: fmt.Sprintf("%d products need restocking. %d products have no recent sales.",
				len(agg.NeedsRestock), len(agg.SlowMoving)),
			Alerts: alerts,
			Recommendations: []string{
				"Review low stock items before the weekend",
				"Consider promotions for slow-moving inventory",
			},
		},
		ActionItems: ActionItems{
			Urgent:        urgent,
			Recommended:   []string{"Review inventory levels", "Check product listings"},
			Opportunities: []string{"Featured products drive more sales"},
		},
	}
}
