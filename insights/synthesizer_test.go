package insights

import (
	"reflect"
	"testing"

	"github.com/mmdatafocus/storefront_insights/models"
)

func TestSynthesize_ValidResponseIsReturnedUnchanged(t *testing.T) {
	s := NewSynthesizer("£", false)
	agg := Summarize(fixedNow(), sampleSnapshot(fixedNow()))

	got, origin := s.Synthesize("Sure!\n"+validInsightsJSON, agg)
	if origin != OriginGenerated {
		t.Fatalf("expected generated origin, got %s", origin)
	}
	if got.SalesTrends.Summary != "Sales grew." || got.SalesTrends.Trend != TrendUp {
		t.Fatalf("unexpected sales trends: %+v", got.SalesTrends)
	}
	if !reflect.DeepEqual(got.ActionItems.Urgent, []string{"Ship ORD-1"}) {
		t.Fatalf("unexpected urgent items: %+v", got.ActionItems.Urgent)
	}
}

func TestSynthesize_FallbackIsTotal(t *testing.T) {
	s := NewSynthesizer("£", false)
	agg := Summarize(fixedNow(), Snapshot{})
	for _, text := range []string{"", "not json", "{broken", `{"salesTrends": 5}`, "[1,2,3]"} {
		got, origin := s.Synthesize(text, agg)
		if origin != OriginFallback {
			t.Fatalf("%q: expected fallback", text)
		}
		if got.SalesTrends.Summary == "" || got.Inventory.Summary == "" {
			t.Fatalf("%q: fallback must populate summaries: %+v", text, got)
		}
		if len(got.SalesTrends.Highlights) != 3 {
			t.Fatalf("%q: expected 3 highlights, got %v", text, got.SalesTrends.Highlights)
		}
	}
}

func TestSynthesize_StrictRejectsUnknownTrend(t *testing.T) {
	text := `{"salesTrends":{"summary":"ok","highlights":[],"trend":"sideways"},"inventory":{"summary":"ok"},"actionItems":{}}`
	agg := Summarize(fixedNow(), Snapshot{})

	if _, origin := NewSynthesizer("£", false).Synthesize(text, agg); origin != OriginGenerated {
		t.Fatalf("lenient mode should accept any parseable object")
	}
	if _, origin := NewSynthesizer("£", true).Synthesize(text, agg); origin != OriginFallback {
		t.Fatalf("strict mode should reject an unknown trend")
	}
}

func TestFallback_GrowthWording(t *testing.T) {
	now := fixedNow()
	agg := Summarize(now, sampleSnapshot(now))
	got := NewSynthesizer("£", false).Fallback(agg)

	if got.SalesTrends.Summary != "Revenue this week: £1200.00 (+20.0% vs last week)" {
		t.Fatalf("unexpected summary: %s", got.SalesTrends.Summary)
	}
	if got.SalesTrends.Trend != TrendUp {
		t.Fatalf("expected trend up, got %s", got.SalesTrends.Trend)
	}
	wantHighlights := []string{"2 orders this week", "Average order value: £100.00", "Top seller: Velvet Sofa"}
	if !reflect.DeepEqual(got.SalesTrends.Highlights, wantHighlights) {
		t.Fatalf("unexpected highlights: %v", got.SalesTrends.Highlights)
	}
	if got.Inventory.Summary != "1 products need restocking. 1 products have no recent sales." {
		t.Fatalf("unexpected inventory summary: %s", got.Inventory.Summary)
	}
	if !reflect.DeepEqual(got.Inventory.Alerts, []string{"Velvet Sofa has only 2 left"}) {
		t.Fatalf("unexpected alerts: %v", got.Inventory.Alerts)
	}
	if !reflect.DeepEqual(got.ActionItems.Urgent, []string{"Ship 1 pending orders"}) {
		t.Fatalf("unexpected urgent items: %v", got.ActionItems.Urgent)
	}
}

func TestFallback_UrgentItems(t *testing.T) {
	now := fixedNow()
	s := NewSynthesizer("£", false)

	empty := s.Fallback(Summarize(now, Snapshot{}))
	if !reflect.DeepEqual(empty.ActionItems.Urgent, []string{"All orders fulfilled!"}) {
		t.Fatalf("unexpected urgent items with nothing pending: %v", empty.ActionItems.Urgent)
	}
	if empty.SalesTrends.Highlights[2] != "No sales data yet" {
		t.Fatalf("unexpected top seller line: %s", empty.SalesTrends.Highlights[2])
	}
	if empty.SalesTrends.Summary != "Revenue this week: £0.00 (0.0% vs last week)" {
		t.Fatalf("unexpected summary: %s", empty.SalesTrends.Summary)
	}

	snap := Snapshot{Unfulfilled: make([]models.UnfulfilledOrder, 3)}
	three := s.Fallback(Summarize(now, snap))
	if !reflect.DeepEqual(three.ActionItems.Urgent, []string{"Ship 3 pending orders"}) {
		t.Fatalf("unexpected urgent items: %v", three.ActionItems.Urgent)
	}
}

func TestFallback_TrendThresholds(t *testing.T) {
	cases := []struct {
		current, previous string
		want              Trend
	}{
		{"105", "100", TrendStable},
		{"106", "100", TrendUp},
		{"95", "100", TrendStable},
		{"94", "100", TrendDown},
	}
	s := NewSynthesizer("$", false)
	for _, tc := range cases {
		snap := Snapshot{Revenue: models.RevenuePeriod{CurrentPeriod: dec(tc.current), PreviousPeriod: dec(tc.previous)}}
		got := s.Fallback(Summarize(fixedNow(), snap)).SalesTrends.Trend
		if got != tc.want {
			t.Fatalf("%s vs %s: expected %s, got %s", tc.current, tc.previous, tc.want, got)
		}
	}
}

func TestFallback_AtMostTwoAlerts(t *testing.T) {
	snap := Snapshot{
		ProductSales: []models.ProductSale{
			{ProductId: 1, ProductName: "A", Quantity: 1},
			{ProductId: 2, ProductName: "B", Quantity: 1},
			{ProductId: 3, ProductName: "C", Quantity: 1},
		},
		Inventory: []models.ProductRecord{
			{ID: 1, Name: "A", Stock: 4},
			{ID: 2, Name: "B", Stock: 1},
			{ID: 3, Name: "C", Stock: 3},
		},
	}
	got := NewSynthesizer("£", false).Fallback(Summarize(fixedNow(), snap))
	want := []string{"B has only 1 left", "C has only 3 left"}
	if !reflect.DeepEqual(got.Inventory.Alerts, want) {
		t.Fatalf("expected %v, got %v", want, got.Inventory.Alerts)
	}
}
