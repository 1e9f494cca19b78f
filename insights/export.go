package insights

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	metricsSheet  = "Metrics"
	insightsSheet = "Insights"
)

// WriteWorkbook renders a response as an xlsx workbook with a metrics sheet and an insights sheet.
func WriteWorkbook(w io.Writer, res *Response) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", metricsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(insightsSheet); err != nil {
		return err
	}

	m := res.RawMetrics
	metrics := [][]any{
		{"Metric", "Value"},
		{"Current revenue", m.CurrentRevenue},
		{"Previous revenue", m.PreviousRevenue},
		{"Revenue change %", m.RevenueChange},
		{"Orders this week", m.OrderCount},
		{"Average order value", m.AvgOrderValue},
		{"Unfulfilled orders", m.UnfulfilledCount},
		{"Low stock products", m.LowStockCount},
		{"Generated at", res.GeneratedAt},
		{"Cached", res.Cached},
	}
	if err := writeRows(f, metricsSheet, metrics); err != nil {
		return err
	}

	in := res.Insights
	rows := [][]any{
		{"Section", "Kind", "Text"},
		{"Sales trends", "summary", in.SalesTrends.Summary},
		{"Sales trends", "trend", string(in.SalesTrends.Trend)},
	}
	rows = appendList(rows, "Sales trends", "highlight", in.SalesTrends.Highlights)
	rows = append(rows, []any{"Inventory", "summary", in.Inventory.Summary})
	rows = appendList(rows, "Inventory", "alert", in.Inventory.Alerts)
	rows = appendList(rows, "Inventory", "recommendation", in.Inventory.Recommendations)
	rows = appendList(rows, "Action items", "urgent", in.ActionItems.Urgent)
	rows = appendList(rows, "Action items", "recommended", in.ActionItems.Recommended)
	rows = appendList(rows, "Action items", "opportunity", in.ActionItems.Opportunities)
	if err := writeRows(f, insightsSheet, rows); err != nil {
		return err
	}

	return f.Write(w)
}

func appendList(rows [][]any, section, kind string, items []string) [][]any {
	for _, item := range items {
		rows = append(rows, []any{section, kind, item})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
