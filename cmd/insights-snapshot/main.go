// insights-snapshot runs the insights pipeline once against the configured store and prints
// the response, without the HTTP layer. With -token it prints an admin bearer token instead.
//
// Usage:
//
//	DB_*=... LLM_API_KEY=... go run ./cmd/insights-snapshot
//	API_SECRET=... go run ./cmd/insights-snapshot -token -hours 12
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/mmdatafocus/storefront_insights/insights"
	"github.com/mmdatafocus/storefront_insights/models"
	"github.com/mmdatafocus/storefront_insights/utils"
	"github.com/mmdatafocus/storefront_insights/workflow"
)

func main() {
	token := flag.Bool("token", false, "Print an admin bearer token signed with API_SECRET and exit")
	hours := flag.Int("hours", 1, "Token lifespan in hours")
	summary := flag.Bool("summary", false, "Print the aggregated data summary and its fingerprint instead of generating")
	flag.Parse()

	settings := config.GetSettings()
	config.SetLogLevel(settings.LogLevel)
	logger := config.GetLogger()

	if *token {
		t, err := utils.JwtGenerate(settings.APISecret, 0, utils.RoleAdmin, time.Duration(*hours)*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot sign token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(t)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := config.ConnectDatabaseWithRetry(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "database not initialized: %v\n", err)
		os.Exit(1)
	}
	db := config.GetDB()

	if *summary {
		agg, err := insights.NewAggregator(models.NewStoreGateway(db)).Aggregate(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "aggregate failed: %v\n", err)
			os.Exit(1)
		}
		fp, err := insights.Fingerprint(agg.Summary)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fingerprint failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(map[string]any{"fingerprint": fp, "summary": agg.Summary, "rawMetrics": agg.Metrics})
		return
	}

	svc, _, err := workflow.NewInsightsService(settings, db, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot build insights service: %v\n", err)
		os.Exit(1)
	}
	res, err := svc.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(res)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		os.Exit(1)
	}
}
