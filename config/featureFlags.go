package config

import (
	"os"
	"strings"
)

func envFlag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictInsightsSchema rejects generated insights that parse as JSON but do not match the schema
// (unknown trend, empty summaries). Rejected output is replaced by the deterministic fallback.
//
// Set via env:
// - INSIGHTS_STRICT_SCHEMA=true
func StrictInsightsSchema() bool {
	return envFlag("INSIGHTS_STRICT_SCHEMA")
}

// FallbackOnGenerationError serves the deterministic fallback instead of failing the request
// when the generation call itself errors. Fallback answers produced this way are not cached.
//
// Set via env:
// - INSIGHTS_FALLBACK_ON_GENERATION_ERROR=true
func FallbackOnGenerationError() bool {
	return envFlag("INSIGHTS_FALLBACK_ON_GENERATION_ERROR")
}

// SkipMigrations disables AutoMigrate on startup (run ./cmd/seed-storefront -migrate instead).
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return envFlag("SKIP_MIGRATIONS")
}
