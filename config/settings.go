package config

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultPort = "8080"

type Settings struct {
	Port        string   `env:"API_PORT"`
	RuntimePort string   `env:"PORT"`
	GoEnv       string   `env:"GO_ENV"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	APISecret   string   `env:"API_SECRET"`
	CorsOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	RedisAddress        string        `env:"REDIS_ADDRESS"`
	RedisConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	Database  DatabaseSettings  `envPrefix:"DB_"`
	RateLimit RateLimitSettings `envPrefix:"RATE_LIMIT_"`
	Insights  InsightsSettings  `envPrefix:"INSIGHTS_"`
	LLM       LLMSettings       `envPrefix:"LLM_"`
	PubSub    PubSubSettings    `envPrefix:"PUBSUB_"`
}

type DatabaseSettings struct {
	User            string        `env:"USER"`
	Password        string        `env:"PASSWORD"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"3306"`
	Name            string        `env:"NAME" envDefault:"storefront"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"300s"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"60s"`
}

type RateLimitSettings struct {
	Enabled     bool          `env:"ENABLED"`
	MaxRequests int64         `env:"MAX_REQUESTS" envDefault:"600"`
	Window      time.Duration `env:"WINDOW" envDefault:"60s"`
}

// InsightsSettings tunes the insights pipeline. CacheTTL is the freshness window of the single cache slot.
type InsightsSettings struct {
	CacheTTL          time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"45s"`
	LockTTL           time.Duration `env:"LOCK_TTL" envDefault:"60s"`
	CurrencySymbol    string        `env:"CURRENCY_SYMBOL" envDefault:"£"`
	PubSubTopic       string        `env:"PUBSUB_TOPIC"`
}

type LLMSettings struct {
	Provider  string `env:"PROVIDER" envDefault:"anthropic"`
	Model     string `env:"MODEL"`
	Endpoint  string `env:"ENDPOINT"`
	APIKey    string `env:"API_KEY"`
	MaxTokens int    `env:"MAX_TOKENS" envDefault:"1024"`
}

type PubSubSettings struct {
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsJSON string `env:"CREDENTIALS_JSON"`
}

var (
	settings     Settings
	settingsOnce sync.Once
)

// GetSettings parses the environment once per process.
// Unparseable values are logged and the defaults are kept.
func GetSettings() Settings {
	settingsOnce.Do(func() {
		// Load env from .env
		godotenv.Load()
		s, err := LoadSettings()
		if err != nil {
			log.Printf("config: cannot parse environment: %v (falling back to defaults)", err)
		}
		settings = s
	})
	return settings
}

func LoadSettings() (Settings, error) {
	var s Settings
	err := env.Parse(&s)
	return withDefaults(s), err
}

func withDefaults(s Settings) Settings {
	if s.Insights.CacheTTL <= 0 {
		s.Insights.CacheTTL = time.Hour
	}
	if s.Insights.GenerationTimeout <= 0 {
		s.Insights.GenerationTimeout = 45 * time.Second
	}
	if s.Insights.CurrencySymbol == "" {
		s.Insights.CurrencySymbol = "£"
	}
	if s.RedisConnectTimeout <= 0 {
		s.RedisConnectTimeout = 30 * time.Second
	}
	if s.LLM.Provider == "" {
		s.LLM.Provider = "anthropic"
	}
	return s
}

// ListenPort prefers API_PORT, then the Cloud Run PORT, then 8080.
func (s Settings) ListenPort() string {
	if p := strings.TrimSpace(s.Port); p != "" {
		return p
	}
	if p := strings.TrimSpace(s.RuntimePort); p != "" {
		return p
	}
	return defaultPort
}

func (s Settings) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.GoEnv), "production")
}
