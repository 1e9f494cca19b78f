package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/sirupsen/logrus"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOffline   = "offline"

	defaultMaxTokens = 1024
)

// Provider is a text-generation backend: one system instruction and one user prompt in, raw text out.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// New picks the provider named in s. Without an API key every provider degrades to offline.
func New(s config.LLMSettings, client *http.Client) (Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" {
		name = ProviderAnthropic
	}

	if name != ProviderOffline && strings.TrimSpace(s.APIKey) == "" {
		config.GetLogger().WithFields(logrus.Fields{
			"field":    "llm",
			"provider": name,
		}).Warn("LLM_API_KEY not set; using offline provider")
		return NewOffline(), nil
	}

	switch name {
	case ProviderAnthropic:
		return NewAnthropic(s, client), nil
	case ProviderOpenAI:
		return NewOpenAI(s, client), nil
	case ProviderOffline:
		return NewOffline(), nil
	}
	return nil, fmt.Errorf("llm: unknown provider %q", s.Provider)
}

func valueOrDefault(value string, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func valueOrDefaultInt(value int, def int) int {
	if value <= 0 {
		return def
	}
	return value
}
