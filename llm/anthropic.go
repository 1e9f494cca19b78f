package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mmdatafocus/storefront_insights/config"
)

const anthropicModel = "claude-3-5-haiku-latest"

// Anthropic calls the Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic accepts either a base URL or the full messages URL as the endpoint.
func NewAnthropic(s config.LLMSettings, client *http.Client) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(client),
		option.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(s.Endpoint); endpoint != "" {
		endpoint = strings.TrimSuffix(strings.TrimSuffix(endpoint, "/"), "/v1/messages")
		opts = append(opts, option.WithBaseURL(endpoint+"/"))
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     valueOrDefault(s.Model, anthropicModel),
		maxTokens: valueOrDefaultInt(s.MaxTokens, defaultMaxTokens),
	}
}

func (p *Anthropic) Name() string {
	return ProviderAnthropic
}

// GenerateText joins every text block of the reply.
func (p *Anthropic) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("anthropic: status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		b.WriteString(block.Text)
	}
	return b.String(), nil
}
