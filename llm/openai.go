package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openAIModel = "gpt-4o-mini"

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewOpenAI(s config.LLMSettings, client *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(client),
		option.WithMaxRetries(0),
	}
	if s.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(s.Endpoint))
	}
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     valueOrDefault(s.Model, openAIModel),
		maxTokens: valueOrDefaultInt(s.MaxTokens, defaultMaxTokens),
	}
}

func (p *OpenAI) Name() string {
	return ProviderOpenAI
}

func (p *OpenAI) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model:               openai.ChatModel(p.model),
		MaxCompletionTokens: openai.Int(int64(p.maxTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
