package insights

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrGeneration = errors.New("insights: generation failed")

// TextGenerator sends one instruction and prompt to a text-generation service and returns its raw text.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// Generator builds the prompt for a summary and makes exactly one call. It never retries.
type Generator struct {
	provider TextGenerator
	timeout  time.Duration
	currency string
}

func NewGenerator(provider TextGenerator, timeout time.Duration, currency string) *Generator {
	return &Generator{provider: provider, timeout: timeout, currency: currency}
}

func (g *Generator) Generate(ctx context.Context, summary DataSummary) (string, error) {
	ctx, span := tracer.Start(ctx, "insights.generate")
	defer span.End()

	if g == nil || g.provider == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrGeneration)
	}

	prompt, err := TaskPrompt(summary)
	if err != nil {
		return "", fmt.Errorf("%w: build prompt: %v", ErrGeneration, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.provider.GenerateText(ctx, SystemInstruction(g.currency), prompt)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return text, nil
}
