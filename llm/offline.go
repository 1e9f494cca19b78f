package llm

import "context"

// Offline never calls out. Its empty reply makes the synthesizer answer with the deterministic fallback.
type Offline struct{}

func NewOffline() *Offline {
	return &Offline{}
}

func (Offline) Name() string {
	return ProviderOffline
}

func (Offline) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", nil
}
