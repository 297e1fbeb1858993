package synth

import (
	"context"
	"fmt"
)

// ModelMock selects the offline deterministic generator.
const ModelMock = "mock"

// Generator produces raw model text for a prompt. Implementations must be
// safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ForModel returns the generator backing the requested model name. The API
// key is only required for live models.
func ForModel(model, apiKey string) (Generator, error) {
	if model == ModelMock {
		return &Mock{}, nil
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api key required for model %q (use %q to run offline)", model, ModelMock)
	}
	return NewGeminiClient(apiKey, model), nil
}
