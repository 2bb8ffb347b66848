package inference

import (
	"context"
	"encoding/json"
)

// RequestSettings are pass-through decoding parameters for every model call.
// The search core treats them as opaque.
type RequestSettings struct {
	Model       string
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Seed        int
}

// DefaultSettings mirrors the stock OpenAI-compatible endpoint configuration.
func DefaultSettings() RequestSettings {
	return RequestSettings{
		Model:       "gpt-3.5-turbo",
		BaseURL:     "https://api.openai.com/v1",
		MaxTokens:   8192,
		Temperature: 1.0,
		TopP:        0.9,
		Seed:        1337,
	}
}

// Model is the capability surface the search driver consumes. Test doubles
// implement it directly instead of intercepting network calls.
type Model interface {
	// GenerateInitialAnswer produces the root answer with greedy decoding,
	// regardless of the sampling parameters in settings.
	GenerateInitialAnswer(ctx context.Context, prompt string, settings RequestSettings) (string, error)

	// GenerateFeedback critiques answer relative to prompt without rewriting it.
	GenerateFeedback(ctx context.Context, prompt, answer string, settings RequestSettings) (string, error)

	// GenerateImprovedVersion rewrites answer incorporating feedback.
	GenerateImprovedVersion(ctx context.Context, prompt, answer, feedback string, settings RequestSettings) (string, error)

	// GenerateRating scores answer against prompt on a 0-100 scale and
	// returns the raw, un-normalized score.
	GenerateRating(ctx context.Context, prompt, answer string, settings RequestSettings) (json.Number, error)
}
