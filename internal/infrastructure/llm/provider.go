package llm

import (
	"context"
	"fmt"
)

// Options selects and configures a completion backend.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewProvider builds the backend named by opts.Provider.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Provider {
	case "openai":
		return newOpenAIProvider(opts.APIKey, opts.Model), nil
	case "anthropic":
		return newAnthropicProvider(opts.APIKey, opts.Model), nil
	case "gemini":
		return newGeminiProvider(ctx, opts.APIKey, opts.Model)
	case "ollama":
		return newOllamaProvider(opts.BaseURL, opts.Model), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
}
