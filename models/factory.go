package models

import (
	"fmt"

	"github.com/rickchristie/refine"
)

// Settings selects and configures a model backend.
type Settings struct {
	// Provider is one of the Provider constants. Empty means ProviderOllama.
	Provider string

	// Name is the model name. Empty means the provider's default.
	Name string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey authenticates with hosted providers. Ollama and the mock ignore it.
	APIKey string
}

// New creates the model described by s.
func New(s Settings) (refine.Model, error) {
	switch s.Provider {
	case "", ProviderOllama:
		return NewOllama(orDefault(s.Name, DefaultOllamaModel), s.BaseURL)
	case ProviderGitHub:
		return NewGitHubModel(orDefault(s.Name, DefaultGitHubModel), s.APIKey)
	case ProviderOpenAI:
		return NewOpenAICompatible(orDefault(s.Name, DefaultOpenAIModel), s.APIKey, s.BaseURL)
	case ProviderOpenAISDK:
		return NewOpenAI(orDefault(s.Name, DefaultOpenAIModel), s.APIKey, s.BaseURL)
	case ProviderMock:
		return NewDemo(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", s.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
