package models

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// GitHubModelsBaseURL is the base URL for the GitHub Models API.
	// The OpenAI-compatible chat completions endpoint is at
	// {baseURL}/chat/completions.
	GitHubModelsBaseURL = "https://models.github.ai/inference"

	// OllamaDefaultURL is the address of a local Ollama server.
	OllamaDefaultURL = "http://localhost:11434"
)

// githubHeaderTransport injects GitHub-specific headers into every request.
type githubHeaderTransport struct {
	base http.RoundTripper
}

func (t *githubHeaderTransport) Do(
	req *http.Request,
) (*http.Response, error) {
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return t.base.RoundTrip(req)
}

// NewGitHubModel creates a Model backed by the GitHub Models API.
//
// The token must be a GitHub Personal Access Token (fine-grained)
// with the models:read permission. Model names use the
// publisher/model format, for example "openai/gpt-4.1".
//
// Additional openai.Option values can be passed to customise the
// underlying LangChainGo OpenAI client.
func NewGitHubModel(
	model string,
	token string,
	opts ...openai.Option,
) (*LCG, error) {
	if token == "" {
		return nil, fmt.Errorf(
			"github token is required: " +
				"create a fine-grained PAT with models:read " +
				"at https://github.com/settings/personal-access-tokens/new",
		)
	}

	baseOpts := []openai.Option{
		openai.WithBaseURL(GitHubModelsBaseURL),
		openai.WithToken(token),
		openai.WithModel(model),
		openai.WithHTTPClient(&githubHeaderTransport{
			base: http.DefaultTransport,
		}),
	}

	// Caller options come after so they can override defaults.
	llm, err := openai.New(append(baseOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to create GitHub Models client: %w", err,
		)
	}

	return NewLCG(llm).WithModelName(model), nil
}

// NewOpenAICompatible creates a Model for any OpenAI-compatible chat completions endpoint.
// An empty baseURL uses the OpenAI API.
func NewOpenAICompatible(
	model string,
	token string,
	baseURL string,
	opts ...openai.Option,
) (*LCG, error) {
	baseOpts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if baseURL != "" {
		baseOpts = append(baseOpts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(append(baseOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewLCG(llm).WithModelName(model), nil
}

// NewOllama creates a Model served by Ollama, e.g. "qwen2.5:3b". An empty serverURL uses
// OllamaDefaultURL.
func NewOllama(model string, serverURL string, opts ...ollama.Option) (*LCG, error) {
	if serverURL == "" {
		serverURL = OllamaDefaultURL
	}
	baseOpts := []ollama.Option{
		ollama.WithModel(model),
		ollama.WithServerURL(serverURL),
	}

	llm, err := ollama.New(append(baseOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return NewLCG(llm).WithModelName(model), nil
}
