package models

// Default model names per provider. The Ollama default is a small model that runs on a
// laptop; the hosted defaults are fast, inexpensive chat models.
const (
	DefaultOllamaModel = "qwen2.5:3b"
	DefaultGitHubModel = "openai/gpt-4.1-mini"
	DefaultOpenAIModel = "gpt-4.1-mini"
)

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderGitHub = "github"
	ProviderOpenAI = "openai"

	// ProviderOpenAISDK selects the openai-go backend instead of langchaingo.
	ProviderOpenAISDK = "openai-sdk"

	// ProviderMock selects a scripted offline model. See NewScripted.
	ProviderMock = "mock"
)
