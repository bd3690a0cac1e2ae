package llm

import (
	"fmt"

	"github.com/kivosy/aegis/internal/domain"
)

// Provider constants
const (
	ProviderLMStudio = "lmstudio"
	ProviderOpenAI   = "openai"
	ProviderMock     = "mock"
)

// NewClient creates a model transport based on the provider name.
// Returns an error if the provider is unknown or a required credential is
// missing.
func NewClient(provider, apiKey, endpoint string) (domain.LLMClient, error) {
	switch provider {
	case ProviderLMStudio:
		return NewLMStudioClient(endpoint), nil

	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: lmstudio, openai, mock)", provider)
	}
}
