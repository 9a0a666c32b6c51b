package llm

import "context"

// Provider defines the interface for LLM text-generation providers.
// The pipeline performs no retries on top of it; any bounded-retry
// discipline belongs to the provider implementation or its SDK.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one prompt through the model and returns the raw text
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Embedder defines the interface for sentence-embedding providers.
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns a fixed-dimensionality embedding vector for the text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionRequest contains the input for one generation call.
type CompletionRequest struct {
	// System is the optional system instruction
	System string

	// Prompt is the user prompt
	Prompt string

	// MaxTokens limits the response length (0 = config default)
	MaxTokens int

	// Temperature controls sampling (0 = provider default)
	Temperature float32
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// EmbeddingModel name for the Embedder (provider-specific)
	EmbeddingModel string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens default for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60,
		MaxTokens: 2000,
	}
}
