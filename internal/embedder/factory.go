package embedder

import (
	"fmt"
	"os"
	"strings"

	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// Environment variables consulted by NewFromEnv
const (
	EnvProvider     = "DOCSEARCH_EMBEDDING_PROVIDER"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
	EnvOllamaModel  = "OLLAMA_EMBEDDING_MODEL"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. DOCSEARCH_EMBEDDING_PROVIDER (gemini, ollama, local)
//  2. GEMINI_API_KEY present → gemini
//  3. OLLAMA_HOST present → ollama
//  4. local fallback
func NewFromEnv() (Embedder, error) {
	provider := strings.ToLower(os.Getenv(EnvProvider))
	geminiKey := os.Getenv(EnvGeminiAPIKey)
	ollamaHost := os.Getenv(EnvOllamaHost)

	cache := NewCache(10000)

	if provider != "" {
		switch provider {
		case ProviderGemini:
			return NewGeminiProvider(geminiKey, "", cache)
		case ProviderOllama:
			return NewOllamaProvider(ollamaHost, os.Getenv(EnvOllamaModel), cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("unknown embedding provider %s: %w", provider, types.ErrNotConfigured)
		}
	}

	if geminiKey != "" {
		return NewGeminiProvider(geminiKey, "", cache)
	}
	if ollamaHost != "" {
		return NewOllamaProvider(ollamaHost, os.Getenv(EnvOllamaModel), cache)
	}
	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini:
		return NewGeminiProvider(cfg.APIKey, cfg.BaseURL, cache)
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, "", cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("unknown embedding provider %s: %w", cfg.Provider, types.ErrNotConfigured)
	}
}

// DetectProvider returns the provider NewFromEnv would pick.
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvGeminiAPIKey) != "" {
		return ProviderGemini
	}
	if os.Getenv(EnvOllamaHost) != "" {
		return ProviderOllama
	}
	return ProviderLocal
}
