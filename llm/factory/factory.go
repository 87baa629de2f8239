package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/llm/providers"
	"github.com/BaSui01/llmschema/llm/providers/deepseek"
	"github.com/BaSui01/llmschema/llm/providers/gemini"
	"github.com/BaSui01/llmschema/llm/providers/ollama"
	"github.com/BaSui01/llmschema/llm/providers/openai"
	"github.com/BaSui01/llmschema/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// ProviderConfig is the generic configuration accepted by the factory function.
// Extra carries provider-specific fields.
type ProviderConfig struct {
	APIKey  string         `json:"api_key" yaml:"api_key"`
	BaseURL string         `json:"base_url" yaml:"base_url"`
	Model   string         `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Extra   map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// NewProviderFromConfig creates a Provider by name.
//
// Supported names: openai, deepseek, openrouter (DeepSeek via OpenRouter),
// gemini, ollama. Any other name with a base_url is treated as a generic
// OpenAI-compatible provider.
func NewProviderFromConfig(ctx context.Context, name string, cfg ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := providers.BaseProviderConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	switch name {
	case "openai":
		return openai.NewOpenAIProvider(providers.OpenAIConfig{BaseProviderConfig: base}, logger), nil

	case "deepseek", "openrouter":
		dc := providers.DeepSeekConfig{BaseProviderConfig: base, UseOpenRouter: name == "openrouter"}
		if v, ok := cfg.Extra["use_openrouter"].(bool); ok {
			dc.UseOpenRouter = v
		}
		return deepseek.NewDeepSeekProvider(dc, logger), nil

	case "gemini":
		return gemini.NewGeminiProvider(ctx, providers.GeminiConfig{BaseProviderConfig: base}, logger)

	case "ollama":
		return ollama.NewOllamaProvider(providers.OllamaConfig{BaseProviderConfig: base}, logger), nil

	default:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("unknown provider %q: built-in provider not found, and base_url is required for generic OpenAI-compatible provider", name)
		}
		oc := openaicompat.Config{
			ProviderName: name,
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
		}
		if v, ok := cfg.Extra["endpoint_path"].(string); ok {
			oc.EndpointPath = v
		}
		if v, ok := cfg.Extra["models_endpoint"].(string); ok {
			oc.ModelsEndpoint = v
		}
		logger.Info("creating generic OpenAI-compatible provider",
			zap.String("provider", name),
			zap.String("base_url", cfg.BaseURL))
		return openaicompat.New(oc, logger), nil
	}
}

// SupportedProviders returns the list of built-in provider names.
func SupportedProviders() []string {
	return []string{"openai", "deepseek", "openrouter", "gemini", "ollama"}
}
