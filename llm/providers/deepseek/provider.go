package deepseek

import (
	"github.com/BaSui01/llmschema/llm/providers"
	"github.com/BaSui01/llmschema/llm/providers/openaicompat"
	"go.uber.org/zap"
)

const (
	defaultBaseURL    = "https://api.deepseek.com"
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	defaultModel    = "deepseek-chat"
	openRouterModel = "deepseek/deepseek-r1-distill-llama-70b:free"
)

// DeepSeekProvider 实现 DeepSeek LLM 提供者.
type DeepSeekProvider struct {
	*openaicompat.Provider
}

// NewDeepSeekProvider 创建新的 DeepSeek 提供者实例.
func NewDeepSeekProvider(cfg providers.DeepSeekConfig, logger *zap.Logger) *DeepSeekProvider {
	baseURL, fallback := defaultBaseURL, defaultModel
	if cfg.UseOpenRouter {
		baseURL, fallback = openRouterBaseURL, openRouterModel
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	return &DeepSeekProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "deepseek",
			APIKey:        cfg.APIKey,
			BaseURL:       baseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: fallback,
			Timeout:       cfg.Timeout,
			EndpointPath:  "/chat/completions",
			// OpenRouter 与 DeepSeek 官方都在 BaseURL 下直接暴露 /models
			ModelsEndpoint: "/models",
		}, logger),
	}
}
