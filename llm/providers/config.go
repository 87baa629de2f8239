package providers

import "time"

// BaseProviderConfig 所有 Provider 共享的基础配置字段。
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OpenAIConfig 任意 OpenAI 兼容服务的配置
type OpenAIConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// DeepSeekConfig DeepSeek Provider 配置
type DeepSeekConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// UseOpenRouter 通过 OpenRouter 的 chat completions 接口访问 DeepSeek 模型
	UseOpenRouter bool `json:"use_openrouter,omitempty" yaml:"use_openrouter,omitempty"`
}

// GeminiConfig Gemini Provider 配置
type GeminiConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// OllamaConfig 本地 Ollama 服务配置
type OllamaConfig struct {
	BaseProviderConfig `yaml:",inline"`
}
