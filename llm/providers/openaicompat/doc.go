// Package openaicompat provides the shared implementation for providers that
// speak the OpenAI Chat Completions format.
//
// OpenAI itself, DeepSeek and OpenRouter use the same request and response
// shape. They construct an openaicompat.Provider and only set what differs:
//
//   - Provider name and default model
//   - Base URL and endpoint path
//   - Custom headers (if any)
//
// Usage:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName:  "deepseek",
//	    APIKey:        cfg.APIKey,
//	    BaseURL:       "https://api.deepseek.com",
//	    FallbackModel: "deepseek-chat",
//	}, logger)
package openaicompat
