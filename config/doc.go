// Package config 提供 llmschema 的配置管理。
//
// 加载顺序为 默认值 → YAML 文件 → 环境变量（前缀 LLMSCHEMA），
// 环境变量名由 env 标签逐级拼接，例如 LLMSCHEMA_LLM_API_KEY、
// LLMSCHEMA_GENERATION_MAX_RETRIES、LLMSCHEMA_LLM_RETRY_MAX_DELAY。
package config
