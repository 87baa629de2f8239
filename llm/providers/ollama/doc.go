// Package ollama 对接本地 Ollama 服务的 /api/chat 接口（非流式），默认地址 http://localhost:11434，默认模型 deepseek-r1。
package ollama
