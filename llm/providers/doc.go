/*
# 概述

包 providers 提供跨模型服务商的通用适配与辅助能力，是具体 Provider
实现（openai、deepseek、gemini、ollama）的公共基础层。

# 核心类型

  - BaseProviderConfig：所有 Provider 共享的基础配置（APIKey、BaseURL、Model、Timeout）
  - OpenAICompat* 系列：OpenAI 兼容 API 的请求/响应结构体

# 核心函数

  - MapHTTPError：将 HTTP 状态码映射为语义化的 llm.Error（含 Retryable 标记）
  - TransportError：网络层错误的统一包装
  - ReadErrorMessage：解析常见错误响应体
  - ConvertMessagesToOpenAI / ToLLMChatResponse：消息与响应格式转换
  - ChooseModel：按优先级选择模型（请求 > 配置 > 兜底）

Provider 构造由 factory 子包按名称完成。
*/
package providers
