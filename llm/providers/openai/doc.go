/*
# 概述

包 openai 提供 OpenAI 模型的 Provider 适配实现，直接构造 openaicompat.Provider。
BaseURL 可指向任意 OpenAI 兼容服务（如自建网关）。

# 定制行为

  - 默认 BaseURL: https://api.openai.com
  - 默认兜底模型: gpt-4o-mini
  - Endpoint: /v1/chat/completions
*/
package openai
