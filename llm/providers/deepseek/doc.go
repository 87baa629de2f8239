/*
# 概述

包 deepseek 提供 DeepSeek 模型的 Provider 适配实现。DeepSeek 使用
OpenAI 兼容的 API 格式，因此本包直接构造 openaicompat.Provider，仅定制
服务地址、接口路径与默认模型。

# 两种接入方式

  - 官方 API：默认 BaseURL https://api.deepseek.com，兜底模型 deepseek-chat
  - OpenRouter：UseOpenRouter 为 true 时改用 https://openrouter.ai/api/v1，
    兜底模型 deepseek/deepseek-r1-distill-llama-70b:free

两种方式的 Endpoint 均为 /chat/completions，认证方式为 Bearer Token。
*/
package deepseek
