/*
# 概述

包 gemini 提供 Google Gemini 模型的 Provider 适配实现。该包基于官方
google.golang.org/genai SDK（Gemini API 后端），不经过 openaicompat 兼容层。

# 核心结构体

  - GeminiProvider：持有 genai.Client 与 GeminiConfig

# 构造函数

  - NewGeminiProvider(ctx, cfg, logger)：创建实例，默认模型 gemini-2.0-flash

# 行为

  - system 消息合并为 SystemInstruction，assistant 消息映射为 model 角色
  - SDK 的 APIError 按 HTTP 状态码映射为 llm.Error
  - HealthCheck 通过 Models.Get 查询默认模型
*/
package gemini
