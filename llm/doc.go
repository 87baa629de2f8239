/*
包 llm 提供模型服务接入层：Provider 抽象、统一错误与 Invoker 能力。

# 概述

结构化生成核心只把模型调用视为 invoke(model, prompt) -> text。
本包定义这一能力（[Invoker]），并把聊天式 [Provider] 适配为 Invoker，
具体服务商实现位于 llm/providers 下的子包。

# 核心接口

  - [Provider]：Completion / HealthCheck / Name
  - [Invoker]：Invoke(ctx, model, prompt)，[InvokerFunc] 为函数适配器

# 核心类型

  - [ChatRequest] / [ChatResponse]：聊天请求与响应
  - [Error]：带错误码、HTTP 状态与可重试标记的 Provider 错误
  - [ProviderInvoker]：取第一个 choice 的内容；没有 choice 时返回 LLM_EMPTY_RESPONSE
*/
package llm
