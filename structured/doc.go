/*
Package structured 把不可靠的模型文本输出转换为符合 Schema 的结构化结果。

# 概述

一次生成调用的数据流：Schema → 提示词构建 → 编排循环 → Invoker →
JSON 提取 → 字段校验 → 调用方。提示词只构建一次，重试不反馈上次失败。

# 主要类型

  - PromptBuilder / BuildPrompt：每个字段一条指令，附加严格 JSON 要求
  - Extract：支持代码围栏（可带或不带语言标签）与直接解析
  - Validator：必填字段缺失（nil 或仅空白字符串）全部收集后统一报错，结果键集与 Schema 完全一致
  - Orchestrator：尝试循环，每次尝试产生 Outcome{Success | Retryable | Fatal}
  - Client：构造时绑定 Invoker 与 Schema，无全局状态

# 错误语义

  - Provider 错误：致命，原样返回
  - JSONDecodeError：可重试
  - SchemaValidationError：默认致命，WithRetryOnValidationError(true) 时可重试
  - 预算耗尽：types.ErrRetryBudgetExhausted

# 尝试次数

AttemptBoundInclusive（默认）最多 maxRetries+1 次调用；
AttemptBoundExclusive 恰好 maxRetries 次（非正数按 1 次）。
*/
package structured
