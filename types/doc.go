/*
Package types 提供 llmschema 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 schema、structured、llm
等上层模块提供统一的错误码与 Context 传播工具，以避免循环依赖。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 Retryable 标记与尝试次数
  - ErrNoSchemaSet / ErrInvalidSchemaFormat / ErrRetryBudgetExhausted：按错误码匹配的哨兵错误

# 主要能力

  - 错误工具链：IsRetryable / GetErrorCode / IsErrorCode，兼容 errors.Is / errors.As
  - Context 传播：WithRequestID / WithAttempt
*/
package types
