/*
Package testutil 提供 llmschema 测试的共享工具。

# 核心能力

  - 上下文辅助: TestContext / CancelledContext
  - 原始输出样例: FencedJSON / BareFence / Prose

# 子包

  - testutil/mocks: MockProvider（llm.Provider）与 MockInvoker（llm.Invoker），
    按顺序回放响应并支持错误注入
*/
package testutil
