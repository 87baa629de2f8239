// Package factory 按名称创建 LLM Provider 实例，集中引用各 provider 子包以避免 llm 包与子包之间的循环依赖。
package factory
