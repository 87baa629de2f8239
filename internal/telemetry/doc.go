// Package telemetry 封装 OpenTelemetry Trace SDK 的初始化，为结构化生成的
// llmschema.generate / llmschema.attempt span 提供全局 TracerProvider 与 OTLP gRPC 导出。
// 遥测禁用时保持 noop 实现，不连接任何外部服务。
package telemetry
