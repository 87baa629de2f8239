/*
包 metrics 提供基于 Prometheus 的结构化生成指标采集。

# 概述

Collector 实现 structured.Observer，挂到 Orchestrator 上即可记录每一次
尝试；CLI 在每次调用结束后调用 RecordRun 记录整体结果。指标通过 promauto
注册到默认 Registry，按 namespace 隔离。

# 指标

  - attempts_total{model,outcome}：按结果（success/retryable/fatal）计数
  - attempt_duration_seconds{model}：单次尝试耗时
  - attempt_errors_total{model,kind}：失败尝试按错误类型计数
  - runs_total{model,status}、run_attempts{model}、run_duration_seconds{model}
*/
package metrics
