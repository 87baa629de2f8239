// Package audit 将每一次生成尝试写入数据库（GORM），按 request_id 串联同一次调用的全部尝试。
//
// Store 实现 structured.Observer，可直接通过 structured.WithObservers 挂到 Orchestrator 上。
package audit
