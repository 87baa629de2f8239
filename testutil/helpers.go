package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// 常见的模型原始输出样例
const (
	// FencedJSON 带 json 标签的代码围栏与前后叙述
	FencedJSON = "Sure!\n```json\n{\"text\":\"ok\"}\n```\nThanks"
	// BareFence 不带语言标签的代码围栏
	BareFence = "```\n{\"text\":\"ok\"}\n```"
	// Prose 完全不含 JSON 的回复
	Prose = "I'm sorry, I can only answer in plain text."
)
