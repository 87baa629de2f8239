// MockProvider 与 MockInvoker 是模型调用的测试模拟实现。
//
// 支持按顺序回放响应、错误注入与调用记录。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/llmschema/llm"
)

// --- MockProvider ---

// MockProvider 是 llm.Provider 的模拟实现。
// 响应与错误按调用顺序回放，超出部分重复最后一项。
type MockProvider struct {
	mu sync.Mutex

	name      string
	responses []string
	errs      []error
	calls     []*llm.ChatRequest
	healthErr error
}

var _ llm.Provider = (*MockProvider)(nil)

// NewMockProvider 创建新的 MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{name: "mock", responses: []string{"Mock response"}}
}

// WithName 设置 Provider 名称
func (m *MockProvider) WithName(name string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithResponses 设置按顺序返回的响应内容
func (m *MockProvider) WithResponses(responses ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	return m
}

// WithErrors 设置按顺序返回的错误，nil 表示该次调用成功
func (m *MockProvider) WithErrors(errs ...error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = errs
	return m
}

// WithHealthError 设置健康检查错误
func (m *MockProvider) WithHealthError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthErr = err
	return m
}

// Name 返回 Provider 名称
func (m *MockProvider) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// HealthCheck 返回健康状态
func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.healthErr != nil {
		return &llm.HealthStatus{Healthy: false}, m.healthErr
	}
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

// Completion 回放下一条响应或错误
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.calls)
	m.calls = append(m.calls, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.errs) > 0 {
		if err := m.errs[min(idx, len(m.errs)-1)]; err != nil {
			return nil, err
		}
	}

	content := ""
	if len(m.responses) > 0 {
		content = m.responses[min(idx, len(m.responses)-1)]
	}
	return &llm.ChatResponse{
		ID:       "mock-response-id",
		Provider: m.name,
		Model:    req.Model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: "stop",
			Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
		}},
		CreatedAt: time.Now(),
	}, nil
}

// GetCallCount 返回调用次数
func (m *MockProvider) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// GetLastCall 返回最后一次请求
func (m *MockProvider) GetLastCall() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// --- MockInvoker ---

// MockInvoker 是 llm.Invoker 的模拟实现。
type MockInvoker struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
}

var _ llm.Invoker = (*MockInvoker)(nil)

// NewMockInvoker 创建按顺序回放 replies 的 MockInvoker
func NewMockInvoker(replies ...string) *MockInvoker {
	return &MockInvoker{replies: replies}
}

// WithErrors 设置按顺序返回的错误
func (m *MockInvoker) WithErrors(errs ...error) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = errs
	return m
}

// Invoke 回放下一条响应或错误
func (m *MockInvoker) Invoke(ctx context.Context, model, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if len(m.errs) > 0 {
		if err := m.errs[min(idx, len(m.errs)-1)]; err != nil {
			return "", err
		}
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	return m.replies[min(idx, len(m.replies)-1)], nil
}

// Prompts 返回收到的全部提示词
func (m *MockInvoker) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// GetCallCount 返回调用次数
func (m *MockInvoker) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
