package retry

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/llm"
)

// Provider 为 llm.Provider 增加瞬时错误重试。
type Provider struct {
	inner  llm.Provider
	policy Policy
	logger *zap.Logger
}

var _ llm.Provider = (*Provider)(nil)

// Wrap 创建带重试的 Provider。
func Wrap(inner llm.Provider, policy Policy, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		inner:  inner,
		policy: policy,
		logger: logger.With(zap.String("component", "retry_provider"), zap.String("provider", inner.Name())),
	}
}

func (p *Provider) Name() string { return p.inner.Name() }

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}

// Completion 调用内部 Provider，瞬时错误按策略重试。
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return Do(ctx, p.policy, p.logger, func(ctx context.Context) (*llm.ChatResponse, error) {
		return p.inner.Completion(ctx, req)
	})
}
