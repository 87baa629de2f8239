package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/llm"
)

// Policy 定义传输层重试策略。
// 这一层只处理网络/上游瞬时故障，与结构化生成的尝试预算相互独立。
type Policy struct {
	MaxRetries   int           `yaml:"max_retries" env:"MAX_RETRIES"`     // 最大重试次数（0 表示不重试）
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"` // 初始延迟
	MaxDelay     time.Duration `yaml:"max_delay" env:"MAX_DELAY"`         // 最大延迟
	Multiplier   float64       `yaml:"multiplier" env:"MULTIPLIER"`       // 指数退避倍数
	Jitter       bool          `yaml:"jitter" env:"JITTER"`               // ±25% 随机抖动
}

// DefaultPolicy 返回默认策略：最多重试 2 次，500ms 起步。
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// normalized 修正非法取值。
func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 500 * time.Millisecond
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = 2.0
	}
	return p
}

// Delay 返回第 attempt 次重试（从 1 开始）前的等待时间。
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter {
		delay += (rand.Float64()*2 - 1) * delay * 0.25
	}
	if delay < float64(p.InitialDelay) {
		delay = float64(p.InitialDelay)
	}
	return time.Duration(delay)
}

// IsTransient 判断错误是否值得在传输层重试：仅 Retryable 的 *llm.Error。
func IsTransient(err error) bool {
	var llmErr *llm.Error
	return errors.As(err, &llmErr) && llmErr.Retryable
}

// Do 执行 fn，遇到瞬时错误时按策略退避重试。
// 最终失败时原样返回最后一次的错误，不做包装。
func Do[T any](ctx context.Context, p Policy, logger *zap.Logger, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		result T
		err    error
	)
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.Delay(attempt)
			logger.Debug("retrying provider call",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", p.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(err))

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				var zero T
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, err = fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("provider call recovered", zap.Int("attempt", attempt))
			}
			return result, nil
		}
		if !IsTransient(err) {
			return result, err
		}
	}

	logger.Warn("provider retries exhausted", zap.Int("attempts", p.MaxRetries+1), zap.Error(err))
	return result, err
}
