package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/testutil"
	"github.com/BaSui01/llmschema/testutil/mocks"
)

func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

var transient = &llm.Error{Code: llm.ErrUpstreamError, Message: "bad gateway", HTTPStatus: 502, Retryable: true}

func TestDo_RetryAndSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), zap.NewNop(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, transient
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDo_NonTransientStopsImmediately(t *testing.T) {
	permanent := &llm.Error{Code: llm.ErrUnauthorized, Message: "bad key", HTTPStatus: 401}
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), nil, func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)

	plain := errors.New("plain")
	calls = 0
	_, err = Do(context.Background(), fastPolicy(3), nil, func(context.Context) (int, error) {
		calls++
		return 0, plain
	})
	assert.Same(t, plain, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedReturnsLastErrorUnwrapped(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2), nil, func(context.Context) (string, error) {
		calls++
		return "", transient
	})
	assert.Same(t, transient, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := fastPolicy(5)
	policy.InitialDelay = time.Hour
	policy.MaxDelay = time.Hour

	_, err := Do(ctx, policy, nil, func(context.Context) (int, error) {
		cancel()
		return 0, transient
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2.0}
	assert.Equal(t, 10*time.Millisecond, p.Delay(1))
	assert.Equal(t, 20*time.Millisecond, p.Delay(2))
	assert.Equal(t, 40*time.Millisecond, p.Delay(3))
	assert.Equal(t, 50*time.Millisecond, p.Delay(4))

	p.Jitter = true
	for i := 1; i <= 5; i++ {
		d := p.Delay(i)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, time.Duration(float64(50*time.Millisecond)*1.25))
	}
}

func TestProvider_Completion(t *testing.T) {
	inner := mocks.NewMockProvider().
		WithErrors(transient, nil).
		WithResponses(`{"ok": true}`)
	p := Wrap(inner, fastPolicy(2), zap.NewNop())

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, resp.Choices[0].Message.Content)
	assert.Equal(t, 2, inner.GetCallCount())
	assert.Equal(t, "mock", p.Name())

	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestProvider_Completion_CancelledContext(t *testing.T) {
	inner := mocks.NewMockProvider().WithResponses("unused")
	p := Wrap(inner, fastPolicy(3), nil)

	_, err := p.Completion(testutil.CancelledContext(), &llm.ChatRequest{Model: "m"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.GetCallCount())
}
