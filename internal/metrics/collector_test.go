package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/structured"
	"github.com/BaSui01/llmschema/types"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	c := NewCollector(nextTestNamespace(), nil)
	assert.NotNil(t, c.attemptsTotal)
	assert.NotNil(t, c.attemptDuration)
	assert.NotNil(t, c.runsTotal)
}

func TestCollector_OnAttempt(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())
	ctx := context.Background()

	c.OnAttempt(ctx, structured.AttemptRecord{
		Model: "m", Outcome: structured.OutcomeRetryable,
		Err: &structured.JSONDecodeError{Message: "bad"}, Duration: 200 * time.Millisecond,
	})
	c.OnAttempt(ctx, structured.AttemptRecord{
		Model: "m", Outcome: structured.OutcomeSuccess, Duration: 100 * time.Millisecond,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("m", "retryable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("m", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptErrors.WithLabelValues("m", "json_decode")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.attemptDuration))
}

func TestCollector_AsOrchestratorObserver(t *testing.T) {
	c := NewCollector(nextTestNamespace(), nil)
	replies := []string{"nope", `{"text": "Paris"}`}
	var calls int
	invoker := llm.InvokerFunc(func(ctx context.Context, model, prompt string) (string, error) {
		r := replies[calls]
		calls++
		return r, nil
	})

	client, err := structured.NewClient(invoker, map[string]any{
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
		"required":   []any{"text"},
	}, structured.WithObservers(c))
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "m", "capital?")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("m", "retryable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("m", "success")))
}

func TestCollector_RecordRun(t *testing.T) {
	c := NewCollector(nextTestNamespace(), nil)

	c.RecordRun("m", 1, time.Second, nil)
	c.RecordRun("m", 3, 2*time.Second, types.NewError(types.ErrCodeRetryBudgetExhausted, "x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("m", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("m", "retry_budget_exhausted")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.runAttempts))
}

func TestErrorKind(t *testing.T) {
	exhausted := types.NewError(types.ErrCodeRetryBudgetExhausted, "x").
		WithCause(&structured.JSONDecodeError{Message: "bad"})

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"decode", &structured.JSONDecodeError{}, "json_decode"},
		{"validation", &structured.SchemaValidationError{}, "schema_validation"},
		{"exhausted wins over cause", exhausted, "retry_budget_exhausted"},
		{"no schema", types.ErrNoSchemaSet, "no_schema"},
		{"canceled", fmt.Errorf("wrap: %w", context.Canceled), "canceled"},
		{"provider", &llm.Error{Code: llm.ErrRateLimited}, "provider"},
		{"other", errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestHandler(t *testing.T) {
	ns := nextTestNamespace()
	c := NewCollector(ns, nil)
	c.RecordRun("m", 1, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), ns+"_runs_total")
}
