package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/structured"
	"github.com/BaSui01/llmschema/types"
)

// Collector 指标收集器，同时实现 structured.Observer
type Collector struct {
	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	attemptErrors   *prometheus.CounterVec

	runsTotal   *prometheus.CounterVec
	runAttempts *prometheus.HistogramVec
	runDuration *prometheus.HistogramVec

	logger *zap.Logger
}

var _ structured.Observer = (*Collector)(nil)

// NewCollector 创建指标收集器，指标注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Total number of generation attempts by outcome",
		},
		[]string{"model", "outcome"},
	)

	c.attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Duration of one provider round-trip including extraction and validation",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	c.attemptErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempt_errors_total",
			Help:      "Failed attempts by error kind",
		},
		[]string{"model", "kind"},
	)

	c.runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of generate calls by final status",
		},
		[]string{"model", "status"},
	)

	c.runAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_attempts",
			Help:      "Attempts used per generate call",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"model"},
	)

	c.runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a generate call across all attempts",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)

	return c
}

// OnAttempt 记录一次尝试
func (c *Collector) OnAttempt(_ context.Context, rec structured.AttemptRecord) {
	c.attemptsTotal.WithLabelValues(rec.Model, rec.Outcome.String()).Inc()
	c.attemptDuration.WithLabelValues(rec.Model).Observe(rec.Duration.Seconds())
	if rec.Err != nil {
		c.attemptErrors.WithLabelValues(rec.Model, ErrorKind(rec.Err)).Inc()
	}
}

// RecordRun 记录一次完整调用的结果
func (c *Collector) RecordRun(model string, attempts int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = ErrorKind(err)
	}
	c.runsTotal.WithLabelValues(model, status).Inc()
	c.runAttempts.WithLabelValues(model).Observe(float64(attempts))
	c.runDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// ErrorKind 将错误归类为低基数的 label 值
func ErrorKind(err error) string {
	var llmErr *llm.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, types.ErrRetryBudgetExhausted):
		// 先于 json_decode 判断：耗尽错误的 cause 链上带有解码错误
		return "retry_budget_exhausted"
	case errors.Is(err, structured.ErrJSONDecode):
		return "json_decode"
	case errors.Is(err, structured.ErrSchemaValidation):
		return "schema_validation"
	case errors.Is(err, types.ErrNoSchemaSet):
		return "no_schema"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &llmErr):
		return "provider"
	default:
		return "other"
	}
}

// Handler 返回默认 Registry 的 /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
