package structured

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/schema"
	"github.com/BaSui01/llmschema/types"
)

const instrumentationName = "github.com/BaSui01/llmschema/structured"

// DefaultMaxRetries is the retry count used when the caller gives none.
const DefaultMaxRetries = 2

// AttemptBound selects how maxRetries translates into provider calls.
type AttemptBound int

const (
	// AttemptBoundInclusive makes up to maxRetries+1 calls.
	AttemptBoundInclusive AttemptBound = iota
	// AttemptBoundExclusive makes up to maxRetries calls, at least one.
	AttemptBoundExclusive
)

// Attempts returns the attempt budget for maxRetries.
func (b AttemptBound) Attempts(maxRetries int) int {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if b == AttemptBoundExclusive {
		return max(maxRetries, 1)
	}
	return maxRetries + 1
}

func (b AttemptBound) String() string {
	if b == AttemptBoundExclusive {
		return "exclusive"
	}
	return "inclusive"
}

// ParseAttemptBound parses "inclusive" or "exclusive". The empty string
// selects the inclusive bound.
func ParseAttemptBound(s string) (AttemptBound, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inclusive":
		return AttemptBoundInclusive, nil
	case "exclusive":
		return AttemptBoundExclusive, nil
	default:
		return AttemptBoundInclusive, fmt.Errorf("unknown attempt bound %q", s)
	}
}

// AttemptRecord describes one provider round-trip.
type AttemptRecord struct {
	RequestID string
	// Attempt is 1-based.
	Attempt  int
	Model    string
	Outcome  OutcomeKind
	Err      error
	Raw      string
	Duration time.Duration
}

// Observer receives every attempt record of every run.
type Observer interface {
	OnAttempt(ctx context.Context, rec AttemptRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, rec AttemptRecord)

// OnAttempt calls f.
func (f ObserverFunc) OnAttempt(ctx context.Context, rec AttemptRecord) { f(ctx, rec) }

// Report is the full account of one run.
type Report struct {
	RequestID string
	Prompt    string
	Response  Response
	Attempts  []AttemptRecord
}

// Orchestrator drives the build-invoke-extract-validate loop.
type Orchestrator struct {
	logger            *zap.Logger
	bound             AttemptBound
	retryOnValidation bool
	validator         *Validator
	observers         []Observer
	tracer            trace.Tracer
	newRequestID      func() string
	defaultMaxRetries int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAttemptBound selects the inclusive or exclusive attempt budget.
func WithAttemptBound(b AttemptBound) Option {
	return func(o *Orchestrator) { o.bound = b }
}

// WithRetryOnValidationError makes schema validation failures consume an
// attempt instead of ending the run.
func WithRetryOnValidationError(enabled bool) Option {
	return func(o *Orchestrator) { o.retryOnValidation = enabled }
}

// WithValidator replaces the response validator.
func WithValidator(v *Validator) Option {
	return func(o *Orchestrator) {
		if v != nil {
			o.validator = v
		}
	}
}

// WithObservers appends attempt observers.
func WithObservers(obs ...Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs...) }
}

// WithDefaultMaxRetries sets the retry count used by Client.GenerateResponse.
func WithDefaultMaxRetries(n int) Option {
	return func(o *Orchestrator) { o.defaultMaxRetries = n }
}

// WithTracer sets the tracer used for run and attempt spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// NewOrchestrator creates an Orchestrator. Defaults: inclusive bound,
// validation failures fatal, no type checking, global otel tracer.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:       zap.NewNop(),
		bound:        AttemptBoundInclusive,
		validator:    defaultValidator,
		tracer:       otel.Tracer(instrumentationName),
		newRequestID: uuid.NewString,

		defaultMaxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("component", "orchestrator"))
	return o
}

// Run generates a response for userPrompt that satisfies def.
//
// Provider errors end the run and are returned unchanged. Malformed JSON
// consumes an attempt. Schema validation failures end the run unless
// WithRetryOnValidationError is set. When every attempt fails with a
// retryable error the result is an error matching types.ErrRetryBudgetExhausted.
func (o *Orchestrator) Run(ctx context.Context, invoker llm.Invoker, def *schema.Definition, model, userPrompt string, maxRetries int) (Response, error) {
	report, err := o.RunDetailed(ctx, invoker, def, model, userPrompt, maxRetries)
	if err != nil {
		return nil, err
	}
	return report.Response, nil
}

// RunDetailed is Run but also returns every attempt record. The report is
// non-nil even when err is not.
func (o *Orchestrator) RunDetailed(ctx context.Context, invoker llm.Invoker, def *schema.Definition, model, userPrompt string, maxRetries int) (*Report, error) {
	requestID := o.newRequestID()
	report := &Report{RequestID: requestID}
	if def == nil {
		return report, types.ErrNoSchemaSet
	}

	report.Prompt = BuildPrompt(def, userPrompt)
	budget := o.bound.Attempts(maxRetries)

	ctx = types.WithRequestID(ctx, requestID)
	ctx, span := o.tracer.Start(ctx, "llmschema.generate", trace.WithAttributes(
		attribute.String("llmschema.request_id", requestID),
		attribute.String("llm.model", model),
		attribute.Int("llmschema.max_attempts", budget),
	))
	defer span.End()

	logger := o.logger.With(zap.String("request_id", requestID), zap.String("model", model))

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "context done")
			return report, err
		}

		logger.Info("sending request", zap.Int("attempt", attempt), zap.Int("max_attempts", budget))
		rec, outcome := o.attempt(types.WithAttempt(ctx, attempt), invoker, def, model, report.Prompt)
		rec.RequestID = requestID
		rec.Attempt = attempt
		report.Attempts = append(report.Attempts, rec)
		o.notify(ctx, rec)

		switch outcome.Kind {
		case OutcomeSuccess:
			logger.Info("response validated", zap.Int("attempt", attempt))
			report.Response = outcome.Response
			span.SetAttributes(attribute.Int("llmschema.attempts", attempt))
			span.SetStatus(codes.Ok, "")
			return report, nil

		case OutcomeRetryable:
			lastErr = outcome.Err
			if isDecodeError(outcome.Err) {
				logger.Warn("invalid JSON response, retrying",
					zap.Int("attempt", attempt), zap.Int("max_attempts", budget), zap.Error(outcome.Err))
			} else {
				logger.Warn("schema validation failed, retrying",
					zap.Int("attempt", attempt), zap.Int("max_attempts", budget), zap.Error(outcome.Err))
			}

		case OutcomeFatal:
			var verr *SchemaValidationError
			if errors.As(outcome.Err, &verr) {
				logger.Error("schema validation failed", zap.Strings("errors", verr.Errors))
			} else {
				logger.Error("provider call failed", zap.Error(outcome.Err))
			}
			span.RecordError(outcome.Err)
			span.SetStatus(codes.Error, "fatal attempt")
			return report, outcome.Err
		}
	}

	logger.Warn("retry budget exhausted", zap.Int("attempts", budget))
	err := types.NewError(types.ErrCodeRetryBudgetExhausted, "failed to obtain a valid JSON response after retries").
		WithAttempts(budget).
		WithCause(lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, "retry budget exhausted")
	return report, err
}

func (o *Orchestrator) attempt(ctx context.Context, invoker llm.Invoker, def *schema.Definition, model, prompt string) (AttemptRecord, Outcome) {
	n, _ := types.Attempt(ctx)
	ctx, span := o.tracer.Start(ctx, "llmschema.attempt", trace.WithAttributes(
		attribute.Int("llmschema.attempt", n),
	))
	defer span.End()

	start := time.Now()
	rec := AttemptRecord{Model: model}
	outcome := o.evaluate(ctx, invoker, def, model, prompt, &rec)
	rec.Duration = time.Since(start)
	rec.Outcome = outcome.Kind
	rec.Err = outcome.Err

	span.SetAttributes(attribute.String("llmschema.outcome", outcome.Kind.String()))
	if outcome.Err != nil {
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, outcome.Kind.String())
	}
	return rec, outcome
}

func (o *Orchestrator) evaluate(ctx context.Context, invoker llm.Invoker, def *schema.Definition, model, prompt string, rec *AttemptRecord) Outcome {
	raw, err := invoker.Invoke(ctx, model, prompt)
	if err != nil {
		return fatal(err)
	}
	rec.Raw = raw

	candidate, err := Extract(raw)
	if err != nil {
		return retryable(err)
	}

	resp, err := o.validator.ValidateDefinition(candidate, def)
	if err != nil {
		if o.retryOnValidation {
			return retryable(err)
		}
		return fatal(err)
	}
	return success(resp)
}

func (o *Orchestrator) notify(ctx context.Context, rec AttemptRecord) {
	for _, obs := range o.observers {
		obs.OnAttempt(ctx, rec)
	}
}

func isDecodeError(err error) bool {
	var decodeErr *JSONDecodeError
	return errors.As(err, &decodeErr)
}
