// Package llmschema provides a top-level convenience entry point for
// schema-constrained generation with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/llmschema"
//
//	_ = llmschema.SetSchema(reflect.TypeOf(Answer{}))
//	resp, err := llmschema.GenerateResponse(ctx, invoker, "mistral", "What is 2+2?")
//
// The process-wide schema is kept for "set once, call many" use. Code that
// needs several schemas should build a [structured.Client] per schema.
package llmschema

import (
	"context"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/schema"
	"github.com/BaSui01/llmschema/structured"
)

var (
	defaultRegistry     = schema.NewRegistry()
	defaultOrchestrator = structured.NewOrchestrator()
)

// SetSchema sets the process-wide schema. Accepted sources are listed on
// [schema.Normalize].
func SetSchema(src any) error {
	return defaultRegistry.Set(src)
}

// GetSchema returns the process-wide schema or types.ErrNoSchemaSet.
func GetSchema() (*schema.Definition, error) {
	return defaultRegistry.Get()
}

// GenerateResponse runs one generation against the process-wide schema.
// maxRetries is optional and defaults to [structured.DefaultMaxRetries];
// values past the first are ignored.
func GenerateResponse(ctx context.Context, invoker llm.Invoker, model, prompt string, maxRetries ...int) (structured.Response, error) {
	def, err := defaultRegistry.Get()
	if err != nil {
		return nil, err
	}
	retries := structured.DefaultMaxRetries
	if len(maxRetries) > 0 {
		retries = maxRetries[0]
	}
	return defaultOrchestrator.Run(ctx, invoker, def, model, prompt, retries)
}
