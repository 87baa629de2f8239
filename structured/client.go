package structured

import (
	"context"
	"errors"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/schema"
)

// Client binds an invoker and a schema at construction time.
// It is safe for concurrent use.
type Client struct {
	invoker      llm.Invoker
	def          *schema.Definition
	orchestrator *Orchestrator
}

// NewClient normalizes src and returns a Client that generates responses
// conforming to it.
func NewClient(invoker llm.Invoker, src any, opts ...Option) (*Client, error) {
	if invoker == nil {
		return nil, errors.New("invoker cannot be nil")
	}
	def, err := schema.Normalize(src)
	if err != nil {
		return nil, err
	}
	return &Client{
		invoker:      invoker,
		def:          def,
		orchestrator: NewOrchestrator(opts...),
	}, nil
}

// Schema returns a copy of the bound definition.
func (c *Client) Schema() *schema.Definition {
	return c.def.Clone()
}

// GenerateResponse runs with the configured default retry count.
func (c *Client) GenerateResponse(ctx context.Context, model, prompt string) (Response, error) {
	return c.GenerateResponseWithRetries(ctx, model, prompt, c.orchestrator.defaultMaxRetries)
}

// GenerateResponseWithRetries runs with an explicit retry count.
func (c *Client) GenerateResponseWithRetries(ctx context.Context, model, prompt string, maxRetries int) (Response, error) {
	return c.orchestrator.Run(ctx, c.invoker, c.def, model, prompt, maxRetries)
}

// GenerateReport is GenerateResponseWithRetries returning the full report.
func (c *Client) GenerateReport(ctx context.Context, model, prompt string, maxRetries int) (*Report, error) {
	return c.orchestrator.RunDetailed(ctx, c.invoker, c.def, model, prompt, maxRetries)
}
