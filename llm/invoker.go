package llm

import (
	"context"
)

// Invoker is the only capability the generation core needs from a backend:
// send one prompt to a model and get the raw text back.
type Invoker interface {
	Invoke(ctx context.Context, model, prompt string) (string, error)
}

// InvokerFunc adapts a plain function to Invoker.
type InvokerFunc func(ctx context.Context, model, prompt string) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// ProviderInvoker sends each prompt as a single user message to a chat
// Provider and returns the content of the first choice.
type ProviderInvoker struct {
	provider    Provider
	maxTokens   int
	temperature float32
}

// InvokerOption configures a ProviderInvoker.
type InvokerOption func(*ProviderInvoker)

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) InvokerOption {
	return func(p *ProviderInvoker) { p.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) InvokerOption {
	return func(p *ProviderInvoker) { p.temperature = t }
}

// NewProviderInvoker adapts a chat Provider to Invoker.
func NewProviderInvoker(provider Provider, opts ...InvokerOption) *ProviderInvoker {
	p := &ProviderInvoker{provider: provider}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Invoke implements Invoker. Provider errors are returned as is.
func (p *ProviderInvoker) Invoke(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.provider.Completion(ctx, &ChatRequest{
		Model:       model,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &Error{
			Code:     ErrEmptyResponse,
			Message:  "no response choices returned",
			Provider: p.provider.Name(),
		}
	}
	return resp.Choices[0].Message.Content, nil
}

// Provider returns the wrapped provider.
func (p *ProviderInvoker) Provider() Provider {
	return p.provider
}
