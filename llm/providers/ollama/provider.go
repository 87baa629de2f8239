package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/llmschema/internal/tlsutil"
	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/llm/providers"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "deepseek-r1"
)

type chatRequest struct {
	Model    string                          `json:"model"`
	Messages []providers.OpenAICompatMessage `json:"messages"`
	Stream   bool                            `json:"stream"`
	Options  *chatOptions                    `json:"options,omitempty"`
}

type chatOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model           string                        `json:"model"`
	CreatedAt       time.Time                     `json:"created_at"`
	Message         providers.OpenAICompatMessage `json:"message"`
	Done            bool                          `json:"done"`
	DoneReason      string                        `json:"done_reason,omitempty"`
	PromptEvalCount int                           `json:"prompt_eval_count,omitempty"`
	EvalCount       int                           `json:"eval_count,omitempty"`
}

// OllamaProvider 实现本地 Ollama 的 LLM Provider
type OllamaProvider struct {
	cfg    providers.OllamaConfig
	client *http.Client
	logger *zap.Logger
}

// NewOllamaProvider 创建 Ollama Provider
func NewOllamaProvider(cfg providers.OllamaConfig, logger *zap.Logger) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaProvider{
		cfg:    cfg,
		client: tlsutil.HTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("provider", "ollama")),
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) endpoint(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}

// HealthCheck 通过 /api/tags 检查服务是否在线
func (p *OllamaProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint("/api/tags"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, providers.TransportError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// Completion 调用 /api/chat，stream 固定为 false
func (p *OllamaProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if req == nil {
		return nil, &llm.Error{
			Code: llm.ErrInvalidRequest, Message: "nil chat request",
			HTTPStatus: http.StatusBadRequest, Provider: p.Name(),
		}
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	model := providers.ChooseModel(req, p.cfg.Model, defaultModel)
	body := chatRequest{
		Model:    model,
		Messages: providers.ConvertMessagesToOpenAI(req.Messages),
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.Options = &chatOptions{NumPredict: req.MaxTokens, Temperature: req.Temperature}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("/api/chat"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: "decode chat response: " + err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}

	out := &llm.ChatResponse{
		Provider:  p.Name(),
		Model:     cr.Model,
		CreatedAt: cr.CreatedAt,
		Choices: []llm.ChatChoice{{
			FinishReason: cr.DoneReason,
			Message:      llm.Message{Role: llm.RoleAssistant, Content: cr.Message.Content},
		}},
		Usage: llm.ChatUsage{
			PromptTokens:     cr.PromptEvalCount,
			CompletionTokens: cr.EvalCount,
			TotalTokens:      cr.PromptEvalCount + cr.EvalCount,
		},
	}
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}
