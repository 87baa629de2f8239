package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/llmschema/internal/tlsutil"
	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/llm/providers"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// GeminiProvider 通过官方 genai SDK 实现 Google Gemini 的 LLM Provider
type GeminiProvider struct {
	cfg    providers.GeminiConfig
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiProvider 创建 Gemini Provider。APIKey 为空时由 SDK 读取 GOOGLE_API_KEY / GEMINI_API_KEY。
func NewGeminiProvider(ctx context.Context, cfg providers.GeminiConfig, logger *zap.Logger) (*GeminiProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: tlsutil.HTTPClient(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrProviderUnavailable,
			Message:    fmt.Sprintf("create genai client: %v", err),
			HTTPStatus: http.StatusServiceUnavailable,
			Provider:   "gemini",
		}
	}
	return &GeminiProvider{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("provider", "gemini")),
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) model(req *llm.ChatRequest) string {
	return providers.ChooseModel(req, p.cfg.Model, defaultModel)
}

// HealthCheck 查询默认模型的元数据
func (p *GeminiProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	_, err := p.client.Models.Get(ctx, p.model(nil), nil)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, p.mapError(err)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// Completion 调用 Models.GenerateContent。system 消息合并为 SystemInstruction，assistant 映射为 model 角色。
func (p *GeminiProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
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

	model := p.model(req)
	system, contents := convertMessages(req.Messages)
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, p.mapError(err)
	}
	return toChatResponse(resp, p.Name(), model), nil
}

func convertMessages(msgs []llm.Message) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser), contents
}

func toChatResponse(resp *genai.GenerateContentResponse, provider, model string) *llm.ChatResponse {
	out := &llm.ChatResponse{
		ID:       resp.ResponseID,
		Provider: provider,
		Model:    model,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if len(resp.Candidates) > 0 {
		out.Choices = []llm.ChatChoice{{
			FinishReason: string(resp.Candidates[0].FinishReason),
			Message:      llm.Message{Role: llm.RoleAssistant, Content: resp.Text()},
		}}
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.ChatUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out
}

// mapError 将 SDK 错误转换为 llm.Error；非 API 错误按网络错误处理
func (p *GeminiProvider) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return providers.MapHTTPError(apiErr.Code, apiErr.Message, p.Name())
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return providers.MapHTTPError(apiErrPtr.Code, apiErrPtr.Message, p.Name())
	}
	return providers.TransportError(err, p.Name())
}
