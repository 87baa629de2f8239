package providers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/BaSui01/llmschema/llm"
	"github.com/stretchr/testify/assert"
)

func TestChooseModel_Priority(t *testing.T) {
	tests := []struct {
		name          string
		req           *llm.ChatRequest
		configModel   string
		fallbackModel string
		expected      string
	}{
		{"request wins", &llm.ChatRequest{Model: "request-model"}, "config-model", "fallback", "request-model"},
		{"config over fallback", &llm.ChatRequest{}, "config-model", "fallback", "config-model"},
		{"fallback when both empty", &llm.ChatRequest{}, "", "fallback", "fallback"},
		{"nil request", nil, "", "fallback", "fallback"},
		{"all empty", nil, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChooseModel(tt.req, tt.configModel, tt.fallbackModel))
		})
	}
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		msg       string
		code      llm.ErrorCode
		retryable bool
	}{
		{http.StatusUnauthorized, "", llm.ErrUnauthorized, false},
		{http.StatusForbidden, "", llm.ErrForbidden, false},
		{http.StatusTooManyRequests, "", llm.ErrRateLimited, true},
		{http.StatusBadRequest, "bad field", llm.ErrInvalidRequest, false},
		{http.StatusBadRequest, "Out of Credit", llm.ErrQuotaExceeded, false},
		{http.StatusRequestTimeout, "", llm.ErrUpstreamTimeout, true},
		{http.StatusGatewayTimeout, "", llm.ErrUpstreamTimeout, true},
		{http.StatusBadGateway, "", llm.ErrUpstreamError, true},
		{http.StatusServiceUnavailable, "", llm.ErrUpstreamError, true},
		{529, "", llm.ErrModelOverloaded, true},
		{http.StatusInternalServerError, "", llm.ErrUpstreamError, true},
		{http.StatusNotFound, "", llm.ErrUpstreamError, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status)+"/"+tt.msg, func(t *testing.T) {
			e := MapHTTPError(tt.status, tt.msg, "p")
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, tt.status, e.HTTPStatus)
			assert.Equal(t, "p", e.Provider)
		})
	}
}

func TestTransportError(t *testing.T) {
	e := TransportError(errors.New("connection refused"), "p")
	assert.Equal(t, llm.ErrUpstreamError, e.Code)
	assert.True(t, e.Retryable)
	assert.Equal(t, "p: connection refused", e.Error())
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"bad key"}}`, "bad key"},
		{"nested with type", `{"error":{"message":"bad key","type":"auth"}}`, "bad key (type: auth)"},
		{"flat", `{"error":"model not found"}`, "model not found"},
		{"plain text", "  upstream exploded \n", "upstream exploded"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadErrorMessage(strings.NewReader(tt.body)))
		})
	}
}

func TestToLLMChatResponse(t *testing.T) {
	resp := ToLLMChatResponse(OpenAICompatResponse{
		ID:    "id-1",
		Model: "m",
		Choices: []OpenAICompatChoice{
			{Index: 0, FinishReason: "stop", Message: OpenAICompatMessage{Role: "assistant", Content: "a"}},
			{Index: 1, FinishReason: "length", Message: OpenAICompatMessage{Role: "assistant", Content: "b"}},
		},
		Usage: &OpenAICompatUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
	}, "p")

	assert.Equal(t, "id-1", resp.ID)
	assert.Equal(t, "p", resp.Provider)
	assert.Len(t, resp.Choices, 2)
	assert.Equal(t, llm.RoleAssistant, resp.Choices[1].Message.Role)
	assert.Equal(t, "b", resp.Choices[1].Message.Content)
	assert.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestConvertMessagesToOpenAI(t *testing.T) {
	out := ConvertMessagesToOpenAI([]llm.Message{
		{Role: llm.RoleSystem, Content: "s"},
		{Role: llm.RoleUser, Content: "u"},
	})
	assert.Equal(t, []OpenAICompatMessage{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}}, out)
}
