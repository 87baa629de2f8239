package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/llmschema/config"
	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/schema"
	"github.com/BaSui01/llmschema/schemastore"
	"github.com/BaSui01/llmschema/testutil/mocks"
)

const answerSchema = `{
  "title": "Answer",
  "properties": {
    "text": {"type": "string", "description": "The answer"},
    "confidence": {"type": "number", "description": "Confidence between 0 and 1"}
  },
  "required": ["text"]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testApp(t *testing.T, invoker llm.Invoker) *app {
	t.Helper()
	return &app{cfg: config.DefaultConfig(), logger: zap.NewNop(), invoker: invoker}
}

func TestReadPrompts(t *testing.T) {
	prompts, err := readPrompts(strings.NewReader("first\n\n  second  \n\t\nthird"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, prompts)
}

func TestResolveSchema(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()

	jsonPath := writeFile(t, "answer.json", answerSchema)
	yamlPath := writeFile(t, "answer.yaml", "properties:\n  text:\n    type: string\nrequired: [text]\n")

	tests := []struct {
		name    string
		flags   commonFlags
		want    []string
		wantErr bool
	}{
		{name: "json file", flags: commonFlags{schemaPath: jsonPath}, want: []string{"text", "confidence"}},
		{name: "yaml file", flags: commonFlags{schemaPath: yamlPath}, want: []string{"text"}},
		{name: "missing file", flags: commonFlags{schemaPath: filepath.Join(t.TempDir(), "nope.json")}, wantErr: true},
		{name: "neither", flags: commonFlags{}, wantErr: true},
		{name: "both", flags: commonFlags{schemaPath: jsonPath, schemaName: "answer"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := resolveSchema(ctx, tt.flags, cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Names())
		})
	}
}

func TestOrchestratorOptions_InvalidBound(t *testing.T) {
	a := testApp(t, mocks.NewMockInvoker())
	a.cfg.Generation.AttemptBound = "sometimes"
	_, err := a.orchestratorOptions()
	assert.Error(t, err)
}

func TestGenerator_RetriesMalformedJSON(t *testing.T) {
	def, err := schema.Normalize(answerSchema)
	require.NoError(t, err)

	inv := mocks.NewMockInvoker("not json", "```json\n{\"text\": \"4\", \"confidence\": 0.9}\n```")
	a := testApp(t, inv)
	g, err := a.generator(def, commonFlags{model: "mistral", retries: -1})
	require.NoError(t, err)

	report, err := g.run(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", report.Response["text"])
	assert.Len(t, report.Attempts, 2)
	assert.Equal(t, 2, inv.GetCallCount())
}

func TestProcessBatch_KeepsInputOrder(t *testing.T) {
	def, err := schema.Normalize(answerSchema)
	require.NoError(t, err)

	var calls atomic.Int32
	inv := llm.InvokerFunc(func(_ context.Context, _, prompt string) (string, error) {
		calls.Add(1)
		if strings.Contains(prompt, "fail") {
			return `{"confidence": 1}`, nil
		}
		return `{"text": "ok"}`, nil
	})
	g, err := testApp(t, inv).generator(def, commonFlags{retries: 0})
	require.NoError(t, err)

	prompts := []string{"a", "b", "fail here", "d", "e"}
	results := processBatch(context.Background(), g, prompts, 2)

	require.Len(t, results, len(prompts))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.NotEmpty(t, r.RequestID)
		if i == 2 {
			assert.NotEmpty(t, r.Error)
			assert.Nil(t, r.Response)
			continue
		}
		assert.Empty(t, r.Error)
		assert.Equal(t, "ok", r.Response["text"])
	}
	assert.Equal(t, int32(len(prompts)), calls.Load())
}

func TestNewResult_WithAttempts(t *testing.T) {
	def, err := schema.Normalize(answerSchema)
	require.NoError(t, err)
	g, err := testApp(t, mocks.NewMockInvoker("nope", `{"text": "x"}`)).generator(def, commonFlags{retries: 3})
	require.NoError(t, err)

	report, err := g.run(context.Background(), "p")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, newResult(0, report, nil, true), false))

	var decoded struct {
		Attempts []attemptView `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Attempts, 2)
	assert.Equal(t, 1, decoded.Attempts[0].Attempt)
	assert.Equal(t, "retryable", decoded.Attempts[0].Outcome)
	assert.NotEmpty(t, decoded.Attempts[0].Error)
	assert.Equal(t, "success", decoded.Attempts[1].Outcome)
}

func TestNewInvoker_OpenAICompatible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		_, _ = w.Write([]byte(`{"model":"local","choices":[{"message":{"role":"assistant","content":"{\"text\": \"hi\"}"}}]}`))
	}))
	defer srv.Close()

	cfg := config.DefaultLLMConfig()
	cfg.Provider = "local"
	cfg.BaseURL = srv.URL
	cfg.Model = "local"

	inv, err := newInvoker(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	out, err := inv.Invoke(context.Background(), "local", "say hi")
	require.NoError(t, err)
	assert.Equal(t, `{"text": "hi"}`, out)
}

func TestNewInvoker_UnknownProvider(t *testing.T) {
	cfg := config.DefaultLLMConfig()
	cfg.Provider = "nowhere"
	_, err := newInvoker(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	ctx := context.Background()
	store := schemastore.NewMemoryStore()
	path := writeFile(t, "answer.json", answerSchema)

	var out bytes.Buffer
	require.NoError(t, schemaCommand(ctx, store, []string{"put", "answer", path}, &out))
	assert.Equal(t, "stored answer\n", out.String())

	out.Reset()
	require.NoError(t, schemaCommand(ctx, store, []string{"get", "answer"}, &out))
	doc, err := schema.ParseDocument(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"text"}, doc.Required)

	out.Reset()
	require.NoError(t, schemaCommand(ctx, store, []string{"list"}, &out))
	assert.Equal(t, "answer\n", out.String())

	require.NoError(t, schemaCommand(ctx, store, []string{"delete", "answer"}, &out))
	assert.ErrorIs(t, schemaCommand(ctx, store, []string{"get", "answer"}, &out), schemastore.ErrNotFound)

	assert.Error(t, schemaCommand(ctx, store, nil, &out))
	assert.Error(t, schemaCommand(ctx, store, []string{"put", "x"}, &out))
	assert.Error(t, schemaCommand(ctx, store, []string{"rename"}, &out))
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		level zapcore.Level
	}{
		{name: "debug json", cfg: config.LogConfig{Level: "debug", Format: "json"}, level: zapcore.DebugLevel},
		{name: "warn console", cfg: config.LogConfig{Level: "warn", Format: "console"}, level: zapcore.WarnLevel},
		{name: "unknown level", cfg: config.LogConfig{Level: "loud"}, level: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := initLogger(tt.cfg)
			require.NotNil(t, logger)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}
