// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.LLM.Retry.MaxRetries)

	assert.Equal(t, 2, cfg.Generation.MaxRetries)
	assert.Equal(t, "inclusive", cfg.Generation.AttemptBound)
	assert.False(t, cfg.Generation.RetryOnValidationError)
	assert.False(t, cfg.Generation.TypeChecking)
	assert.Equal(t, 4, cfg.Generation.Concurrency)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Log.OutputPaths)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "llmschema", cfg.Telemetry.ServiceName)

	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "llmschema", cfg.Metrics.Namespace)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "llmschema:schema:", cfg.Redis.KeyPrefix)

	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	require.NoError(t, cfg.Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
llm:
  provider: deepseek
  model: deepseek-chat
  timeout: 30s
  retry:
    max_retries: 4
    initial_delay: 100ms
generation:
  max_retries: 5
  attempt_bound: exclusive
  retry_on_validation_error: true
  concurrency: 8
log:
  level: debug
  format: console
redis:
  addr: "redis:6379"
database:
  enabled: true
  driver: postgres
  name: audit
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 4, cfg.LLM.Retry.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.LLM.Retry.InitialDelay)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, 10*time.Second, cfg.LLM.Retry.MaxDelay)

	assert.Equal(t, 5, cfg.Generation.MaxRetries)
	assert.Equal(t, "exclusive", cfg.Generation.AttemptBound)
	assert.True(t, cfg.Generation.RetryOnValidationError)
	assert.Equal(t, 8, cfg.Generation.Concurrency)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("LLMSCHEMA_LLM_PROVIDER", "gemini")
	t.Setenv("LLMSCHEMA_LLM_API_KEY", "env-key")
	t.Setenv("LLMSCHEMA_LLM_TEMPERATURE", "0.5")
	t.Setenv("LLMSCHEMA_LLM_RETRY_MAX_DELAY", "3s")
	t.Setenv("LLMSCHEMA_LLM_RETRY_JITTER", "false")
	t.Setenv("LLMSCHEMA_GENERATION_MAX_RETRIES", "7")
	t.Setenv("LLMSCHEMA_GENERATION_TYPE_CHECKING", "true")
	t.Setenv("LLMSCHEMA_LOG_OUTPUT_PATHS", "stdout, /tmp/llmschema.log")
	t.Setenv("LLMSCHEMA_TELEMETRY_SAMPLE_RATE", "1")
	t.Setenv("LLMSCHEMA_REDIS_DB", "3")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 3*time.Second, cfg.LLM.Retry.MaxDelay)
	assert.False(t, cfg.LLM.Retry.Jitter)
	assert.Equal(t, 7, cfg.Generation.MaxRetries)
	assert.True(t, cfg.Generation.TypeChecking)
	assert.Equal(t, []string{"stdout", "/tmp/llmschema.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
llm:
  provider: ollama
  model: yaml-model
`), 0o644))

	t.Setenv("LLMSCHEMA_LLM_PROVIDER", "openrouter")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, "yaml-model", cfg.LLM.Model)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_LLM_MODEL", "custom-model")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, "custom-model", cfg.LLM.Model)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("LLMSCHEMA_GENERATION_MAX_RETRIES", "many")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLMSCHEMA_GENERATION_MAX_RETRIES")
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("LLMSCHEMA_GENERATION_ATTEMPT_BOUND", "sometimes")

	_, err := NewLoader().WithValidator((*Config).Validate).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempt_bound")
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/non/existent/path/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  provider: [invalid\n"), 0o644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty provider", func(c *Config) { c.LLM.Provider = " " }, "llm.provider"},
		{"negative max retries", func(c *Config) { c.Generation.MaxRetries = -1 }, "generation.max_retries"},
		{"bad attempt bound", func(c *Config) { c.Generation.AttemptBound = "both" }, "attempt_bound"},
		{"zero concurrency", func(c *Config) { c.Generation.Concurrency = 0 }, "concurrency"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 3 }, "temperature"},
		{"telemetry without endpoint", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.OTLPEndpoint = ""
		}, "otlp_endpoint"},
		{"sample rate out of range", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "sample_rate"},
		{"metrics without addr", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Addr = ""
		}, "metrics.addr"},
		{"unsupported driver", func(c *Config) {
			c.Database.Enabled = true
			c.Database.Driver = "oracle"
		}, "oracle"},
		{"driver ignored when disabled", func(c *Config) { c.Database.Driver = "oracle" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_CollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = ""
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
	assert.Contains(t, err.Error(), "log format")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DatabaseConfig
		expected string
	}{
		{
			name:     "postgres",
			cfg:      DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"},
			expected: "host=db port=5432 user=u password=p dbname=n sslmode=disable",
		},
		{
			name:     "mysql",
			cfg:      DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Name: "n"},
			expected: "u:p@tcp(db:3306)/n?parseTime=true",
		},
		{
			name:     "sqlite",
			cfg:      DatabaseConfig{Driver: "sqlite", Name: "audit.db"},
			expected: "audit.db",
		},
		{
			name:     "unknown",
			cfg:      DatabaseConfig{Driver: "oracle"},
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.DSN())
		})
	}
}

func TestMustLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("generation:\n  concurrency: 0\n"), 0o644))

	assert.Panics(t, func() { MustLoad(configPath) })
}
