package config

import (
	"time"

	"github.com/BaSui01/llmschema/llm/retry"
	"github.com/BaSui01/llmschema/structured"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LLM:        DefaultLLMConfig(),
		Generation: DefaultGenerationConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
		Metrics:    DefaultMetricsConfig(),
		Redis:      DefaultRedisConfig(),
		Database:   DefaultDatabaseConfig(),
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "openai",
		Timeout:  2 * time.Minute,
		Retry:    retry.DefaultPolicy(),
	}
}

// DefaultGenerationConfig 返回默认生成策略
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxRetries:   structured.DefaultMaxRetries,
		AttemptBound: structured.AttemptBoundInclusive.String(),
		Concurrency:  4,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stderr"},
		EnableCaller: true,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "llmschema",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Addr:      ":9091",
		Path:      "/metrics",
		Namespace: "llmschema",
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		KeyPrefix:    "llmschema:schema:",
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "llmschema",
		Name:            "llmschema.db",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}
