package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/audit"
	"github.com/BaSui01/llmschema/config"
	"github.com/BaSui01/llmschema/internal/database"
	"github.com/BaSui01/llmschema/internal/metrics"
	"github.com/BaSui01/llmschema/internal/server"
	"github.com/BaSui01/llmschema/internal/telemetry"
	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/llm/factory"
	"github.com/BaSui01/llmschema/llm/retry"
	"github.com/BaSui01/llmschema/schema"
	"github.com/BaSui01/llmschema/schemastore"
	"github.com/BaSui01/llmschema/structured"
)

// commonFlags 是 generate 与 batch 共用的参数
type commonFlags struct {
	configPath string
	schemaPath string
	schemaName string
	model      string
	retries    int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to config file")
	fs.StringVar(&c.schemaPath, "schema", "", "Schema file (JSON or YAML)")
	fs.StringVar(&c.schemaName, "schema-name", "", "Named schema from the Redis store")
	fs.StringVar(&c.model, "model", "", "Model override")
	fs.IntVar(&c.retries, "retries", -1, "Retry budget override")
}

// app 持有一次命令执行所需的全部运行时组件
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Providers
	collector *metrics.Collector
	metrics   *server.Manager
	db        *database.PoolManager
	audit     *audit.Store
	invoker   llm.Invoker
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp 按配置初始化日志、遥测、指标、审计与 Provider
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: initLogger(cfg.Log)}
	a.logger.Debug("starting llmschema",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit),
	)

	tp, err := telemetry.Init(ctx, cfg.Telemetry, a.logger)
	if err != nil {
		a.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	a.telemetry = tp

	if cfg.Metrics.Enabled {
		a.collector = metrics.NewCollector(cfg.Metrics.Namespace, a.logger)
		a.metrics = server.NewMetricsManager(cfg.Metrics, a.logger)
		if err := a.metrics.Start(); err != nil {
			a.logger.Warn("metrics server not started", zap.Error(err))
			a.metrics = nil
		}
	}

	if cfg.Database.Enabled {
		pm, err := database.Open(cfg.Database, a.logger)
		if err != nil {
			a.logger.Warn("database not available, attempt audit disabled", zap.Error(err))
		} else {
			store := audit.NewStore(pm.DB(), a.logger)
			if err := store.Migrate(ctx); err != nil {
				a.logger.Error("audit migrate failed", zap.Error(err))
				_ = pm.Close()
			} else {
				a.db, a.audit = pm, store
			}
		}
	}

	invoker, err := newInvoker(ctx, cfg.LLM, a.logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.invoker = invoker
	return a, nil
}

// newInvoker 组装 factory -> 传输层重试 -> ProviderInvoker
func newInvoker(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (llm.Invoker, error) {
	provider, err := factory.NewProviderFromConfig(ctx, cfg.Provider, factory.ProviderConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create provider %s: %w", cfg.Provider, err)
	}
	var opts []llm.InvokerOption
	if cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(cfg.Temperature))
	}
	return llm.NewProviderInvoker(retry.Wrap(provider, cfg.Retry, logger), opts...), nil
}

// orchestratorOptions 将生成策略配置转换为 Orchestrator 选项
func (a *app) orchestratorOptions() ([]structured.Option, error) {
	gen := a.cfg.Generation
	bound, err := structured.ParseAttemptBound(gen.AttemptBound)
	if err != nil {
		return nil, err
	}
	opts := []structured.Option{
		structured.WithLogger(a.logger),
		structured.WithAttemptBound(bound),
		structured.WithDefaultMaxRetries(gen.MaxRetries),
		structured.WithRetryOnValidationError(gen.RetryOnValidationError),
		structured.WithValidator(structured.NewValidator(structured.WithTypeChecking(gen.TypeChecking))),
	}
	var observers []structured.Observer
	if a.collector != nil {
		observers = append(observers, a.collector)
	}
	if a.audit != nil {
		observers = append(observers, a.audit)
	}
	if len(observers) > 0 {
		opts = append(opts, structured.WithObservers(observers...))
	}
	return opts, nil
}

// resolveSchema 从文件或 Redis 取得 Schema 定义
func resolveSchema(ctx context.Context, flags commonFlags, cfg *config.Config, logger *zap.Logger) (*schema.Definition, error) {
	switch {
	case flags.schemaPath != "" && flags.schemaName != "":
		return nil, errors.New("--schema and --schema-name are mutually exclusive")
	case flags.schemaPath != "":
		data, err := os.ReadFile(flags.schemaPath)
		if err != nil {
			return nil, fmt.Errorf("read schema file: %w", err)
		}
		return schema.Normalize(data)
	case flags.schemaName != "":
		store, err := schemastore.NewRedisStore(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Get(ctx, flags.schemaName)
	default:
		return nil, errors.New("one of --schema or --schema-name is required")
	}
}

func (a *app) modelFor(flags commonFlags) string {
	if flags.model != "" {
		return flags.model
	}
	return a.cfg.LLM.Model
}

func (a *app) retriesFor(flags commonFlags) int {
	if flags.retries >= 0 {
		return flags.retries
	}
	return a.cfg.Generation.MaxRetries
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.metrics != nil {
		_ = a.metrics.Shutdown(ctx)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
