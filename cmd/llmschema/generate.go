package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/llmschema/internal/metrics"
	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/schema"
	"github.com/BaSui01/llmschema/structured"
)

// generator 绑定 Client 与本次命令的模型和重试预算
type generator struct {
	client    *structured.Client
	model     string
	retries   int
	collector *metrics.Collector
	logger    *zap.Logger
}

func newGenerator(invoker llm.Invoker, def *schema.Definition, model string, retries int, collector *metrics.Collector, logger *zap.Logger, opts ...structured.Option) (*generator, error) {
	client, err := structured.NewClient(invoker, def, opts...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &generator{client: client, model: model, retries: retries, collector: collector, logger: logger}, nil
}

func (g *generator) run(ctx context.Context, prompt string) (*structured.Report, error) {
	start := time.Now()
	report, err := g.client.GenerateReport(ctx, g.model, prompt, g.retries)
	if g.collector != nil {
		g.collector.RecordRun(g.model, len(report.Attempts), time.Since(start), err)
	}
	if err != nil {
		g.logger.Warn("generation failed",
			zap.String("request_id", report.RequestID),
			zap.Int("attempts", len(report.Attempts)),
			zap.Error(err))
	}
	return report, err
}

// attemptView 是尝试记录的输出形式
type attemptView struct {
	Attempt    int    `json:"attempt"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// result 是一次生成的输出形式
type result struct {
	Index     int                 `json:"index"`
	RequestID string              `json:"request_id"`
	Response  structured.Response `json:"response,omitempty"`
	Error     string              `json:"error,omitempty"`
	Attempts  []attemptView       `json:"attempts,omitempty"`
}

func newResult(index int, report *structured.Report, err error, withAttempts bool) result {
	r := result{Index: index, RequestID: report.RequestID, Response: report.Response}
	if err != nil {
		r.Error = err.Error()
		r.Response = nil
	}
	if withAttempts {
		for _, rec := range report.Attempts {
			v := attemptView{Attempt: rec.Attempt, Outcome: rec.Outcome.String(), DurationMs: rec.Duration.Milliseconds()}
			if rec.Err != nil {
				v.Error = rec.Err.Error()
			}
			r.Attempts = append(r.Attempts, v)
		}
	}
	return r
}

func runGenerate(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var flags commonFlags
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	flags.register(fs)
	prompt := fs.String("prompt", "", "Prompt text (read from stdin when empty)")
	showReport := fs.Bool("report", false, "Print the attempt report instead of the bare response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *prompt == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		*prompt = strings.TrimSpace(string(data))
	}
	if *prompt == "" {
		return errors.New("prompt is empty")
	}

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	def, err := resolveSchema(ctx, flags, cfg, a.logger)
	if err != nil {
		return err
	}
	g, err := a.generator(def, flags)
	if err != nil {
		return err
	}

	report, err := g.run(ctx, *prompt)
	if *showReport {
		return writeJSON(stdout, newResult(0, report, err, true), true)
	}
	if err != nil {
		return err
	}
	return writeJSON(stdout, report.Response, true)
}

func runBatch(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var flags commonFlags
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	flags.register(fs)
	input := fs.String("input", "", "Prompt file, one prompt per line (stdin when empty)")
	concurrency := fs.Int("concurrency", 0, "Concurrency override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}

	var src io.Reader = stdin
	if *input != "" {
		f, err := openInput(*input)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}
	prompts, err := readPrompts(src)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	def, err := resolveSchema(ctx, flags, cfg, a.logger)
	if err != nil {
		return err
	}
	g, err := a.generator(def, flags)
	if err != nil {
		return err
	}

	limit := cfg.Generation.Concurrency
	if *concurrency > 0 {
		limit = *concurrency
	}
	results := processBatch(ctx, g, prompts, limit)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if err := writeJSON(stdout, r, false); err != nil {
			return err
		}
	}
	a.logger.Info("batch finished", zap.Int("total", len(results)), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d prompts failed", failed, len(results))
	}
	return nil
}

func (a *app) generator(def *schema.Definition, flags commonFlags) (*generator, error) {
	opts, err := a.orchestratorOptions()
	if err != nil {
		return nil, err
	}
	return newGenerator(a.invoker, def, a.modelFor(flags), a.retriesFor(flags), a.collector, a.logger, opts...)
}

// processBatch 以 limit 为并发上限执行全部提示词，结果按输入顺序返回。
// 单条失败不影响其他条目。
func processBatch(ctx context.Context, g *generator, prompts []string, limit int) []result {
	if limit < 1 {
		limit = 1
	}
	results := make([]result, len(prompts))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, prompt := range prompts {
		eg.Go(func() error {
			report, err := g.run(egCtx, prompt)
			results[i] = newResult(i, report, err, false)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// readPrompts 读取非空行，去除首尾空白
func readPrompts(r io.Reader) ([]string, error) {
	var prompts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return prompts, nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
