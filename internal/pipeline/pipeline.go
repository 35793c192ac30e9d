// Package pipeline runs one end-to-end report generation: configuration
// checks, ingestion, prompt assembly, the model call and rendering.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/pulse/internal/cache"
	"github.com/spboyer/pulse/internal/execution"
	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/orchestration"
	"github.com/spboyer/pulse/internal/projectconfig"
	"github.com/spboyer/pulse/internal/prompt"
	"github.com/spboyer/pulse/internal/report"
	"github.com/spboyer/pulse/internal/spinner"
	"github.com/spboyer/pulse/internal/tokens"
)

// Pipeline wires the stages for one configuration. It holds no state between
// runs.
type Pipeline struct {
	cfg       *projectconfig.ProjectConfig
	engine    execution.CompletionEngine
	now       func() time.Time
	getenv    func(string) string
	runDate   time.Time
	useCache  bool
	status    io.Writer
	listeners []orchestration.ProgressListener
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEngine uses engine instead of the one named by ai.engine.
func WithEngine(engine execution.CompletionEngine) Option {
	return func(p *Pipeline) { p.engine = engine }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithGetenv replaces os.Getenv for the credential check.
func WithGetenv(getenv func(string) string) Option {
	return func(p *Pipeline) { p.getenv = getenv }
}

// WithRunDate renders under date instead of today.
func WithRunDate(date time.Time) Option {
	return func(p *Pipeline) { p.runDate = date }
}

// WithCache reuses a cached completion for an identical request even when
// cache.enabled is false.
func WithCache(enabled bool) Option {
	return func(p *Pipeline) { p.useCache = enabled }
}

// WithStatusWriter draws a spinner on w while the model call is in flight.
func WithStatusWriter(w io.Writer) Option {
	return func(p *Pipeline) { p.status = w }
}

// WithProgress registers an ingestion progress listener.
func WithProgress(listener orchestration.ProgressListener) Option {
	return func(p *Pipeline) { p.listeners = append(p.listeners, listener) }
}

// New returns a pipeline for cfg.
func New(cfg *projectconfig.ProjectConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		now:    time.Now,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepared is the output of ingestion and assembly.
type Prepared struct {
	Descriptors []models.SourceDescriptor
	Blocks      []models.NormalizedBlock
	Summary     orchestration.Summary
	Payload     *models.PromptPayload
}

// Result describes a finished run.
type Result struct {
	RunID      string
	RunDate    time.Time
	Prepared   *Prepared
	Completion models.CompletionResult
	Outcome    *report.Outcome
}

// CheckCredentials fails when the configured engine needs a credential that
// is not set in the environment.
func (p *Pipeline) CheckCredentials() error {
	if p.engine != nil || p.cfg.AI.Engine != projectconfig.EngineCopilot {
		return nil
	}
	if p.getenv(p.cfg.AI.APIKeyEnv) == "" {
		return models.NewConfigurationError("ai.api_key_env",
			"environment variable %s is not set; %s needs it to authenticate", p.cfg.AI.APIKeyEnv, p.cfg.AI.Engine)
	}
	return nil
}

// Prepare validates the configuration, ingests every enabled source and
// assembles the prompt. It never calls the model.
func (p *Pipeline) Prepare(ctx context.Context) (*Prepared, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	descs, err := p.cfg.Descriptors()
	if err != nil {
		return nil, err
	}
	counter, err := tokens.NewCounter(tokens.Tokenizer(p.cfg.Output.TokenCounter))
	if err != nil {
		return nil, models.NewConfigurationError("output.token_counter", "%v", err)
	}

	var orchOpts []orchestration.Option
	if p.cfg.Ingestion.Parallel != nil && *p.cfg.Ingestion.Parallel {
		orchOpts = append(orchOpts, orchestration.WithParallel(p.cfg.Ingestion.Workers))
	}
	orch := orchestration.New(orchOpts...)
	for _, l := range p.listeners {
		orch.OnProgress(l)
	}

	blocks := orch.Run(ctx, descs)
	prepared := &Prepared{
		Descriptors: descs,
		Blocks:      blocks,
		Summary:     orchestration.Summarize(blocks),
	}

	payload, err := prompt.NewAssembler(counter).Assemble(blocks, p.cfg.PromptConfig(nil))
	if err != nil {
		return prepared, err
	}
	prepared.Payload = payload
	return prepared, nil
}

// Run executes the whole pipeline. The returned error is a
// *models.ConfigurationError when the run stopped before the model call, or
// a *models.RenderError when no artifact could be written. A failed model
// call is not an error: the run still produces a degraded report.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.CheckCredentials(); err != nil {
		return nil, err
	}

	formats, err := p.cfg.Formats()
	if err != nil {
		return nil, err
	}
	store, err := report.NewStore(p.cfg.Resolve(p.cfg.Output.Dir), p.cfg.Output.FilenamePattern)
	if err != nil {
		return nil, err
	}

	now := p.now()
	result := &Result{
		RunID:   uuid.NewString(),
		RunDate: p.runDate,
	}
	if result.RunDate.IsZero() {
		result.RunDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	slog.Info("run started", "run_id", result.RunID, "run_date", result.RunDate.Format(report.DateLayout), "config", p.cfg.Path)

	prepared, err := p.Prepare(ctx)
	result.Prepared = prepared
	if err != nil {
		return result, err
	}
	payload := prepared.Payload

	req := execution.NewRequest(payload, p.params())
	result.Completion = p.complete(ctx, req)

	renderer := report.NewRenderer(store, formats, payload.OutputContract, report.Metadata{
		Title:         p.cfg.Report.Title,
		RunID:         result.RunID,
		RunDate:       result.RunDate,
		GeneratedAt:   now.UTC(),
		DataAsOf:      payload.DataAsOf,
		Sources:       payload.IncludedSources,
		ModelID:       req.ModelID,
		CredentialEnv: p.cfg.AI.APIKeyEnv,
	})
	outcome, err := renderer.Render(result.Completion)
	result.Outcome = outcome
	if err != nil {
		return result, err
	}
	slog.Info("run finished", "run_id", result.RunID, "state", string(outcome.State), "artifacts", len(outcome.Artifacts))
	return result, nil
}

func (p *Pipeline) params() execution.Params {
	params := execution.Params{
		ModelID:   p.cfg.AI.Model,
		MaxTokens: p.cfg.AI.MaxTokens,
		Timeout:   p.cfg.Timeout(),
	}
	if p.cfg.AI.Temperature != nil {
		params.Temperature = *p.cfg.AI.Temperature
	}
	return params
}

// complete returns a cached result when allowed, otherwise calls the engine.
func (p *Pipeline) complete(ctx context.Context, req *execution.CompletionRequest) models.CompletionResult {
	var (
		c   *cache.Cache
		key string
	)
	if p.useCache || (p.cfg.Cache.Enabled != nil && *p.cfg.Cache.Enabled) {
		var err error
		key, err = cache.CacheKey(req)
		if err != nil {
			slog.Warn("cache key failed, calling the model", "error", err)
		} else {
			c = cache.New(p.cfg.Resolve(p.cfg.Cache.Dir))
			if cached, ok := c.Get(key); ok {
				slog.Info("using cached completion", "key", key[:12], "model", cached.ModelID)
				return *cached
			}
		}
	}

	result := p.callEngine(ctx, req)
	if c != nil {
		if err := c.Put(key, result); err != nil {
			slog.Warn("caching completion failed", "error", err)
		}
	}
	return result
}

func (p *Pipeline) callEngine(ctx context.Context, req *execution.CompletionRequest) models.CompletionResult {
	engine := p.engine
	if engine == nil {
		var err error
		engine, err = NewEngine(p.cfg)
		if err != nil {
			return failed(req, err)
		}
	}

	if err := engine.Initialize(ctx); err != nil {
		return failed(req, fmt.Errorf("initializing engine: %w", err))
	}
	defer func() {
		if err := engine.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("engine shutdown failed", "error", err)
		}
	}()

	if p.status != nil {
		stop := spinner.Start(p.status, "Generating summary with "+req.ModelID)
		defer stop()
	}
	return execution.Complete(ctx, engine, req)
}

func failed(req *execution.CompletionRequest, err error) models.CompletionResult {
	slog.Warn("completion failed", "model", req.ModelID, "error", err)
	return models.CompletionResult{
		Status:        models.CompletionFailure,
		FailureReason: err.Error(),
		ModelID:       req.ModelID,
	}
}

// NewEngine builds the completion engine named by ai.engine.
func NewEngine(cfg *projectconfig.ProjectConfig) (execution.CompletionEngine, error) {
	switch cfg.AI.Engine {
	case projectconfig.EngineCopilot:
		return execution.NewCopilotEngineBuilder(cfg.AI.Model, nil).Build(), nil
	case projectconfig.EngineMock:
		var opts []execution.MockOption
		if cfg.AI.MockResponse != "" {
			opts = append(opts, execution.WithMockResponseFile(cfg.Resolve(cfg.AI.MockResponse)))
		}
		return execution.NewMockEngine(cfg.AI.Model, opts...), nil
	}
	return nil, models.NewConfigurationError("ai.engine", "unknown engine %q", cfg.AI.Engine)
}
