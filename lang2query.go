package lang2query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nithiin7/lang2query/internal/logging"
	"github.com/nithiin7/lang2query/internal/runtime"
	"github.com/nithiin7/lang2query/pkg/adapters/catalog"
	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/stages"
)

// Engine is the high-level entry point for the library. It wraps the internal
// runtime and provides a simplified API for consumers; transports and tests
// that need per-event control can reach the runtime through Runtime().
type Engine struct {
	runtime *runtime.Engine

	deps      stages.Dependencies
	hooks     domain.LifecycleHooks
	policy    *runtime.RetryPolicy
	queueSize int
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRetryPolicy overrides the default retry budgets.
func WithRetryPolicy(policy runtime.RetryPolicy) Option {
	return func(e *Engine) {
		e.policy = &policy
	}
}

// WithQueueSize sets the per-run outbound event buffer.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		e.queueSize = n
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine over explicit collaborators.
func New(deps stages.Dependencies, opts ...Option) (*Engine, error) {
	e := &Engine{
		deps:      deps,
		logger:    logging.NewNop(),
		queueSize: 0,
	}
	for _, opt := range opts {
		opt(e)
	}

	reg, err := runtime.NewRegistry(stages.All(e.deps)...)
	if err != nil {
		return nil, fmt.Errorf("failed to register stages: %w", err)
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	}
	if e.policy != nil {
		engineOpts = append(engineOpts, runtime.WithRetryPolicy(*e.policy))
	}
	if e.queueSize > 0 {
		engineOpts = append(engineOpts, runtime.WithQueueSize(e.queueSize))
	}

	e.runtime = runtime.NewEngine(reg, engineOpts...)
	return e, nil
}

// NewFromCatalog creates an engine whose collaborators all derive from a
// static YAML schema catalog.
func NewFromCatalog(path string, opts ...Option) (*Engine, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return New(stages.Dependencies{
		Classifier: cat,
		Responder:  cat,
		Catalog:    cat,
		Planner:    cat,
		Generator:  cat,
		Validator:  cat,
	}, opts...)
}

// Runtime exposes the underlying engine for transports and tests.
func (e *Engine) Runtime() *runtime.Engine {
	return e.runtime
}

// Start launches a run and returns it without waiting.
func (e *Engine) Start(ctx context.Context, query string, mode domain.Mode) (*runtime.Run, error) {
	run, err := e.runtime.NewRun(query, mode)
	if err != nil {
		return nil, err
	}
	run.Start(ctx)
	return run, nil
}

// Query executes one run to completion in normal mode, discarding
// intermediate events, and returns the final result.
func (e *Engine) Query(ctx context.Context, query string) (domain.Result, error) {
	run, err := e.Start(ctx, query, domain.ModeNormal)
	if err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	for ev := range run.Events() {
		if ev.Type == domain.EventFinalResult && ev.Result != nil {
			result = *ev.Result
		}
	}
	_, runErr := run.Final()
	return result, runErr
}
