// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-objlifecycle.
//
// go-objlifecycle is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeremyhahn/go-objlifecycle/pkg/adapters"
	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

const tracerName = "github.com/jeremyhahn/go-objlifecycle/pkg/lifecycle"

// Engine runs lifecycle rules against one backend.
type Engine struct {
	backend  common.Backend
	source   ObjectSource
	matcher  Matcher
	executor ActionExecutor
	clock    func() time.Time
	logger   adapters.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource replaces the default PagedSource.
func WithSource(s ObjectSource) Option {
	return func(e *Engine) { e.source = s }
}

// WithMatcher replaces DefaultPredicates.
func WithMatcher(m Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

// WithExecutor replaces the BackendExecutor that Run builds from the
// RunConfig. An injected executor ignores RunConfig.Retry and RateLimit.
func WithExecutor(x ActionExecutor) Option {
	return func(e *Engine) { e.executor = x }
}

// WithClock sets the time source. It is sampled once per rule.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l adapters.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records run metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer. The default is the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New creates an Engine over backend. The caller keeps ownership of the
// backend and closes it after the run.
func New(backend common.Backend, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, common.ErrBackendRequired
	}
	e := &Engine{
		backend: backend,
		matcher: DefaultPredicates,
		clock:   time.Now,
		logger:  adapters.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.source == nil {
		e.source = NewPagedSource(backend)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e, nil
}

// Run validates cfg and evaluates its rules in order.
//
// An invalid config returns an error wrapping common.ErrConfigInvalid and a
// nil report; no backend call is made. Listing failures abort only the
// affected rule and per-object failures are recorded as results, so neither
// produces an error here. If ctx is cancelled, Run stops fetching pages and
// submitting work, marks the report Partial and returns it together with the
// context error.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	executor := e.executor
	if executor == nil {
		executor = NewExecutor(e.backend, cfg.Bucket, ExecutorConfig{
			Retry:     cfg.Retry,
			RateLimit: cfg.RateLimit,
			Logger:    e.logger,
		})
	}

	ctx, span := e.tracer.Start(ctx, "lifecycle.run", trace.WithAttributes(
		attribute.String("bucket", cfg.Bucket),
		attribute.Bool("dry_run", cfg.DryRun),
		attribute.Int("rules", len(cfg.Rules)),
	))
	defer span.End()

	report := newReport(cfg.Bucket, cfg.DryRun, e.clock())
	e.logger.Info(ctx, "Lifecycle run started",
		adapters.Field{Key: "run_id", Value: report.RunID},
		adapters.Field{Key: "bucket", Value: cfg.Bucket},
		adapters.Field{Key: "dry_run", Value: cfg.DryRun},
		adapters.Field{Key: "rules", Value: len(cfg.Rules)})

	for _, rule := range cfg.Rules {
		if ctx.Err() != nil {
			report.skipRule(rule)
			continue
		}
		e.runRule(ctx, cfg, rule, executor, report)
	}

	finished := e.clock()
	err := ctx.Err()
	report.finish(finished, err != nil)
	e.metrics.observeRun(finished)

	t := report.Totals()
	e.logger.Info(ctx, "Lifecycle run finished",
		adapters.Field{Key: "run_id", Value: report.RunID},
		adapters.Field{Key: "candidates", Value: t.Candidates},
		adapters.Field{Key: "succeeded", Value: t.Succeeded},
		adapters.Field{Key: "failed", Value: t.Failed},
		adapters.Field{Key: "partial_moves", Value: t.PartialMoves},
		adapters.Field{Key: "aborted_rules", Value: t.Aborted},
		adapters.Field{Key: "partial", Value: err != nil})

	if err != nil {
		span.SetStatus(codes.Error, "run interrupted")
		return report, fmt.Errorf("lifecycle run interrupted: %w", err)
	}
	return report, nil
}

func (e *Engine) runRule(ctx context.Context, cfg RunConfig, rule Rule, executor ActionExecutor, report *Report) {
	ctx, span := e.tracer.Start(ctx, "lifecycle.rule", trace.WithAttributes(
		attribute.String("rule", rule.Name),
		attribute.String("action", string(rule.Action)),
		attribute.String("include_prefix", rule.IncludePrefix),
	))
	defer span.End()

	started := time.Now()
	idx := report.beginRule(rule)
	now := e.clock().UTC()

	candidates, listed, err := e.collect(ctx, cfg, rule, now)
	span.SetAttributes(attribute.Int("listed", listed), attribute.Int("candidates", len(candidates)))

	finish := func(status RuleStatus, n int, err error) {
		dur := time.Since(started)
		report.finishRule(idx, status, listed, n, dur, err)
		e.metrics.observeRule(rule.Name, status, listed, n, dur)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(status))
		}
	}

	if err != nil {
		e.logger.Error(ctx, "Rule not fully evaluated",
			adapters.Field{Key: "rule", Value: rule.Name},
			adapters.Field{Key: "listed", Value: listed},
			adapters.Field{Key: "error", Value: err.Error()})
		// partial candidates are discarded
		finish(RuleAborted, 0, err)
		return
	}

	e.logger.Info(ctx, fmt.Sprintf("Rule '%s': %d object(s) matched", rule.Name, len(candidates)),
		adapters.Field{Key: "rule", Value: rule.Name},
		adapters.Field{Key: "listed", Value: listed},
		adapters.Field{Key: "candidates", Value: len(candidates)},
		adapters.Field{Key: "cutoff", Value: Cutoff(now, rule.OlderThanDays)})

	if rule.Action == ActionNone {
		finish(RuleCompleted, len(candidates), nil)
		return
	}

	var execErr error
	if cfg.Workers <= 1 {
		execErr = e.executeSequential(ctx, cfg, rule, candidates, executor, report, idx)
	} else {
		execErr = e.executeParallel(ctx, cfg, rule, candidates, executor, report, idx)
	}

	if execErr != nil {
		finish(RuleAborted, len(candidates), execErr)
		return
	}
	finish(RuleCompleted, len(candidates), nil)
}

// collect enumerates the rule's include prefix and returns the objects the
// matcher accepts, along with the number of objects listed.
func (e *Engine) collect(ctx context.Context, cfg RunConfig, rule Rule, now time.Time) ([]common.Object, int, error) {
	var (
		candidates []common.Object
		listed     int
	)
	archive := ""
	if rule.Action == ActionMove {
		archive = rule.EffectiveArchivePrefix()
	}

	for obj, err := range e.source.Enumerate(ctx, cfg.Bucket, rule.IncludePrefix, cfg.PageSize) {
		if err != nil {
			return nil, listed, err
		}
		listed++
		if archive != "" && strings.HasPrefix(obj.Key, archive) {
			continue
		}
		if e.matcher.Match(obj, rule, now) {
			candidates = append(candidates, obj)
		}
	}
	return candidates, listed, nil
}

func (e *Engine) executeSequential(ctx context.Context, cfg RunConfig, rule Rule, candidates []common.Object,
	executor ActionExecutor, report *Report, idx int) error {
	for _, obj := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.record(ctx, report, idx, executor.Execute(ctx, obj, rule, cfg.DryRun), cfg.DryRun)
	}
	return nil
}

// executeParallel runs candidates on a bounded pool. Results are recorded in
// candidate order once the pool has drained.
func (e *Engine) executeParallel(ctx context.Context, cfg RunConfig, rule Rule, candidates []common.Object,
	executor ActionExecutor, report *Report, idx int) error {
	pool := NewWorkerPool(ctx, WorkerPoolConfig{
		WorkerCount: cfg.Workers,
		Logger:      e.logger,
	})
	pool.Start(func(ctx context.Context, item WorkItem) ActionResult {
		return executor.Execute(ctx, item.Object, rule, cfg.DryRun)
	})

	go func() {
		defer pool.Shutdown()
		for i, obj := range candidates {
			if err := pool.Submit(WorkItem{Index: i, Object: obj}); err != nil {
				return
			}
		}
	}()

	results := make([]ActionResult, len(candidates))
	done := make([]bool, len(candidates))
	for r := range pool.Results() {
		if r.Skipped {
			continue
		}
		results[r.Index] = r.Result
		done[r.Index] = true
	}

	for i := range results {
		if done[i] {
			e.record(ctx, report, idx, results[i], cfg.DryRun)
		}
	}
	return ctx.Err()
}

func (e *Engine) record(ctx context.Context, report *Report, idx int, res ActionResult, dryRun bool) {
	report.record(idx, res)
	e.metrics.observeResult(res)
	if dryRun && res.Outcome == OutcomePlanned {
		if res.Action == ActionMove {
			e.logger.Info(ctx, fmt.Sprintf("Would move %s → %s", res.Key, res.NewKey),
				adapters.Field{Key: "rule", Value: res.Rule})
		} else {
			e.logger.Info(ctx, fmt.Sprintf("Would delete %s", res.Key),
				adapters.Field{Key: "rule", Value: res.Rule})
		}
	}
}
