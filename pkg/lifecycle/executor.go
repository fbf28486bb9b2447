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
	"math"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-objlifecycle/pkg/adapters"
	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

// Outcome is the result of applying a rule's action to one object.
type Outcome string

const (
	// OutcomePlanned is reported for every action of a dry run and for
	// ActionNone.
	OutcomePlanned Outcome = "planned"
	// OutcomeSucceeded means every backend call succeeded.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means the action did not change the object.
	OutcomeFailed Outcome = "failed"
	// OutcomePartialMove means the archive copy exists but the source
	// could not be deleted.
	OutcomePartialMove Outcome = "partial_move"
)

// ActionResult records what happened to a single object.
type ActionResult struct {
	Key      string  `json:"key" yaml:"key"`
	Rule     string  `json:"rule" yaml:"rule"`
	Action   Action  `json:"action" yaml:"action"`
	Outcome  Outcome `json:"outcome" yaml:"outcome"`
	NewKey   string  `json:"new_key,omitempty" yaml:"new_key,omitempty"`
	Size     int64   `json:"size" yaml:"size"`
	Attempts int     `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Error    string  `json:"error,omitempty" yaml:"error,omitempty"`

	// Err keeps the wrapped error for errors.Is checks.
	Err error `json:"-" yaml:"-"`
}

// Failed reports whether the result is a failure or a partial move.
func (r ActionResult) Failed() bool {
	return r.Outcome == OutcomeFailed || r.Outcome == OutcomePartialMove
}

// ActionExecutor applies a rule's action to one object.
// Implementations never return backend errors directly: every failure is
// captured in the ActionResult.
type ActionExecutor interface {
	Execute(ctx context.Context, obj common.Object, rule Rule, dryRun bool) ActionResult
}

// ExecutorConfig configures a BackendExecutor.
type ExecutorConfig struct {
	Retry RetryPolicy

	// RateLimit caps copy and delete calls per second. Zero is unlimited.
	RateLimit float64

	Logger adapters.Logger
}

// BackendExecutor executes actions with Backend.CopyObject and
// Backend.DeleteObject against a single bucket.
type BackendExecutor struct {
	backend common.Backend
	bucket  string
	retry   RetryPolicy
	limiter *rate.Limiter
	logger  adapters.Logger
}

// NewExecutor returns an ActionExecutor operating on bucket.
func NewExecutor(backend common.Backend, bucket string, cfg ExecutorConfig) *BackendExecutor {
	x := &BackendExecutor{
		backend: backend,
		bucket:  bucket,
		retry:   cfg.Retry.normalized(),
		logger:  cfg.Logger,
	}
	if x.logger == nil {
		x.logger = adapters.NewNoOpLogger()
	}
	if cfg.RateLimit > 0 {
		burst := int(math.Ceil(cfg.RateLimit))
		x.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return x
}

// Execute implements ActionExecutor.
func (x *BackendExecutor) Execute(ctx context.Context, obj common.Object, rule Rule, dryRun bool) ActionResult {
	res := ActionResult{
		Key:    obj.Key,
		Rule:   rule.Name,
		Action: rule.Action,
		Size:   obj.Size,
	}

	switch rule.Action {
	case ActionMove:
		res.NewKey = rule.ArchiveKey(obj.Key)
		if dryRun {
			res.Outcome = OutcomePlanned
			return res
		}
		x.move(ctx, &res)
	case ActionDelete:
		if dryRun {
			res.Outcome = OutcomePlanned
			return res
		}
		x.delete(ctx, &res)
	default:
		// ActionNone never reaches the backend
		res.Outcome = OutcomePlanned
	}

	if res.Err != nil {
		res.Error = res.Err.Error()
		x.logger.Warn(ctx, "Lifecycle action failed",
			adapters.Field{Key: "rule", Value: res.Rule},
			adapters.Field{Key: "key", Value: res.Key},
			adapters.Field{Key: "outcome", Value: string(res.Outcome)},
			adapters.Field{Key: "error", Value: res.Error})
	}
	return res
}

func (x *BackendExecutor) move(ctx context.Context, res *ActionResult) {
	attempts, err := x.call(ctx, func(ctx context.Context) error {
		return x.backend.CopyObject(ctx, x.bucket, res.Key, res.NewKey)
	})
	res.Attempts = attempts
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("%w: copy %s to %s: %w", common.ErrActionFailed, res.Key, res.NewKey, err)
		return
	}

	attempts, err = x.call(ctx, func(ctx context.Context) error {
		return x.backend.DeleteObject(ctx, x.bucket, res.Key)
	})
	res.Attempts += attempts
	if err != nil {
		// the archive copy is left in place
		res.Outcome = OutcomePartialMove
		res.Err = fmt.Errorf("%w: copied to %s but delete of %s failed: %w", common.ErrPartialMove, res.NewKey, res.Key, err)
		return
	}
	res.Outcome = OutcomeSucceeded
}

func (x *BackendExecutor) delete(ctx context.Context, res *ActionResult) {
	attempts, err := x.call(ctx, func(ctx context.Context) error {
		return x.backend.DeleteObject(ctx, x.bucket, res.Key)
	})
	res.Attempts = attempts
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("%w: delete %s: %w", common.ErrActionFailed, res.Key, err)
		return
	}
	res.Outcome = OutcomeSucceeded
}

// call applies rate limiting and the retry policy to one backend call.
func (x *BackendExecutor) call(ctx context.Context, fn func(context.Context) error) (int, error) {
	return retry(ctx, x.retry, func(ctx context.Context) error {
		if x.limiter != nil {
			if err := x.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return fn(ctx)
	})
}
