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
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jeremyhahn/go-objlifecycle/pkg/adapters"
	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

// ErrPoolShutdown is returned by Submit after Shutdown has been called.
var ErrPoolShutdown = errors.New("worker pool is shutting down")

// WorkItem is one candidate of the rule being executed.
type WorkItem struct {
	Index  int
	Object common.Object
}

// WorkResult carries the executor result for the item at Index.
// Skipped is set when the pool was cancelled before the item ran.
type WorkResult struct {
	Index   int
	Result  ActionResult
	Skipped bool
}

// WorkerPool executes the candidates of a single rule in parallel.
// A pool is used for exactly one rule and then shut down.
type WorkerPool struct {
	workerCount int
	workQueue   chan WorkItem
	resultQueue chan WorkResult
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	logger      adapters.Logger

	shuttingDown atomic.Bool

	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// WorkerPoolConfig configures a WorkerPool.
type WorkerPoolConfig struct {
	WorkerCount int
	QueueSize   int
	Logger      adapters.Logger
}

// WorkerPoolMetrics is a snapshot of pool activity.
type WorkerPoolMetrics struct {
	Processed int64
	Failed    int64
	Skipped   int64
}

// NewWorkerPool creates a pool whose workers stop when parent is cancelled.
func NewWorkerPool(parent context.Context, config WorkerPoolConfig) *WorkerPool {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.WorkerCount * 2
	}
	if config.Logger == nil {
		config.Logger = adapters.NewNoOpLogger()
	}

	ctx, cancel := context.WithCancel(parent)
	return &WorkerPool{
		workerCount: config.WorkerCount,
		workQueue:   make(chan WorkItem, config.QueueSize),
		resultQueue: make(chan WorkResult, config.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      config.Logger,
	}
}

// Start launches the workers. processor is called once per submitted item.
func (wp *WorkerPool) Start(processor func(context.Context, WorkItem) ActionResult) {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i, processor)
	}
}

func (wp *WorkerPool) worker(id int, processor func(context.Context, WorkItem) ActionResult) {
	defer wp.wg.Done()

	for item := range wp.workQueue {
		out := WorkResult{Index: item.Index}
		if wp.ctx.Err() != nil {
			out.Skipped = true
			wp.skipped.Add(1)
		} else {
			out.Result = processor(wp.ctx, item)
			wp.processed.Add(1)
			if out.Result.Failed() {
				wp.failed.Add(1)
			}
		}

		// Results is drained until Shutdown closes it
		wp.resultQueue <- out
	}

	wp.logger.Debug(wp.ctx, "Worker finished", adapters.Field{Key: "worker_id", Value: id})
}

// Submit queues item. It blocks while the queue is full and fails once the
// pool is cancelled or shut down.
func (wp *WorkerPool) Submit(item WorkItem) error {
	if wp.shuttingDown.Load() {
		return ErrPoolShutdown
	}
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.workQueue <- item:
		return nil
	}
}

// Results returns the result channel. It is closed by Shutdown once every
// queued item has produced a result.
func (wp *WorkerPool) Results() <-chan WorkResult {
	return wp.resultQueue
}

// Shutdown stops accepting work, waits for the workers to drain the queue
// and closes the result channel.
func (wp *WorkerPool) Shutdown() {
	wp.shuttingDown.Store(true)
	close(wp.workQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug(wp.ctx, "Worker pool shutdown complete",
		adapters.Field{Key: "workers", Value: wp.workerCount},
		adapters.Field{Key: "processed", Value: wp.processed.Load()},
		adapters.Field{Key: "failed", Value: wp.failed.Load()},
		adapters.Field{Key: "skipped", Value: wp.skipped.Load()})
}

// GetMetrics returns the current pool counters.
func (wp *WorkerPool) GetMetrics() WorkerPoolMetrics {
	return WorkerPoolMetrics{
		Processed: wp.processed.Load(),
		Failed:    wp.failed.Load(),
		Skipped:   wp.skipped.Load(),
	}
}
