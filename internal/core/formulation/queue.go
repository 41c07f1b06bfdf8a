package formulation

import (
	"context"
	"sync"
	"sync/atomic"

	"feed-formulator/internal/pkg/common"

	"go.uber.org/zap"
)

// solveRequest is one queued solver invocation.
type solveRequest struct {
	ctx     context.Context
	problem *Problem
	mode    Mode
	result  chan solveResult
}

// solveResult is the outcome of a queued solve.
type solveResult struct {
	solution *Solution
	err      error
}

// QueueStatus reports the solve queue state.
type QueueStatus struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// solveQueue bounds the number of concurrent numerical solves. The catalog
// and registry are read-only, so workers share no mutable state beyond the
// queue itself.
type solveQueue struct {
	solver    *Solver
	queue     chan *solveRequest
	workers   int
	maxSize   int
	processed int64
	closeOnce sync.Once
	done      chan struct{}
}

func newSolveQueue(solver *Solver, workers, maxSize int) *solveQueue {
	q := &solveQueue{
		solver:  solver,
		queue:   make(chan *solveRequest, maxSize),
		workers: workers,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go q.worker(i)
	}

	common.LogInfo("solve queue started",
		zap.Int("workers", workers),
		zap.Int("max_size", maxSize),
	)

	return q
}

func (q *solveQueue) worker(id int) {
	for {
		select {
		case <-q.done:
			return
		case req := <-q.queue:
			if req.ctx.Err() != nil {
				req.result <- solveResult{err: req.ctx.Err()}
				continue
			}
			solution, err := q.solver.Solve(req.problem, req.mode)
			atomic.AddInt64(&q.processed, 1)
			req.result <- solveResult{solution: solution, err: err}
		}
	}
}

// enqueue submits a problem and returns the channel carrying its result.
func (q *solveQueue) enqueue(ctx context.Context, p *Problem, mode Mode) (chan solveResult, error) {
	req := &solveRequest{
		ctx:     ctx,
		problem: p,
		mode:    mode,
		result:  make(chan solveResult, 1),
	}

	select {
	case q.queue <- req:
		common.LogDebug("solve enqueued",
			zap.Int("queue_length", len(q.queue)),
			zap.String("mode", string(mode)),
		)
		return req.result, nil
	default:
		common.LogWarn("solve queue full",
			zap.Int("max_size", q.maxSize),
		)
		return nil, common.ErrSolverQueueFull
	}
}

// Status returns a snapshot of the queue state.
func (q *solveQueue) status() QueueStatus {
	return QueueStatus{
		QueueLength:    len(q.queue),
		ProcessedCount: atomic.LoadInt64(&q.processed),
		MaxQueueSize:   q.maxSize,
		Workers:        q.workers,
	}
}

// close stops the workers.
func (q *solveQueue) close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
