// Package worker runs the asynchronous scoring pass for finished matches.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/toto/internal/adapters/mq/queue"
	"github.com/okian/toto/internal/domain/model"
	"github.com/okian/toto/pkg/logger"
	"github.com/okian/toto/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// MatchLoader loads the match a job refers to.
type MatchLoader interface {
	Match(ctx context.Context, id string) (model.Match, error)
}

// PredictionLoader loads all predictions submitted for a match.
type PredictionLoader interface {
	PredictionsForMatch(ctx context.Context, matchID string) ([]model.Prediction, error)
}

// Scorer awards points to every prediction against the final result.
type Scorer interface {
	ScoreMatch(ctx context.Context, m model.Match, predictions []model.Prediction) (map[string]int, error)
}

// PointsApplier persists awarded points for a match in one shot.
type PointsApplier interface {
	ApplyPoints(ctx context.Context, matchID string, points map[string]int) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes scoring jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing scoring jobs.
type InMemoryWorker struct {
	queue       Queue
	matches     MatchLoader
	predictions PredictionLoader
	scorer      Scorer
	applier     PointsApplier
	name        string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, matches MatchLoader, predictions PredictionLoader, scorer Scorer, applier PointsApplier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		matches:     matches,
		predictions: predictions,
		scorer:      scorer,
		applier:     applier,
		name:        "worker",
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "scoring job failed",
					logger.String("matchID", job.MatchID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob scores every prediction for one finished match and applies
// the awarded points atomically.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	m, err := w.matches.Match(ctx, job.MatchID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "match_load_error")
		return fmt.Errorf("load match %s: %w", job.MatchID, err)
	}

	predictions, err := w.predictions.PredictionsForMatch(ctx, job.MatchID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "prediction_load_error")
		return fmt.Errorf("load predictions for match %s: %w", job.MatchID, err)
	}

	scoreStart := time.Now()
	points, err := w.scorer.ScoreMatch(ctx, m, predictions)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		return fmt.Errorf("score match %s: %w", job.MatchID, err)
	}

	if len(points) == 0 {
		metrics.RecordMatchScored()
		return nil
	}

	if err := w.applier.ApplyPoints(ctx, job.MatchID, points); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_points_error")
		return fmt.Errorf("apply points for match %s: %w", job.MatchID, err)
	}

	metrics.RecordMatchScored()
	w.logger.Info(ctx, "match scored",
		logger.String("matchID", job.MatchID),
		logger.Int("predictions", len(points)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, matches MatchLoader, predictions PredictionLoader, scorer Scorer, applier PointsApplier) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			matches,
			predictions,
			scorer,
			applier,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.shutdown)
	}

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for every worker to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
