package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/pkg/logger"
)

// DefaultTrainingTimeout bounds one background training pass
const DefaultTrainingTimeout = 10 * time.Minute

// Trainer is anything that rebuilds the recommendation models
type Trainer interface {
	Train(ctx context.Context) error
}

// TrainingJob adapts a Trainer to a worker job
type TrainingJob struct {
	trainer Trainer
	timeout time.Duration
	logger  *logger.Logger
}

// NewTrainingJob creates a new adapter. timeout <= 0 uses DefaultTrainingTimeout.
func NewTrainingJob(t Trainer, timeout time.Duration, log *logger.Logger) *TrainingJob {
	if timeout <= 0 {
		timeout = DefaultTrainingTimeout
	}
	return &TrainingJob{
		trainer: t,
		timeout: timeout,
		logger:  log.WithComponent("training-job"),
	}
}

// Run trains once. Failures leave the previous models serving. Training
// outcomes are counted by the trainer, the worker counts the run.
func (j *TrainingJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if err := j.trainer.Train(ctx); err != nil {
		return fmt.Errorf("background training failed: %w", err)
	}
	j.logger.Debug("Background training finished")
	return nil
}

// Purger removes expired cache rows
type Purger interface {
	PurgeExpired() (int64, error)
}

// CachePurgeJob adapts the movie cache to a worker job
type CachePurgeJob struct {
	purger Purger
	logger *logger.Logger
}

// NewCachePurgeJob creates a new adapter
func NewCachePurgeJob(p Purger, log *logger.Logger) *CachePurgeJob {
	return &CachePurgeJob{
		purger: p,
		logger: log.WithComponent("cache-purge-job"),
	}
}

func (j *CachePurgeJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n, err := j.purger.PurgeExpired()
	if err != nil {
		return err
	}
	metrics.MovieCachePurged.Add(float64(n))
	j.logger.Debugf("Purged %d cached movies", n)
	return nil
}
