package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	DefaultRetrainInterval      = time.Hour
	DefaultCacheCleanupInterval = 24 * time.Hour
)

// JobFunc is the unit of work a worker runs on schedule or on trigger
type JobFunc func(ctx context.Context) error

// Worker runs a job on a cron schedule and on demand. Runs never overlap;
// triggers that arrive while a run is pending collapse into one.
type Worker struct {
	name     string
	cron     *cron.Cron
	job      JobFunc
	interval time.Duration
	logger   *logger.Logger
	entryID  cron.EntryID

	trigger chan struct{}
	runMu   sync.Mutex

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker creates a cron-scheduled worker. An empty interval means fallback.
func NewWorker(name, interval string, fallback time.Duration, job JobFunc, log *logger.Logger) (*Worker, error) {
	every := fallback
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid interval '%s' for worker %s: %v", interval, name, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("interval for worker %s must be positive, got %s", name, interval)
		}
		every = d
	}

	return &Worker{
		name:     name,
		cron:     cron.New(),
		job:      job,
		interval: every,
		logger:   log.WithComponent("worker").WithField("worker", name),
		trigger:  make(chan struct{}, 1),
	}, nil
}

// NewRetrainWorker schedules model training every WORKER_RETRAIN_INTERVAL
func NewRetrainWorker(cfg *config.WorkerConfig, job JobFunc, log *logger.Logger) (*Worker, error) {
	var interval string
	if cfg != nil {
		interval = cfg.RetrainInterval
	}
	return NewWorker("retrain", interval, DefaultRetrainInterval, job, log)
}

// NewCacheCleanupWorker schedules the expired movie purge
func NewCacheCleanupWorker(cfg *config.WorkerConfig, job JobFunc, log *logger.Logger) (*Worker, error) {
	var interval string
	if cfg != nil {
		interval = cfg.CacheCleanupInterval
	}
	return NewWorker("cache-cleanup", interval, DefaultCacheCleanupInterval, job, log)
}

// Start schedules the job and begins consuming triggers
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("worker %s already started", w.name)
	}

	expr := w.durationToCronExpression(w.interval)
	w.logger.Info(fmt.Sprintf("Starting worker: %s (every %v)", w.name, w.interval))

	w.ctx, w.cancel = context.WithCancel(context.Background())
	entryID, err := w.cron.AddFunc(expr, func() { w.run("schedule") })
	if err != nil {
		w.cancel()
		w.logger.Error("Failed to schedule worker " + w.name + ": " + err.Error())
		return err
	}
	w.entryID = entryID

	w.wg.Add(1)
	go w.loop()
	w.cron.Start()
	w.started = true

	w.logger.Info("Worker started successfully: " + w.name)
	return nil
}

// Trigger requests a run without blocking. It never queues more than one.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.trigger:
			w.run("trigger")
		}
	}
}

func (w *Worker) run(source string) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	w.logger.Debug("Executing job for worker " + w.name + " (" + source + ")")
	start := time.Now()
	if err := w.job(w.ctx); err != nil {
		metrics.WorkerRuns.WithLabelValues(w.name, "failure").Inc()
		w.logger.Errorf(err, "Job failed for worker %s", w.name)
		return
	}
	metrics.WorkerRuns.WithLabelValues(w.name, "success").Inc()
	w.logger.Infof("Job completed for worker %s in %v", w.name, time.Since(start).Round(time.Millisecond))
}

// Stop removes the schedule and waits for an in-flight run to finish
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}

	w.logger.Info("Stopping worker: " + w.name)

	if w.entryID > 0 {
		w.cron.Remove(w.entryID)
	}
	stopped := w.cron.Stop()
	w.cancel()
	<-stopped.Done()
	w.wg.Wait()

	w.started = false
	w.logger.Info("Worker stopped: " + w.name)
	return nil
}

// IsRunning checks if the worker has active cron entries
func (w *Worker) IsRunning() bool {
	return len(w.cron.Entries()) > 0
}

// Name returns the worker's label
func (w *Worker) Name() string {
	return w.name
}

// durationToCronExpression converts duration to cron format; intervals that
// don't fit a minute or hour step use the @every descriptor
func (w *Worker) durationToCronExpression(duration time.Duration) string {
	minutes := int(duration.Minutes())
	hours := int(duration.Hours())

	if duration%time.Minute == 0 {
		if hours > 0 && hours < 24 && minutes%60 == 0 {
			return fmt.Sprintf("0 */%d * * *", hours)
		} else if minutes > 0 && minutes < 60 {
			return fmt.Sprintf("*/%d * * * *", minutes)
		}
	}

	return "@every " + duration.String()
}
