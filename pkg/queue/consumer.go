package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/metrics"
)

// Handler processes one claimed job. Returning an error schedules a retry, or
// dead-letters the job when its attempt budget is spent.
type Handler func(ctx context.Context, job *models.Job) error

// Registry maps job names to handlers.
type Registry struct {
	mtx      sync.RWMutex
	handlers map[enums.JobName]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[enums.JobName]Handler)}
}

func (r *Registry) Register(name enums.JobName, handler Handler) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.handlers[name] = handler
}

func (r *Registry) Resolve(name enums.JobName) (Handler, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}

type consumerRepository interface {
	Claim(ctx context.Context, queue, workerID string) (*models.Job, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, runAt time.Time, jobErr error) error
	MarkDeadLettered(ctx context.Context, job *models.Job, jobErr error) error
}

// ConsumerParams wires a consumer pool.
type ConsumerParams struct {
	Config   config.QueueConfig
	Logger   *logger.Logger
	Repo     consumerRepository
	Registry *Registry
	Metrics  *metrics.QueueMetrics
}

// Consumer polls the queue with a pool of workers and dispatches claimed jobs
// through the registry.
type Consumer struct {
	cfg      config.QueueConfig
	logg     *logger.Logger
	repo     consumerRepository
	registry *Registry
	metrics  *metrics.QueueMetrics
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repo == nil {
		return nil, errors.New("queue repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("handler registry is required")
	}
	cfg := params.Config
	if cfg.Name == "" {
		cfg.Name = "orders"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	return &Consumer{
		cfg:      cfg,
		logg:     params.Logger,
		repo:     params.Repo,
		registry: params.Registry,
		metrics:  params.Metrics,
		sleep:    sleepCtx,
	}, nil
}

// Run blocks until the context is canceled, keeping Concurrency workers
// claiming and processing jobs.
func (c *Consumer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Concurrency; i++ {
		wg.Add(1)
		workerID := fmt.Sprintf("%s-%d", uuid.NewString()[:8], i)
		go func() {
			defer wg.Done()
			c.workerLoop(ctx, workerID)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (c *Consumer) workerLoop(ctx context.Context, workerID string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := c.repo.Claim(ctx, c.cfg.Name, workerID)
		if err != nil {
			c.logg.Error(ctx, "queue claim failed", err)
			if sleepErr := c.sleep(ctx, c.cfg.PollInterval); sleepErr != nil {
				return
			}
			continue
		}
		if job == nil {
			if sleepErr := c.sleep(ctx, c.cfg.PollInterval); sleepErr != nil {
				return
			}
			continue
		}

		c.process(ctx, job)
	}
}

// ProcessOne claims and processes a single job. It exists for tests and
// returns whether a job was found.
func (c *Consumer) ProcessOne(ctx context.Context, workerID string) (bool, error) {
	job, err := c.repo.Claim(ctx, c.cfg.Name, workerID)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	c.process(ctx, job)
	return true, nil
}

func (c *Consumer) process(ctx context.Context, job *models.Job) {
	fields := map[string]any{
		"job_id":  job.ID.String(),
		"job":     job.Name.String(),
		"attempt": job.Attempts,
	}
	if job.PartitionKey != nil {
		fields["partition_key"] = *job.PartitionKey
	}
	logCtx := c.logg.WithFields(ctx, fields)

	handler, ok := c.registry.Resolve(job.Name)
	if !ok {
		// no handler will ever appear for this name, retrying is pointless
		c.finishFailed(logCtx, job, fmt.Errorf("no handler registered for job %q", job.Name), true)
		return
	}

	started := time.Now()
	err := c.runHandler(ctx, handler, job)
	c.metrics.ObserveDuration(job.Name.String(), time.Since(started))

	if err != nil {
		c.finishFailed(logCtx, job, err, job.Attempts >= job.MaxAttempts)
		return
	}

	if markErr := c.repo.MarkCompleted(ctx, job.ID); markErr != nil {
		c.logg.Error(logCtx, "mark job completed failed", markErr)
		return
	}
	c.metrics.IncProcessed(job.Name.String())
	c.logg.Info(logCtx, "job completed")
}

func (c *Consumer) runHandler(ctx context.Context, handler Handler, job *models.Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job handler panicked: %v", rec)
		}
	}()
	runCtx := ctx
	if c.cfg.ProcessingDeadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.ProcessingDeadline)
		defer cancel()
	}
	return handler(runCtx, job)
}

func (c *Consumer) finishFailed(ctx context.Context, job *models.Job, jobErr error, terminal bool) {
	if terminal {
		if err := c.repo.MarkDeadLettered(ctx, job, jobErr); err != nil {
			c.logg.Error(ctx, "dead-letter job failed", err)
			return
		}
		c.metrics.IncDeadLettered(job.Name.String())
		c.logg.Error(ctx, "job dead-lettered", jobErr)
		return
	}

	delay := RetryDelay(job.Attempts, c.cfg.BackoffBase, c.cfg.BackoffCap)
	runAt := time.Now().UTC().Add(delay)
	if err := c.repo.ScheduleRetry(ctx, job.ID, runAt, jobErr); err != nil {
		c.logg.Error(ctx, "schedule job retry failed", err)
		return
	}
	c.metrics.IncRetried(job.Name.String())
	c.logg.Warn(c.logg.WithField(ctx, "retry_in", delay.String()), fmt.Sprintf("job failed, will retry: %v", jobErr))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
