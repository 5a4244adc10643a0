package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/metrics"
)

const defaultStaleClaimDeadline = 2 * time.Minute

type staleClaimRepo interface {
	ReapStaleClaims(ctx context.Context, deadline time.Duration) (int64, error)
	PendingCount(ctx context.Context, queue string) (int64, error)
}

type StaleClaimReaperJobParams struct {
	Logger     *logger.Logger
	Repository staleClaimRepo
	Queue      string
	Deadline   time.Duration
	Metrics    *metrics.QueueMetrics
}

// NewStaleClaimReaperJob requeues jobs whose worker claimed them and then
// died, and refreshes the queue depth gauge while it is at it.
func NewStaleClaimReaperJob(params StaleClaimReaperJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	if params.Queue == "" {
		return nil, fmt.Errorf("queue name required")
	}
	deadline := params.Deadline
	if deadline <= 0 {
		deadline = defaultStaleClaimDeadline
	}
	return &staleClaimReaperJob{
		logg:     params.Logger,
		repo:     params.Repository,
		queue:    params.Queue,
		deadline: deadline,
		metrics:  params.Metrics,
	}, nil
}

type staleClaimReaperJob struct {
	logg     *logger.Logger
	repo     staleClaimRepo
	queue    string
	deadline time.Duration
	metrics  *metrics.QueueMetrics
}

func (j *staleClaimReaperJob) Name() string { return "stale-claim-reaper" }

func (j *staleClaimReaperJob) Run(ctx context.Context) error {
	requeued, err := j.repo.ReapStaleClaims(ctx, j.deadline)
	if err != nil {
		return fmt.Errorf("reap stale claims: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"deadline": j.deadline.String(),
		"requeued": requeued,
	})
	if requeued > 0 {
		j.logg.Warn(logCtx, "requeued jobs abandoned by dead workers")
	} else {
		j.logg.Info(logCtx, "no stale claims found")
	}

	if j.metrics != nil {
		depth, err := j.repo.PendingCount(ctx, j.queue)
		if err != nil {
			j.logg.Error(logCtx, "failed to read queue depth", err)
			return nil
		}
		j.metrics.SetDepth(j.queue, depth)
	}
	return nil
}
