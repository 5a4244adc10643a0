package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Toite-app/api-sub001/pkg/logger"
)

const (
	defaultCompletedMaxAge  = 72 * time.Hour
	defaultDeadLetterMaxAge = 30 * 24 * time.Hour
)

type queueRetentionRepo interface {
	PurgeCompleted(ctx context.Context, maxAge time.Duration) (int64, error)
	PurgeDeadLetters(ctx context.Context, maxAge time.Duration) (int64, error)
}

type QueueRetentionJobParams struct {
	Logger           *logger.Logger
	Repository       queueRetentionRepo
	CompletedMaxAge  time.Duration
	DeadLetterMaxAge time.Duration
}

// NewQueueRetentionJob deletes completed jobs and aged dead letters so the
// jobs table stays small enough for the claim index to matter.
func NewQueueRetentionJob(params QueueRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	completedMaxAge := params.CompletedMaxAge
	if completedMaxAge <= 0 {
		completedMaxAge = defaultCompletedMaxAge
	}
	deadLetterMaxAge := params.DeadLetterMaxAge
	if deadLetterMaxAge <= 0 {
		deadLetterMaxAge = defaultDeadLetterMaxAge
	}
	return &queueRetentionJob{
		logg:             params.Logger,
		repo:             params.Repository,
		completedMaxAge:  completedMaxAge,
		deadLetterMaxAge: deadLetterMaxAge,
	}, nil
}

type queueRetentionJob struct {
	logg             *logger.Logger
	repo             queueRetentionRepo
	completedMaxAge  time.Duration
	deadLetterMaxAge time.Duration
}

func (j *queueRetentionJob) Name() string { return "queue-retention" }

func (j *queueRetentionJob) Run(ctx context.Context) error {
	completed, err := j.repo.PurgeCompleted(ctx, j.completedMaxAge)
	if err != nil {
		return fmt.Errorf("purge completed jobs: %w", err)
	}
	deadLetters, err := j.repo.PurgeDeadLetters(ctx, j.deadLetterMaxAge)
	if err != nil {
		return fmt.Errorf("purge dead letters: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"completed_deleted":    completed,
		"dead_letters_deleted": deadLetters,
	})
	j.logg.Info(logCtx, "queue retention cleanup complete")
	return nil
}
