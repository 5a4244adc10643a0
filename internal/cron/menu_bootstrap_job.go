package cron

import (
	"context"
	"fmt"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/queue"
)

type jobEnqueuer interface {
	Enqueue(ctx context.Context, params queue.EnqueueParams) (*models.Job, error)
}

type MenuBootstrapJobParams struct {
	Logger   *logger.Logger
	Producer jobEnqueuer
}

// NewMenuBootstrapJob enqueues the default-menus bootstrap once per cron
// cycle. The worker-side handler does the actual seeding under the
// distributed lock.
func NewMenuBootstrapJob(params MenuBootstrapJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Producer == nil {
		return nil, fmt.Errorf("job producer required")
	}
	return &menuBootstrapJob{
		logg:     params.Logger,
		producer: params.Producer,
	}, nil
}

type menuBootstrapJob struct {
	logg     *logger.Logger
	producer jobEnqueuer
}

func (j *menuBootstrapJob) Name() string { return "menu-bootstrap-enqueue" }

func (j *menuBootstrapJob) Run(ctx context.Context) error {
	job, err := j.producer.Enqueue(ctx, queue.EnqueueParams{
		Name:    enums.JobCreateOwnersDefaultMenu,
		Payload: queue.CreateOwnersDefaultMenusPayload{},
	})
	if err != nil {
		return fmt.Errorf("enqueue menu bootstrap: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "job_id", job.ID), "menu bootstrap enqueued")
	return nil
}
