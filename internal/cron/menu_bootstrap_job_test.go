package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/queue"
)

type fakeJobEnqueuer struct {
	enqueued []queue.EnqueueParams
	err      error
}

func (f *fakeJobEnqueuer) Enqueue(_ context.Context, params queue.EnqueueParams) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.enqueued = append(f.enqueued, params)
	return &models.Job{ID: uuid.New(), Name: params.Name}, nil
}

func TestMenuBootstrapJobEnqueuesBootstrap(t *testing.T) {
	producer := &fakeJobEnqueuer{}
	job, err := NewMenuBootstrapJob(MenuBootstrapJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Producer: producer,
	})
	if err != nil {
		t.Fatalf("NewMenuBootstrapJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(producer.enqueued) != 1 {
		t.Fatalf("expected one enqueued job, got %d", len(producer.enqueued))
	}
	if producer.enqueued[0].Name != enums.JobCreateOwnersDefaultMenu {
		t.Fatalf("unexpected job name %s", producer.enqueued[0].Name)
	}
}

func TestMenuBootstrapJobPropagatesEnqueueError(t *testing.T) {
	producer := &fakeJobEnqueuer{err: errors.New("queue down")}
	job, err := NewMenuBootstrapJob(MenuBootstrapJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Producer: producer,
	})
	if err != nil {
		t.Fatalf("NewMenuBootstrapJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
