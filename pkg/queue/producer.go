package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

// EnqueueParams describes a job to append.
type EnqueueParams struct {
	Name         enums.JobName
	PartitionKey *string
	Payload      any
	RunAt        time.Time
	MaxAttempts  int
}

type producerRepository interface {
	Insert(ctx context.Context, job *models.Job) error
	InsertTx(tx *gorm.DB, job *models.Job) error
}

// Producer appends jobs to the durable queue. Failures surface as
// CodeQueueUnavailable so API handlers can tell callers to retry.
type Producer struct {
	repo  producerRepository
	logg  *logger.Logger
	queue string
	cfg   config.QueueConfig
}

func NewProducer(repo producerRepository, cfg config.QueueConfig, logg *logger.Logger) (*Producer, error) {
	if repo == nil {
		return nil, errors.New("queue repository is required")
	}
	queue := cfg.Name
	if queue == "" {
		queue = "orders"
	}
	return &Producer{repo: repo, logg: logg, queue: queue, cfg: cfg}, nil
}

// Enqueue appends a job outside any transaction.
func (p *Producer) Enqueue(ctx context.Context, params EnqueueParams) (*models.Job, error) {
	job, err := p.build(params)
	if err != nil {
		return nil, err
	}
	if err := p.repo.Insert(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQueueUnavailable, err, "enqueue job").
			WithDetails(map[string]any{"job": params.Name.String()})
	}
	p.logEnqueued(ctx, job)
	return job, nil
}

// EnqueueTx appends a job inside the caller's transaction. The job becomes
// visible to consumers only when the surrounding work commits.
func (p *Producer) EnqueueTx(ctx context.Context, tx *gorm.DB, params EnqueueParams) (*models.Job, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	job, err := p.build(params)
	if err != nil {
		return nil, err
	}
	if err := p.repo.InsertTx(tx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQueueUnavailable, err, "enqueue job").
			WithDetails(map[string]any{"job": params.Name.String()})
	}
	p.logEnqueued(ctx, job)
	return job, nil
}

func (p *Producer) build(params EnqueueParams) (*models.Job, error) {
	if !params.Name.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown job name %q", params.Name))
	}
	payload, err := marshalPayload(params.Payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode job payload")
	}
	runAt := params.RunAt
	if runAt.IsZero() {
		runAt = time.Now().UTC()
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = p.cfg.MaxAttempts
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &models.Job{
		ID:           uuid.New(),
		Queue:        p.queue,
		Name:         params.Name,
		PartitionKey: params.PartitionKey,
		Payload:      payload,
		Status:       enums.JobStatusPending,
		MaxAttempts:  maxAttempts,
		RunAt:        runAt,
	}, nil
}

func (p *Producer) logEnqueued(ctx context.Context, job *models.Job) {
	if p.logg == nil {
		return
	}
	fields := map[string]any{
		"job_id": job.ID.String(),
		"job":    job.Name.String(),
		"queue":  job.Queue,
	}
	if job.PartitionKey != nil {
		fields["partition_key"] = *job.PartitionKey
	}
	p.logg.Info(p.logg.WithFields(ctx, fields), "job enqueued")
}
