package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
)

const maxDeadLetterErrorLen = 1024

// Repository persists jobs and dead letters in Postgres.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx appends a job inside the caller's transaction so enqueueing commits
// or rolls back together with the state change that caused it.
func (r *Repository) InsertTx(tx *gorm.DB, job *models.Job) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(job).Error
}

// Insert appends a job outside any caller transaction.
func (r *Repository) Insert(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Claim atomically takes the oldest runnable job. A job whose partition key
// still has an earlier pending or running sibling is skipped so per-partition
// FIFO holds even with many workers.
func (r *Repository) Claim(ctx context.Context, queue, workerID string) (*models.Job, error) {
	now := time.Now().UTC()
	var job models.Job
	err := r.db.WithContext(ctx).Raw(claimSQL(r.db.Dialector.Name()),
		enums.JobStatusRunning, now, workerID, now,
		queue, enums.JobStatusPending, now,
		enums.JobStatusPending, enums.JobStatusRunning,
	).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

// claimSQL selects the next runnable job: lowest sequence in the queue whose
// partition has no earlier pending or running sibling. On Postgres the
// candidate row is locked with SKIP LOCKED so concurrent claimers never block
// on each other; dialects without row locks (the sqlite tests) run the same
// predicate unlocked.
func claimSQL(dialect string) string {
	lock := ""
	if dialect == "postgres" {
		lock = "\n\t\t\tFOR UPDATE SKIP LOCKED"
	}
	return `
		UPDATE jobs SET
			status = ?,
			claimed_at = ?,
			claimed_by = ?,
			attempts = attempts + 1,
			updated_at = ?
		WHERE id = (
			SELECT j.id FROM jobs j
			WHERE j.queue = ?
			  AND j.status = ?
			  AND j.run_at <= ?
			  AND NOT EXISTS (
				SELECT 1 FROM jobs prior
				WHERE prior.queue = j.queue
				  AND prior.partition_key = j.partition_key
				  AND prior.status IN (?, ?)
				  AND prior.sequence < j.sequence
			  )
			ORDER BY j.sequence
			LIMIT 1` + lock + `
		)
		RETURNING *`
}

// MarkCompleted finishes a claimed job.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, enums.JobStatusRunning).
		Updates(map[string]any{
			"status":     enums.JobStatusCompleted,
			"claimed_at": nil,
			"claimed_by": nil,
		}).Error
}

// ScheduleRetry releases a failed claim back to pending with a future run
// time. The attempt counter was already bumped by Claim.
func (r *Repository) ScheduleRetry(ctx context.Context, id uuid.UUID, runAt time.Time, jobErr error) error {
	return r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, enums.JobStatusRunning).
		Updates(map[string]any{
			"status":     enums.JobStatusPending,
			"run_at":     runAt,
			"claimed_at": nil,
			"claimed_by": nil,
			"last_error": truncateError(jobErr),
		}).Error
}

// MarkDeadLettered moves an exhausted job to the dead letter table and flags
// the job failed, in one transaction so the dead letter never goes missing.
func (r *Repository) MarkDeadLettered(ctx context.Context, job *models.Job, jobErr error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.JobDeadLetter{
			JobID:        job.ID,
			Queue:        job.Queue,
			Name:         job.Name,
			PartitionKey: job.PartitionKey,
			Payload:      job.Payload,
			Attempts:     job.Attempts,
			ErrorMessage: truncateError(jobErr),
			FailedAt:     time.Now().UTC(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":     enums.JobStatusFailed,
				"claimed_at": nil,
				"claimed_by": nil,
				"last_error": truncateError(jobErr),
			}).Error
	})
}

// ReapStaleClaims releases running jobs whose worker went silent past the
// deadline so another worker can pick them up.
func (r *Repository) ReapStaleClaims(ctx context.Context, deadline time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-deadline)
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("status = ? AND claimed_at < ?", enums.JobStatusRunning, cutoff).
		Updates(map[string]any{
			"status":     enums.JobStatusPending,
			"claimed_at": nil,
			"claimed_by": nil,
			"last_error": "claim expired",
		})
	return res.RowsAffected, res.Error
}

// PurgeCompleted removes completed job rows older than the retention window.
func (r *Repository) PurgeCompleted(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.JobStatusCompleted, cutoff).
		Delete(&models.Job{})
	return res.RowsAffected, res.Error
}

// PurgeDeadLetters removes dead letters past the retention window.
func (r *Repository) PurgeDeadLetters(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res := r.db.WithContext(ctx).
		Where("failed_at < ?", cutoff).
		Delete(&models.JobDeadLetter{})
	return res.RowsAffected, res.Error
}

// ListDeadLetters returns the newest dead letters for operator inspection.
func (r *Repository) ListDeadLetters(ctx context.Context, limit int) ([]models.JobDeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.JobDeadLetter
	err := r.db.WithContext(ctx).
		Order("failed_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// PendingCount reports the queue depth for metrics.
func (r *Repository) PendingCount(ctx context.Context, queue string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("queue = ? AND status = ?", queue, enums.JobStatusPending).
		Count(&count).Error
	return count, err
}

func truncateError(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if len(msg) > maxDeadLetterErrorLen {
		msg = msg[:maxDeadLetterErrorLen]
	}
	return &msg
}
