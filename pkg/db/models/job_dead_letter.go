package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/enums"
)

// JobDeadLetter captures a job that exhausted its retry budget. Rows are kept
// for operator inspection and pruned by the retention cron job.
type JobDeadLetter struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobID        uuid.UUID       `gorm:"column:job_id;type:uuid;not null;uniqueIndex"`
	Queue        string          `gorm:"column:queue;not null"`
	Name         enums.JobName   `gorm:"column:name;type:job_name;not null"`
	PartitionKey *string         `gorm:"column:partition_key"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	Attempts     int             `gorm:"column:attempts;not null"`
	ErrorMessage *string         `gorm:"column:error_message"`
	FailedAt     time.Time       `gorm:"column:failed_at;autoCreateTime"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
