package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/enums"
)

// Job is one unit of asynchronous work stored durably until a consumer
// completes it or exhausts its retry budget. PartitionKey serializes jobs that
// must run in FIFO order relative to each other (one key per order).
type Job struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Queue        string          `gorm:"column:queue;not null;index"`
	Name         enums.JobName   `gorm:"column:name;type:job_name;not null"`
	PartitionKey *string         `gorm:"column:partition_key;index"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	Status       enums.JobStatus `gorm:"column:status;type:job_status;not null;default:'pending';index"`
	Attempts     int             `gorm:"column:attempts;not null;default:0"`
	MaxAttempts  int             `gorm:"column:max_attempts;not null;default:5"`
	RunAt        time.Time       `gorm:"column:run_at;not null;index"`
	ClaimedAt    *time.Time      `gorm:"column:claimed_at"`
	ClaimedBy    *string         `gorm:"column:claimed_by"`
	Sequence     int64           `gorm:"column:sequence;autoIncrement;uniqueIndex"`
	LastError    *string         `gorm:"column:last_error"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
