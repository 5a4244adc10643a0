package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/enums"
)

// Snapshot is one audit-history entry: what changed on which document, by whom.
// Create and delete entries carry an empty change set; the action alone conveys
// the event.
type Snapshot struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Model      string               `gorm:"column:model;not null;index:idx_snapshots_model_document"`
	DocumentID uuid.UUID            `gorm:"column:document_id;type:uuid;not null;index:idx_snapshots_model_document"`
	Action     enums.SnapshotAction `gorm:"column:action;type:snapshot_action;not null"`
	Changes    json.RawMessage      `gorm:"column:changes;type:jsonb;not null;default:'[]'"`
	Data       json.RawMessage      `gorm:"column:data;type:jsonb"`
	WorkerID   *uuid.UUID           `gorm:"column:worker_id;type:uuid"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
