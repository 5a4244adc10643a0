package snapshots

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

// RecordInput carries one audited document version.
type RecordInput struct {
	Model      string
	DocumentID uuid.UUID
	Data       map[string]any
	Deleted    bool
	WorkerID   *uuid.UUID
}

// Service writes audit history entries by diffing each new document version
// against the latest stored snapshot.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Snapshot, error)
	History(ctx context.Context, model string, documentID uuid.UUID, limit int) ([]models.Snapshot, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("snapshots repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Snapshot, error) {
	if input.Model == "" || input.DocumentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot model and document id required")
	}

	previous, err := s.repo.FindLatest(ctx, input.Model, input.DocumentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest snapshot")
	}

	action := DetermineAction(input.Deleted, previous)
	changes := s.resolveChanges(ctx, action, previous, input.Data)

	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal snapshot changes")
	}

	snapshot := &models.Snapshot{
		ID:         uuid.New(),
		Model:      input.Model,
		DocumentID: input.DocumentID,
		Action:     action,
		Changes:    changesJSON,
		WorkerID:   input.WorkerID,
	}
	if input.Data != nil {
		data, err := json.Marshal(input.Data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal snapshot data")
		}
		snapshot.Data = data
	}

	created, err := s.repo.Insert(ctx, snapshot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert snapshot")
	}
	return created, nil
}

func (s *service) History(ctx context.Context, model string, documentID uuid.UUID, limit int) ([]models.Snapshot, error) {
	rows, err := s.repo.ListByDocument(ctx, model, documentID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list snapshots")
	}
	return rows, nil
}

// resolveChanges diffs the incoming version against the previous one. Updates
// with an unreadable previous payload degrade to an empty change set rather
// than blocking the audit write.
func (s *service) resolveChanges(ctx context.Context, action enums.SnapshotAction, previous *models.Snapshot, data map[string]any) []FieldChange {
	if action != enums.SnapshotActionUpdate || previous == nil {
		return []FieldChange{}
	}

	var before map[string]any
	if len(previous.Data) > 0 {
		if err := json.Unmarshal(previous.Data, &before); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "snapshot_id", previous.ID.String()), "previous snapshot data unreadable, recording empty change set")
			return []FieldChange{}
		}
	}

	changes := Diff(before, data)
	if changes == nil {
		return []FieldChange{}
	}
	return changes
}
