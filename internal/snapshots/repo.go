package snapshots

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Toite-app/api-sub001/pkg/db/models"
)

// Repository persists and reads audit snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Insert(ctx context.Context, snapshot *models.Snapshot) (*models.Snapshot, error)
	FindLatest(ctx context.Context, model string, documentID uuid.UUID) (*models.Snapshot, error)
	ListByDocument(ctx context.Context, model string, documentID uuid.UUID, limit int) ([]models.Snapshot, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, snapshot *models.Snapshot) (*models.Snapshot, error) {
	if err := r.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *repository) FindLatest(ctx context.Context, model string, documentID uuid.UUID) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	err := r.db.WithContext(ctx).
		Where("model = ? AND document_id = ?", model, documentID).
		Order("created_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *repository) ListByDocument(ctx context.Context, model string, documentID uuid.UUID, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Snapshot
	err := r.db.WithContext(ctx).
		Where("model = ? AND document_id = ?", model, documentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
