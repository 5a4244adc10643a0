package menus

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
)

// Repository reads and writes menus with their dishes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error)
	FindDefaultMenu(ctx context.Context, ownerID uuid.UUID) (*models.Menu, error)
	ListMenus(ctx context.Context, ownerID uuid.UUID) ([]models.Menu, error)
	CreateDishes(ctx context.Context, dishes []models.Dish) error
	ListOwnersWithoutDefaultMenu(ctx context.Context) ([]models.Worker, error)
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

func (r *repository) CreateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error) {
	if err := r.db.WithContext(ctx).Omit("Dishes").Create(menu).Error; err != nil {
		return nil, err
	}
	return menu, nil
}

func (r *repository) FindDefaultMenu(ctx context.Context, ownerID uuid.UUID) (*models.Menu, error) {
	var menu models.Menu
	err := r.db.WithContext(ctx).
		Preload("Dishes").
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		First(&menu).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *repository) ListMenus(ctx context.Context, ownerID uuid.UUID) ([]models.Menu, error) {
	var rows []models.Menu
	err := r.db.WithContext(ctx).
		Preload("Dishes").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateDishes(ctx context.Context, dishes []models.Dish) error {
	if len(dishes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&dishes).Error
}

func (r *repository) ListOwnersWithoutDefaultMenu(ctx context.Context) ([]models.Worker, error) {
	var rows []models.Worker
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_blocked = ?", enums.WorkerRoleOwner, false).
		Where("NOT EXISTS (SELECT 1 FROM menus WHERE menus.owner_id = workers.id AND menus.is_default = ?)", true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
