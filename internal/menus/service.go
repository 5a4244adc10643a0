package menus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// starterDish seeds a freshly bootstrapped default menu.
type starterDish struct {
	name  string
	price string
}

var starterDishes = []starterDish{
	{name: "House soup", price: "6.50"},
	{name: "Caesar salad", price: "8.00"},
	{name: "Margherita", price: "10.00"},
	{name: "Espresso", price: "2.50"},
}

// Service bootstraps default menus for owners that have none. The bootstrap is
// not idempotent across processes, callers guard it with the distributed lock.
type Service interface {
	CreateDefaultMenus(ctx context.Context) (int, error)
	GetDefaultMenu(ctx context.Context, ownerID uuid.UUID) (*models.Menu, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menus repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// CreateDefaultMenus seeds a default menu with starter dishes for every owner
// lacking one and returns how many were created.
func (s *service) CreateDefaultMenus(ctx context.Context) (int, error) {
	owners, err := s.repo.ListOwnersWithoutDefaultMenu(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list owners without default menu")
	}

	created := 0
	for _, owner := range owners {
		if err := s.bootstrapOwner(ctx, owner); err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		s.logg.Info(s.logg.WithField(ctx, "menus_created", created), "seeded default menus")
	}
	return created, nil
}

func (s *service) GetDefaultMenu(ctx context.Context, ownerID uuid.UUID) (*models.Menu, error) {
	menu, err := s.repo.FindDefaultMenu(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load default menu")
	}
	if menu == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "default menu not found")
	}
	return menu, nil
}

func (s *service) bootstrapOwner(ctx context.Context, owner models.Worker) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// another run may have won the race between listing and seeding
		existing, err := repo.FindDefaultMenu(ctx, owner.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		menu := &models.Menu{
			ID:        uuid.New(),
			OwnerID:   owner.ID,
			Name:      "Main menu",
			IsDefault: true,
		}
		if _, err := repo.CreateMenu(ctx, menu); err != nil {
			return err
		}

		dishes := make([]models.Dish, 0, len(starterDishes))
		for _, starter := range starterDishes {
			dishes = append(dishes, models.Dish{
				ID:     uuid.New(),
				MenuID: menu.ID,
				Name:   starter.name,
				Price:  decimal.RequireFromString(starter.price),
			})
		}
		return repo.CreateDishes(ctx, dishes)
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return appErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bootstrap default menu")
	}
	return nil
}
