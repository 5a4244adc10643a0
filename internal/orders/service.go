package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/pagination"
	"github.com/Toite-app/api-sub001/pkg/queue"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, params queue.EnqueueParams) (*models.Job, error)
	EnqueueTx(ctx context.Context, tx *gorm.DB, params queue.EnqueueParams) (*models.Job, error)
}

// Service exposes order lifecycle operations. Mutations never touch totals
// directly: they enqueue a dish-update job and the worker recalculates inside
// a locked transaction.
type Service interface {
	CreateOrder(ctx context.Context, actorID *uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)

	AddDish(ctx context.Context, actorID *uuid.UUID, input AddDishInput) (*OrderDishDTO, error)
	TransitionDishStatus(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID, target enums.DishStatus) (*OrderDishDTO, error)
	ReturnDish(ctx context.Context, actorID *uuid.UUID, input ReturnDishInput) (*OrderDishDTO, error)
	RemoveDish(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID) error

	PriceOrderLines(ctx context.Context, orderID uuid.UUID) error
	RecalculateTotals(ctx context.Context, orderID uuid.UUID) error
	CheckDishesReady(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
	jobs jobEnqueuer
	logg *logger.Logger
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, jobs jobEnqueuer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("job producer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, jobs: jobs, logg: logg}, nil
}

func (s *service) CreateOrder(ctx context.Context, actorID *uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order type %q", input.Type))
	}
	if input.GuestsCount <= 0 {
		input.GuestsCount = 1
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextOrderNumber(ctx, input.RestaurantID)
		if err != nil {
			return err
		}
		order := &models.Order{
			ID:           uuid.New(),
			RestaurantID: input.RestaurantID,
			OwnerID:      input.OwnerID,
			Number:       number,
			Type:         input.Type,
			Status:       enums.OrderStatusPending,
			GuestsCount:  input.GuestsCount,
			TableNumber:  input.TableNumber,
			Note:         input.Note,
		}
		if created, err = repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return s.enqueueCrudUpdateTx(ctx, tx, created.ID, enums.SnapshotActionCreate, actorID)
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	dto := toOrderDTO(*created, true)
	return &dto, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := toOrderDTO(*order, true)
	return &dto, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	list, err := s.repo.ListOrders(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return list, nil
}

// AddDish appends a pending line with zero money fields. Pricing is filled in
// by the dish-update consumer so every money write goes through the same
// locked path.
func (s *service) AddDish(ctx context.Context, actorID *uuid.UUID, input AddDishInput) (*OrderDishDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	order, err := s.repo.FindOrderByID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil || order.IsRemoved() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	dish, err := s.repo.FindDish(ctx, input.DishID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dish")
	}
	if dish == nil || dish.IsRemoved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dish not found")
	}

	var line *models.OrderDish
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		// served-line check runs in the same transaction as the insert so a
		// racing transition cannot slip between the read and the write
		isAdditional, err := repo.HasServedLineForDish(ctx, input.OrderID, input.DishID)
		if err != nil {
			return err
		}
		line = &models.OrderDish{
			ID:           uuid.New(),
			OrderID:      input.OrderID,
			DishID:       input.DishID,
			Name:         dish.Name,
			Status:       enums.DishStatusPending,
			Quantity:     input.Quantity,
			IsAdditional: isAdditional,
		}
		if _, err := repo.CreateOrderDish(ctx, line); err != nil {
			return err
		}
		return s.enqueueDishUpdateTx(ctx, tx, line, actorID, "dish added")
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add dish")
	}

	dto := toOrderDishDTO(*line)
	return &dto, nil
}

// TransitionDishStatus moves a line exactly one step forward along
// pending→cooking→ready→completed.
func (s *service) TransitionDishStatus(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID, target enums.DishStatus) (*OrderDishDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown dish status %q", target))
	}

	var updated *models.OrderDish
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		// validate against the locked row so a stale read cannot commit a
		// backward or skipped step
		line, err := repo.FindOrderDishForUpdate(ctx, orderDishID)
		if err != nil {
			return err
		}
		if line == nil || line.IsRemoved {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order dish not found")
		}
		if target.Rank() != line.Status.Rank()+1 {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move dish from %s to %s", line.Status, target)).
				WithDetails(map[string]any{"from": line.Status, "to": target})
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": target}
		line.Status = target
		switch target {
		case enums.DishStatusCooking:
			updates["cooking_at"] = now
			line.CookingAt = &now
		case enums.DishStatusReady:
			updates["ready_at"] = now
			line.ReadyAt = &now
		case enums.DishStatusCompleted:
			updates["completed_at"] = now
			line.CompletedAt = &now
		}
		if err := repo.UpdateOrderDish(ctx, orderDishID, updates); err != nil {
			return err
		}

		// first line hitting the stove drags the order into cooking
		if target == enums.DishStatusCooking {
			order, err := repo.FindOrderForUpdate(ctx, line.OrderID)
			if err != nil {
				return err
			}
			if order != nil && order.Status == enums.OrderStatusPending {
				if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
					"status":     enums.OrderStatusCooking,
					"cooking_at": now,
				}); err != nil {
					return err
				}
			}
		}
		updated = line
		return s.enqueueDishUpdateTx(ctx, tx, line, actorID, "status "+target.String())
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition dish status")
	}

	dto := toOrderDishDTO(*updated)
	return &dto, nil
}

func (s *service) ReturnDish(ctx context.Context, actorID *uuid.UUID, input ReturnDishInput) (*OrderDishDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return quantity must be positive")
	}

	var updated *models.OrderDish
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		// the cap counts against the locked row, not a pre-transaction read,
		// so two racing returns cannot exceed the quantity together
		line, err := repo.FindOrderDishForUpdate(ctx, input.OrderDishID)
		if err != nil {
			return err
		}
		if line == nil || line.IsRemoved {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order dish not found")
		}
		returned := line.QuantityReturned + input.Quantity
		if returned > line.Quantity {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cannot return %d of %d", returned, line.Quantity)).
				WithDetails(map[string]any{"quantity": line.Quantity, "alreadyReturned": line.QuantityReturned})
		}
		if err := repo.UpdateOrderDish(ctx, input.OrderDishID, map[string]any{
			"quantity_returned": returned,
		}); err != nil {
			return err
		}
		line.QuantityReturned = returned
		updated = line
		return s.enqueueDishUpdateTx(ctx, tx, line, actorID, "dish returned")
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "return dish")
	}

	dto := toOrderDishDTO(*updated)
	return &dto, nil
}

func (s *service) RemoveDish(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindOrderDishForUpdate(ctx, orderDishID)
		if err != nil {
			return err
		}
		if line == nil || line.IsRemoved {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order dish not found")
		}
		if err := repo.UpdateOrderDish(ctx, orderDishID, map[string]any{"is_removed": true}); err != nil {
			return err
		}
		line.IsRemoved = true
		if err := s.enqueueDishUpdateTx(ctx, tx, line, actorID, "dish removed"); err != nil {
			return err
		}
		return s.enqueueCrudUpdateTx(ctx, tx, line.OrderID, enums.SnapshotActionUpdate, actorID)
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return appErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove dish")
	}
	return nil
}

// PriceOrderLines fills money fields for live lines that have none yet, from
// the current dish price. Runs inside the dish-update consumer before totals.
func (s *service) PriceOrderLines(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lines, err := repo.ListLiveOrderDishes(ctx, orderID)
		if err != nil {
			return err
		}
		for i := range lines {
			line := lines[i]
			if !line.Price.IsZero() {
				continue
			}
			dish, err := repo.FindDish(ctx, line.DishID)
			if err != nil {
				return err
			}
			if dish == nil {
				continue
			}
			line.Price = dish.Price
			deriveLineAmounts(&line)
			if err := repo.UpdateOrderDish(ctx, line.ID, map[string]any{
				"price":            line.Price,
				"discount_amount":  line.DiscountAmount,
				"surcharge_amount": line.SurchargeAmount,
				"final_price":      line.FinalPrice,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecalculateTotals rebuilds the four money fields from live lines inside a
// transaction holding the order row. An order whose live lines all vanished
// keeps its last totals.
func (s *service) RecalculateTotals(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		lines, err := repo.ListLiveOrderDishes(ctx, orderID)
		if err != nil {
			return err
		}
		if countLive(lines) == 0 {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "no live dishes, totals left untouched")
			return nil
		}

		return repo.UpdateOrderTotals(ctx, orderID, sumTotals(lines))
	})
}

// CheckDishesReady promotes a cooking order to ready once every live line
// reached the pass. Safe to run any number of times.
func (s *service) CheckDishesReady(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusCooking {
			return nil
		}

		lines, err := repo.ListLiveOrderDishes(ctx, orderID)
		if err != nil {
			return err
		}
		if !allLiveReady(lines) {
			return nil
		}

		return repo.UpdateOrder(ctx, orderID, map[string]any{
			"status":   enums.OrderStatusReady,
			"ready_at": time.Now().UTC(),
		})
	})
}

func (s *service) enqueueDishUpdateTx(ctx context.Context, tx *gorm.DB, line *models.OrderDish, actorID *uuid.UUID, reason string) error {
	key := queue.OrderPartitionKey(line.OrderID)
	_, err := s.jobs.EnqueueTx(ctx, tx, queue.EnqueueParams{
		Name:         enums.JobDishUpdate,
		PartitionKey: &key,
		Payload: queue.DishUpdatePayload{
			OrderID:          line.OrderID,
			OrderDishID:      &line.ID,
			OrderDish:        queue.NewOrderDishSnapshot(line),
			CalledByWorkerID: actorID,
			Reason:           reason,
			OccurredAt:       time.Now().UTC(),
		},
	})
	return err
}

func (s *service) enqueueCrudUpdateTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, action enums.SnapshotAction, actorID *uuid.UUID) error {
	key := queue.OrderPartitionKey(orderID)
	_, err := s.jobs.EnqueueTx(ctx, tx, queue.EnqueueParams{
		Name:         enums.JobCrudUpdate,
		PartitionKey: &key,
		Payload: queue.CrudUpdatePayload{
			OrderID:    orderID,
			Action:     action,
			WorkerID:   actorID,
			OccurredAt: time.Now().UTC(),
		},
	})
	return err
}
