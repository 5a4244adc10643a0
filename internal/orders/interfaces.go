package orders

import (
	"context"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their dish lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// FindOrderForUpdate locks the order row for the duration of the
	// surrounding transaction. Must be called on a WithTx repository.
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	NextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int64, error)
	UpdateOrderTotals(ctx context.Context, id uuid.UUID, totals OrderTotals) error
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error

	FindDish(ctx context.Context, id uuid.UUID) (*models.Dish, error)

	CreateOrderDish(ctx context.Context, line *models.OrderDish) (*models.OrderDish, error)
	FindOrderDish(ctx context.Context, id uuid.UUID) (*models.OrderDish, error)
	// FindOrderDishForUpdate locks the line row for the duration of the
	// surrounding transaction. Must be called on a WithTx repository.
	FindOrderDishForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderDish, error)
	ListOrderDishes(ctx context.Context, orderID uuid.UUID) ([]models.OrderDish, error)
	ListLiveOrderDishes(ctx context.Context, orderID uuid.UUID) ([]models.OrderDish, error)
	UpdateOrderDish(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// HasServedLineForDish reports whether a non-removed line for the dish
	// already reached the ready or completed status.
	HasServedLineForDish(ctx context.Context, orderID, dishID uuid.UUID) (bool, error)
}

// OrderTotals carries the four derived money fields persisted together.
type OrderTotals struct {
	Subtotal        decimal.Decimal
	SurchargeAmount decimal.Decimal
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
}

// OrderFilters describe the inputs supported by the orders list.
type OrderFilters struct {
	RestaurantID   *uuid.UUID
	Status         *enums.OrderStatus
	Type           *enums.OrderType
	IncludeRemoved bool
}
