package orders

import (
	"time"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/google/uuid"
)

// CreateOrderInput captures the fields a waiter submits when opening an order.
type CreateOrderInput struct {
	RestaurantID uuid.UUID
	OwnerID      uuid.UUID
	Type         enums.OrderType
	GuestsCount  int
	TableNumber  *string
	Note         *string
}

// AddDishInput adds one dish line to an open order.
type AddDishInput struct {
	OrderID  uuid.UUID
	DishID   uuid.UUID
	Quantity int
}

// ReturnDishInput records a partial or full return of a served line.
type ReturnDishInput struct {
	OrderDishID uuid.UUID
	Quantity    int
}

// OrderDishDTO is the wire shape of one dish line.
type OrderDishDTO struct {
	ID               uuid.UUID        `json:"id"`
	DishID           uuid.UUID        `json:"dishId"`
	Name             string           `json:"name"`
	Status           enums.DishStatus `json:"status"`
	Quantity         int              `json:"quantity"`
	QuantityReturned int              `json:"quantityReturned"`
	Price            string           `json:"price"`
	DiscountPercent  string           `json:"discountPercent"`
	DiscountAmount   string           `json:"discountAmount"`
	SurchargePercent string           `json:"surchargePercent"`
	SurchargeAmount  string           `json:"surchargeAmount"`
	FinalPrice       string           `json:"finalPrice"`
	IsAdditional     bool             `json:"isAdditional"`
	IsRemoved        bool             `json:"isRemoved"`
	CookingAt        *time.Time       `json:"cookingAt,omitempty"`
	ReadyAt          *time.Time       `json:"readyAt,omitempty"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// OrderDTO is the wire shape of an order with its dish lines. Money fields are
// decimal strings so clients never see float drift.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	RestaurantID    uuid.UUID         `json:"restaurantId"`
	Number          int64             `json:"number"`
	Type            enums.OrderType   `json:"type"`
	Status          enums.OrderStatus `json:"status"`
	GuestsCount     int               `json:"guestsCount"`
	TableNumber     *string           `json:"tableNumber,omitempty"`
	Note            *string           `json:"note,omitempty"`
	Subtotal        string            `json:"subtotal"`
	SurchargeAmount string            `json:"surchargeAmount"`
	DiscountAmount  string            `json:"discountAmount"`
	Total           string            `json:"total"`
	Dishes          []OrderDishDTO    `json:"dishes,omitempty"`
	CookingAt       *time.Time        `json:"cookingAt,omitempty"`
	ReadyAt         *time.Time        `json:"readyAt,omitempty"`
	DeliveredAt     *time.Time        `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// OrderList is one cursor page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
	HasMore    bool       `json:"hasMore"`
}

func toOrderDishDTO(line models.OrderDish) OrderDishDTO {
	return OrderDishDTO{
		ID:               line.ID,
		DishID:           line.DishID,
		Name:             line.Name,
		Status:           line.Status,
		Quantity:         line.Quantity,
		QuantityReturned: line.QuantityReturned,
		Price:            line.Price.StringFixed(2),
		DiscountPercent:  line.DiscountPercent.StringFixed(2),
		DiscountAmount:   line.DiscountAmount.StringFixed(2),
		SurchargePercent: line.SurchargePercent.StringFixed(2),
		SurchargeAmount:  line.SurchargeAmount.StringFixed(2),
		FinalPrice:       line.FinalPrice.StringFixed(2),
		IsAdditional:     line.IsAdditional,
		IsRemoved:        line.IsRemoved,
		CookingAt:        line.CookingAt,
		ReadyAt:          line.ReadyAt,
		CompletedAt:      line.CompletedAt,
		CreatedAt:        line.CreatedAt,
	}
}

func toOrderDTO(order models.Order, includeDishes bool) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		RestaurantID:    order.RestaurantID,
		Number:          order.Number,
		Type:            order.Type,
		Status:          order.Status,
		GuestsCount:     order.GuestsCount,
		TableNumber:     order.TableNumber,
		Note:            order.Note,
		Subtotal:        order.Subtotal.StringFixed(2),
		SurchargeAmount: order.SurchargeAmount.StringFixed(2),
		DiscountAmount:  order.DiscountAmount.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		CookingAt:       order.CookingAt,
		ReadyAt:         order.ReadyAt,
		DeliveredAt:     order.DeliveredAt,
		CreatedAt:       order.CreatedAt,
	}
	if includeDishes {
		dto.Dishes = make([]OrderDishDTO, 0, len(order.Dishes))
		for _, line := range order.Dishes {
			dto.Dishes = append(dto.Dishes, toOrderDishDTO(line))
		}
	}
	return dto
}
