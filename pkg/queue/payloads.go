package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
)

// OrderDishSnapshot carries the line state at enqueue time. The percent
// modifiers stay out: they only exist inside the pricing pass.
type OrderDishSnapshot struct {
	ID               uuid.UUID        `json:"id"`
	OrderID          uuid.UUID        `json:"orderId"`
	DishID           uuid.UUID        `json:"dishId"`
	Name             string           `json:"name"`
	Status           enums.DishStatus `json:"status"`
	Quantity         int              `json:"quantity"`
	QuantityReturned int              `json:"quantityReturned"`
	IsAdditional     bool             `json:"isAdditional"`
	IsRemoved        bool             `json:"isRemoved"`
}

// NewOrderDishSnapshot captures a line for a dish-update payload.
func NewOrderDishSnapshot(line *models.OrderDish) *OrderDishSnapshot {
	if line == nil {
		return nil
	}
	return &OrderDishSnapshot{
		ID:               line.ID,
		OrderID:          line.OrderID,
		DishID:           line.DishID,
		Name:             line.Name,
		Status:           line.Status,
		Quantity:         line.Quantity,
		QuantityReturned: line.QuantityReturned,
		IsAdditional:     line.IsAdditional,
		IsRemoved:        line.IsRemoved,
	}
}

// DishUpdatePayload is enqueued whenever a dish inside an order changes in a
// way that affects pricing or kitchen readiness. The consumer re-reads the
// order; the snapshot records what the producer saw.
type DishUpdatePayload struct {
	OrderID          uuid.UUID          `json:"orderId"`
	OrderDishID      *uuid.UUID         `json:"orderDishId,omitempty"`
	OrderDish        *OrderDishSnapshot `json:"orderDish,omitempty"`
	CalledByWorkerID *uuid.UUID         `json:"calledByWorkerId,omitempty"`
	Reason           string             `json:"reason,omitempty"`
	OccurredAt       time.Time          `json:"occurredAt"`
}

// CrudUpdatePayload notifies subscribers that an order document was created,
// updated or removed. Only the order id is mandatory: a payload without an
// action is treated as an update by the consumer.
type CrudUpdatePayload struct {
	OrderID    uuid.UUID            `json:"orderId"`
	Action     enums.SnapshotAction `json:"action,omitempty"`
	WorkerID   *uuid.UUID           `json:"workerId,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// CreateSnapshotPayload asks the audit consumer to persist a point-in-time
// snapshot of a document.
type CreateSnapshotPayload struct {
	Model      string               `json:"model"`
	DocumentID uuid.UUID            `json:"documentId"`
	Action     enums.SnapshotAction `json:"action"`
	WorkerID   *uuid.UUID           `json:"workerId,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// CreateOwnersDefaultMenusPayload bootstraps default menus for owners that
// have none yet. An empty OwnerID means "scan all owners".
type CreateOwnersDefaultMenusPayload struct {
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

// OrderPartitionKey serializes jobs of a single order so its events apply in
// submission order.
func OrderPartitionKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

func marshalPayload(payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
