package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/internal/menus"
	"github.com/Toite-app/api-sub001/internal/orders"
	"github.com/Toite-app/api-sub001/internal/snapshots"
	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/queue"
)

// snapshotModelOrder names the audited document type for orders.
const snapshotModelOrder = "order"

// bootstrapLockResource serializes the default-menus bootstrap across workers.
const bootstrapLockResource = "create-owners-default-menus"

type locker interface {
	WithLock(ctx context.Context, resources []string, fn func(ctx context.Context) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, subType enums.SubscriptionType, targetID, name string, data any)
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, params queue.EnqueueParams) (*models.Job, error)
}

// Handlers owns the worker-side order pipeline: every order mutation lands
// here as a job, and everything downstream of the mutation (pricing, totals,
// status promotion, audit, socket fan-out) happens in job order per order.
type Handlers struct {
	orders    orders.Service
	snapshots snapshots.Service
	menus     menus.Service
	locks     locker
	jobs      jobEnqueuer
	emitter   eventEmitter
	logg      *logger.Logger
}

// NewHandlers builds the order job handlers.
func NewHandlers(
	ordersSvc orders.Service,
	snapshotsSvc snapshots.Service,
	menusSvc menus.Service,
	locks locker,
	jobs jobEnqueuer,
	emitter eventEmitter,
	logg *logger.Logger,
) (*Handlers, error) {
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if snapshotsSvc == nil {
		return nil, fmt.Errorf("snapshots service required")
	}
	if menusSvc == nil {
		return nil, fmt.Errorf("menus service required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock manager required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("job producer required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Handlers{
		orders:    ordersSvc,
		snapshots: snapshotsSvc,
		menus:     menusSvc,
		locks:     locks,
		jobs:      jobs,
		emitter:   emitter,
		logg:      logg,
	}, nil
}

// Register wires the handlers into the queue registry.
func (h *Handlers) Register(registry *queue.Registry) {
	registry.Register(enums.JobDishUpdate, h.HandleDishUpdate)
	registry.Register(enums.JobCrudUpdate, h.HandleCrudUpdate)
	registry.Register(enums.JobCreateSnapshot, h.HandleCreateSnapshot)
	registry.Register(enums.JobCreateOwnersDefaultMenu, h.HandleCreateOwnersDefaultMenus)
}

// HandleDishUpdate reprices the order's lines, rebuilds totals, promotes the
// order when the kitchen is done, then schedules the audit snapshot and pushes
// the updated order to subscribers.
func (h *Handlers) HandleDishUpdate(ctx context.Context, job *models.Job) error {
	var payload queue.DishUpdatePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode dish-update payload: %w", err)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"job_id":   job.ID,
		"order_id": payload.OrderID,
		"reason":   payload.Reason,
	})

	if err := h.orders.PriceOrderLines(ctx, payload.OrderID); err != nil {
		return fmt.Errorf("price order lines: %w", err)
	}
	if err := h.orders.RecalculateTotals(ctx, payload.OrderID); err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			h.logg.Warn(logCtx, "order vanished before recalculation, dropping job")
			return nil
		}
		return fmt.Errorf("recalculate totals: %w", err)
	}
	if err := h.orders.CheckDishesReady(ctx, payload.OrderID); err != nil {
		return fmt.Errorf("check dishes ready: %w", err)
	}

	if err := h.enqueueSnapshot(ctx, payload.OrderID, enums.SnapshotActionUpdate, payload.CalledByWorkerID); err != nil {
		return err
	}

	h.emitOrder(ctx, payload.OrderID, "order:updated")
	h.logg.Info(logCtx, "dish update processed")
	return nil
}

// HandleCrudUpdate turns a create/update/delete of an order into an audit
// snapshot and a subscriber notification.
func (h *Handlers) HandleCrudUpdate(ctx context.Context, job *models.Job) error {
	var payload queue.CrudUpdatePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode crud-update payload: %w", err)
	}
	// the minimal payload names only the order, everything else defaults
	if payload.Action == "" {
		payload.Action = enums.SnapshotActionUpdate
	}
	if !payload.Action.IsValid() {
		return fmt.Errorf("unknown snapshot action %q", payload.Action)
	}

	if err := h.enqueueSnapshot(ctx, payload.OrderID, payload.Action, payload.WorkerID); err != nil {
		return err
	}

	switch payload.Action {
	case enums.SnapshotActionCreate:
		h.emitOrder(ctx, payload.OrderID, "order:created")
	case enums.SnapshotActionDelete:
		h.emitter.Emit(ctx, enums.SubscriptionTypeOrder, payload.OrderID.String(), "order:deleted",
			map[string]any{"orderId": payload.OrderID})
	default:
		h.emitOrder(ctx, payload.OrderID, "order:updated")
	}
	return nil
}

// HandleCreateSnapshot persists one audit history entry for the referenced
// document.
func (h *Handlers) HandleCreateSnapshot(ctx context.Context, job *models.Job) error {
	var payload queue.CreateSnapshotPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode create-snapshot payload: %w", err)
	}
	if payload.Model != snapshotModelOrder {
		return fmt.Errorf("unknown snapshot model %q", payload.Model)
	}

	input := snapshots.RecordInput{
		Model:      payload.Model,
		DocumentID: payload.DocumentID,
		Deleted:    payload.Action == enums.SnapshotActionDelete,
		WorkerID:   payload.WorkerID,
	}

	if !input.Deleted {
		order, err := h.orders.GetOrder(ctx, payload.DocumentID)
		if err != nil {
			if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
				h.logg.Warn(h.logg.WithOrderID(ctx, payload.DocumentID.String()), "order vanished before snapshot, dropping job")
				return nil
			}
			return fmt.Errorf("load order for snapshot: %w", err)
		}
		data, err := documentToMap(order)
		if err != nil {
			return fmt.Errorf("flatten order for snapshot: %w", err)
		}
		input.Data = data
	}

	if _, err := h.snapshots.Record(ctx, input); err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// HandleCreateOwnersDefaultMenus seeds default menus under the bootstrap lock
// so only one worker runs the non-idempotent seeding at a time.
func (h *Handlers) HandleCreateOwnersDefaultMenus(ctx context.Context, job *models.Job) error {
	err := h.locks.WithLock(ctx, []string{bootstrapLockResource}, func(ctx context.Context) error {
		created, err := h.menus.CreateDefaultMenus(ctx)
		if err != nil {
			return err
		}
		if created > 0 {
			h.logg.Info(h.logg.WithField(ctx, "job_id", job.ID), fmt.Sprintf("bootstrapped %d default menus", created))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bootstrap default menus: %w", err)
	}
	return nil
}

func (h *Handlers) enqueueSnapshot(ctx context.Context, orderID uuid.UUID, action enums.SnapshotAction, workerID *uuid.UUID) error {
	key := queue.OrderPartitionKey(orderID)
	_, err := h.jobs.Enqueue(ctx, queue.EnqueueParams{
		Name:         enums.JobCreateSnapshot,
		PartitionKey: &key,
		Payload: queue.CreateSnapshotPayload{
			Model:      snapshotModelOrder,
			DocumentID: orderID,
			Action:     action,
			WorkerID:   workerID,
			OccurredAt: time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("enqueue snapshot: %w", err)
	}
	return nil
}

// emitOrder pushes the current order state to subscribers. Delivery is best
// effort, a missing order only logs.
func (h *Handlers) emitOrder(ctx context.Context, orderID uuid.UUID, name string) {
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		h.logg.Warn(h.logg.WithOrderID(ctx, orderID.String()), "order not available for socket push")
		return
	}
	h.emitter.Emit(ctx, enums.SubscriptionTypeOrder, orderID.String(), name, order)
}

func documentToMap(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
