package orders

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersvc "github.com/Toite-app/api-sub001/internal/orders"
	"github.com/Toite-app/api-sub001/internal/snapshots"
	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/pagination"
	"github.com/Toite-app/api-sub001/pkg/queue"
)

type stubOrders struct {
	calls      []string
	order      *ordersvc.OrderDTO
	recalcErr  error
	getErr     error
	priceErr   error
	readyErr   error
	lastLoaded uuid.UUID
}

func (s *stubOrders) CreateOrder(context.Context, *uuid.UUID, ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
	return nil, nil
}

func (s *stubOrders) GetOrder(_ context.Context, id uuid.UUID) (*ordersvc.OrderDTO, error) {
	s.calls = append(s.calls, "get")
	s.lastLoaded = id
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.order, nil
}

func (s *stubOrders) ListOrders(context.Context, pagination.Params, ordersvc.OrderFilters) (*ordersvc.OrderList, error) {
	return nil, nil
}

func (s *stubOrders) AddDish(context.Context, *uuid.UUID, ordersvc.AddDishInput) (*ordersvc.OrderDishDTO, error) {
	return nil, nil
}

func (s *stubOrders) TransitionDishStatus(context.Context, *uuid.UUID, uuid.UUID, enums.DishStatus) (*ordersvc.OrderDishDTO, error) {
	return nil, nil
}

func (s *stubOrders) ReturnDish(context.Context, *uuid.UUID, ordersvc.ReturnDishInput) (*ordersvc.OrderDishDTO, error) {
	return nil, nil
}

func (s *stubOrders) RemoveDish(context.Context, *uuid.UUID, uuid.UUID) error {
	return nil
}

func (s *stubOrders) PriceOrderLines(context.Context, uuid.UUID) error {
	s.calls = append(s.calls, "price")
	return s.priceErr
}

func (s *stubOrders) RecalculateTotals(context.Context, uuid.UUID) error {
	s.calls = append(s.calls, "recalculate")
	return s.recalcErr
}

func (s *stubOrders) CheckDishesReady(context.Context, uuid.UUID) error {
	s.calls = append(s.calls, "ready")
	return s.readyErr
}

type stubSnapshots struct {
	recorded []snapshots.RecordInput
	err      error
}

func (s *stubSnapshots) Record(_ context.Context, input snapshots.RecordInput) (*models.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.recorded = append(s.recorded, input)
	return &models.Snapshot{ID: uuid.New()}, nil
}

func (s *stubSnapshots) History(context.Context, string, uuid.UUID, int) ([]models.Snapshot, error) {
	return nil, nil
}

type stubMenus struct {
	created int
	err     error
}

func (s *stubMenus) CreateDefaultMenus(context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.created++
	return 2, nil
}

func (s *stubMenus) GetDefaultMenu(context.Context, uuid.UUID) (*models.Menu, error) {
	return nil, nil
}

type stubLocker struct {
	resources []string
	err       error
}

func (s *stubLocker) WithLock(ctx context.Context, resources []string, fn func(ctx context.Context) error) error {
	s.resources = append(s.resources, resources...)
	if s.err != nil {
		return s.err
	}
	return fn(ctx)
}

type stubJobs struct {
	enqueued []queue.EnqueueParams
	err      error
}

func (s *stubJobs) Enqueue(_ context.Context, params queue.EnqueueParams) (*models.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.enqueued = append(s.enqueued, params)
	return &models.Job{ID: uuid.New(), Name: params.Name}, nil
}

type emittedEvent struct {
	subType  enums.SubscriptionType
	targetID string
	name     string
	data     any
}

type stubEmitter struct {
	events []emittedEvent
}

func (s *stubEmitter) Emit(_ context.Context, subType enums.SubscriptionType, targetID, name string, data any) {
	s.events = append(s.events, emittedEvent{subType: subType, targetID: targetID, name: name, data: data})
}

type handlerFixture struct {
	handlers  *Handlers
	orders    *stubOrders
	snapshots *stubSnapshots
	menus     *stubMenus
	locker    *stubLocker
	jobs      *stubJobs
	emitter   *stubEmitter
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	fx := &handlerFixture{
		orders:    &stubOrders{order: &ordersvc.OrderDTO{ID: uuid.New(), Total: "25.50"}},
		snapshots: &stubSnapshots{},
		menus:     &stubMenus{},
		locker:    &stubLocker{},
		jobs:      &stubJobs{},
		emitter:   &stubEmitter{},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handlers, err := NewHandlers(fx.orders, fx.snapshots, fx.menus, fx.locker, fx.jobs, fx.emitter, logg)
	require.NoError(t, err)
	fx.handlers = handlers
	return fx
}

func makeJob(t *testing.T, name enums.JobName, payload any) *models.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &models.Job{ID: uuid.New(), Name: name, Payload: raw}
}

func TestHandleDishUpdateRunsPipelineInOrder(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)
	orderID := uuid.New()
	workerID := uuid.New()

	job := makeJob(t, enums.JobDishUpdate, queue.DishUpdatePayload{OrderID: orderID, CalledByWorkerID: &workerID})
	require.NoError(t, fx.handlers.HandleDishUpdate(ctx, job))

	assert.Equal(t, []string{"price", "recalculate", "ready", "get"}, fx.orders.calls)

	require.Len(t, fx.jobs.enqueued, 1)
	assert.Equal(t, enums.JobCreateSnapshot, fx.jobs.enqueued[0].Name)
	require.NotNil(t, fx.jobs.enqueued[0].PartitionKey)
	assert.Equal(t, queue.OrderPartitionKey(orderID), *fx.jobs.enqueued[0].PartitionKey)

	require.Len(t, fx.emitter.events, 1)
	assert.Equal(t, enums.SubscriptionTypeOrder, fx.emitter.events[0].subType)
	assert.Equal(t, orderID.String(), fx.emitter.events[0].targetID)
	assert.Equal(t, "order:updated", fx.emitter.events[0].name)
}

func TestHandleDishUpdateDropsVanishedOrder(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)
	fx.orders.recalcErr = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")

	job := makeJob(t, enums.JobDishUpdate, queue.DishUpdatePayload{OrderID: uuid.New()})
	require.NoError(t, fx.handlers.HandleDishUpdate(ctx, job))
	assert.Empty(t, fx.jobs.enqueued)
	assert.Empty(t, fx.emitter.events)
}

func TestHandleDishUpdatePropagatesPricingFailure(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)
	fx.orders.priceErr = pkgerrors.New(pkgerrors.CodeInternal, "boom")

	job := makeJob(t, enums.JobDishUpdate, queue.DishUpdatePayload{OrderID: uuid.New()})
	require.Error(t, fx.handlers.HandleDishUpdate(ctx, job))
	assert.Empty(t, fx.jobs.enqueued)
}

func TestHandleCrudUpdateEmitsPerAction(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	cases := []struct {
		action enums.SnapshotAction
		event  string
	}{
		{action: enums.SnapshotActionCreate, event: "order:created"},
		{action: enums.SnapshotActionUpdate, event: "order:updated"},
		{action: enums.SnapshotActionDelete, event: "order:deleted"},
	}
	for _, tc := range cases {
		fx := newHandlerFixture(t)
		job := makeJob(t, enums.JobCrudUpdate, queue.CrudUpdatePayload{OrderID: orderID, Action: tc.action})
		require.NoError(t, fx.handlers.HandleCrudUpdate(ctx, job))

		require.Len(t, fx.jobs.enqueued, 1, tc.action)
		require.Len(t, fx.emitter.events, 1, tc.action)
		assert.Equal(t, tc.event, fx.emitter.events[0].name)
	}
}

func TestHandleCrudUpdateDefaultsBareOrderIDToUpdate(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)
	orderID := uuid.New()

	// producers may send nothing beyond the order id
	job := &models.Job{ID: uuid.New(), Name: enums.JobCrudUpdate,
		Payload: []byte(`{"orderId":"` + orderID.String() + `"}`)}
	require.NoError(t, fx.handlers.HandleCrudUpdate(ctx, job))

	require.Len(t, fx.jobs.enqueued, 1)
	var snapshot queue.CreateSnapshotPayload
	require.NoError(t, json.Unmarshal(mustMarshalPayload(t, fx.jobs.enqueued[0].Payload), &snapshot))
	assert.Equal(t, enums.SnapshotActionUpdate, snapshot.Action)

	require.Len(t, fx.emitter.events, 1)
	assert.Equal(t, "order:updated", fx.emitter.events[0].name)
}

func mustMarshalPayload(t *testing.T, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return raw
}

func TestHandleCrudUpdateRejectsUnknownAction(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)

	job := makeJob(t, enums.JobCrudUpdate, queue.CrudUpdatePayload{OrderID: uuid.New(), Action: "UPSERT"})
	require.Error(t, fx.handlers.HandleCrudUpdate(ctx, job))
	assert.Empty(t, fx.jobs.enqueued)
}

func TestHandleCreateSnapshotRecordsOrderState(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)
	documentID := uuid.New()
	workerID := uuid.New()

	job := makeJob(t, enums.JobCreateSnapshot, queue.CreateSnapshotPayload{
		Model:      "order",
		DocumentID: documentID,
		Action:     enums.SnapshotActionUpdate,
		WorkerID:   &workerID,
	})
	require.NoError(t, fx.handlers.HandleCreateSnapshot(ctx, job))

	require.Len(t, fx.snapshots.recorded, 1)
	recorded := fx.snapshots.recorded[0]
	assert.Equal(t, "order", recorded.Model)
	assert.Equal(t, documentID, recorded.DocumentID)
	assert.False(t, recorded.Deleted)
	require.NotNil(t, recorded.Data)
	assert.Equal(t, "25.50", recorded.Data["total"])
}

func TestHandleCreateSnapshotDeleteSkipsDocumentLoad(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)

	job := makeJob(t, enums.JobCreateSnapshot, queue.CreateSnapshotPayload{
		Model:      "order",
		DocumentID: uuid.New(),
		Action:     enums.SnapshotActionDelete,
	})
	require.NoError(t, fx.handlers.HandleCreateSnapshot(ctx, job))

	assert.Empty(t, fx.orders.calls)
	require.Len(t, fx.snapshots.recorded, 1)
	assert.True(t, fx.snapshots.recorded[0].Deleted)
	assert.Nil(t, fx.snapshots.recorded[0].Data)
}

func TestHandleCreateSnapshotDropsVanishedOrder(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)
	fx.orders.getErr = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")

	job := makeJob(t, enums.JobCreateSnapshot, queue.CreateSnapshotPayload{
		Model:      "order",
		DocumentID: uuid.New(),
		Action:     enums.SnapshotActionUpdate,
	})
	require.NoError(t, fx.handlers.HandleCreateSnapshot(ctx, job))
	assert.Empty(t, fx.snapshots.recorded)
}

func TestHandleCreateOwnersDefaultMenusRunsUnderLock(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)

	job := makeJob(t, enums.JobCreateOwnersDefaultMenu, queue.CreateOwnersDefaultMenusPayload{})
	require.NoError(t, fx.handlers.HandleCreateOwnersDefaultMenus(ctx, job))

	assert.Equal(t, []string{"create-owners-default-menus"}, fx.locker.resources)
	assert.Equal(t, 1, fx.menus.created)
}

func TestHandleCreateOwnersDefaultMenusPropagatesLockFailure(t *testing.T) {
	ctx := context.Background()
	fx := newHandlerFixture(t)
	fx.locker.err = pkgerrors.New(pkgerrors.CodeLockUnavailable, "lock busy")

	job := makeJob(t, enums.JobCreateOwnersDefaultMenu, queue.CreateOwnersDefaultMenusPayload{})
	require.Error(t, fx.handlers.HandleCreateOwnersDefaultMenus(ctx, job))
	assert.Equal(t, 0, fx.menus.created)
}
