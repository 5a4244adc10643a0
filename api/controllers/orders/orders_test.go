package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/api/middleware"
	internalorders "github.com/Toite-app/api-sub001/internal/orders"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/pagination"
)

type stubOrdersService struct {
	create     func(ctx context.Context, actorID *uuid.UUID, input internalorders.CreateOrderInput) (*internalorders.OrderDTO, error)
	get        func(ctx context.Context, id uuid.UUID) (*internalorders.OrderDTO, error)
	list       func(ctx context.Context, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error)
	addDish    func(ctx context.Context, actorID *uuid.UUID, input internalorders.AddDishInput) (*internalorders.OrderDishDTO, error)
	transition func(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID, target enums.DishStatus) (*internalorders.OrderDishDTO, error)
	returnDish func(ctx context.Context, actorID *uuid.UUID, input internalorders.ReturnDishInput) (*internalorders.OrderDishDTO, error)
	removeDish func(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID) error
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, actorID *uuid.UUID, input internalorders.CreateOrderInput) (*internalorders.OrderDTO, error) {
	if s.create != nil {
		return s.create(ctx, actorID, input)
	}
	return &internalorders.OrderDTO{}, nil
}

func (s *stubOrdersService) GetOrder(ctx context.Context, id uuid.UUID) (*internalorders.OrderDTO, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &internalorders.OrderDTO{}, nil
}

func (s *stubOrdersService) ListOrders(ctx context.Context, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	if s.list != nil {
		return s.list(ctx, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) AddDish(ctx context.Context, actorID *uuid.UUID, input internalorders.AddDishInput) (*internalorders.OrderDishDTO, error) {
	if s.addDish != nil {
		return s.addDish(ctx, actorID, input)
	}
	return &internalorders.OrderDishDTO{}, nil
}

func (s *stubOrdersService) TransitionDishStatus(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID, target enums.DishStatus) (*internalorders.OrderDishDTO, error) {
	if s.transition != nil {
		return s.transition(ctx, actorID, orderDishID, target)
	}
	return &internalorders.OrderDishDTO{}, nil
}

func (s *stubOrdersService) ReturnDish(ctx context.Context, actorID *uuid.UUID, input internalorders.ReturnDishInput) (*internalorders.OrderDishDTO, error) {
	if s.returnDish != nil {
		return s.returnDish(ctx, actorID, input)
	}
	return &internalorders.OrderDishDTO{}, nil
}

func (s *stubOrdersService) RemoveDish(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID) error {
	if s.removeDish != nil {
		return s.removeDish(ctx, actorID, orderDishID)
	}
	return nil
}

func (s *stubOrdersService) PriceOrderLines(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (s *stubOrdersService) RecalculateTotals(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (s *stubOrdersService) CheckDishesReady(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func withURLParam(req *http.Request, name, value string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestCreateOrderParsesBodyAndActor(t *testing.T) {
	workerID := uuid.New()
	restaurantID := uuid.New()
	ownerID := uuid.New()

	svc := &stubOrdersService{
		create: func(ctx context.Context, actorID *uuid.UUID, input internalorders.CreateOrderInput) (*internalorders.OrderDTO, error) {
			if actorID == nil || *actorID != workerID {
				t.Fatalf("actor id not propagated")
			}
			if input.RestaurantID != restaurantID {
				t.Fatalf("unexpected restaurant id %s", input.RestaurantID)
			}
			if input.Type != enums.OrderTypeDineIn {
				t.Fatalf("unexpected type %s", input.Type)
			}
			if input.GuestsCount != 3 {
				t.Fatalf("unexpected guests count %d", input.GuestsCount)
			}
			return &internalorders.OrderDTO{ID: uuid.New(), Number: 7}, nil
		},
	}

	body := `{"restaurantId":"` + restaurantID.String() + `","ownerId":"` + ownerID.String() + `","type":"dine_in","guestsCount":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithWorkerID(req.Context(), workerID.String()))

	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateOrderRejectsUnknownType(t *testing.T) {
	body := `{"restaurantId":"` + uuid.NewString() + `","ownerId":"` + uuid.NewString() + `","type":"drive_through"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))

	resp := httptest.NewRecorder()
	Create(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListParsesPaginationAndFilters(t *testing.T) {
	restaurantID := uuid.New()
	svc := &stubOrdersService{
		list: func(ctx context.Context, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
			if params.Limit != 10 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if params.Cursor != "abc" {
				t.Fatalf("unexpected cursor %q", params.Cursor)
			}
			if filters.RestaurantID == nil || *filters.RestaurantID != restaurantID {
				t.Fatalf("restaurant filter not parsed")
			}
			if filters.Status == nil || *filters.Status != enums.OrderStatusCooking {
				t.Fatalf("status filter not parsed")
			}
			if !filters.IncludeRemoved {
				t.Fatalf("includeRemoved not parsed")
			}
			return &internalorders.OrderList{}, nil
		},
	}

	target := "/api/v1/orders?limit=10&cursor=abc&restaurantId=" + restaurantID.String() + "&status=cooking&includeRemoved=true"
	req := httptest.NewRequest(http.MethodGet, target, nil)

	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListRejectsBadStatusFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=microwaving", nil)

	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetReturnsOrderPayload(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		get: func(ctx context.Context, id uuid.UUID) (*internalorders.OrderDTO, error) {
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			return &internalorders.OrderDTO{ID: orderID, Total: "25.50"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	Get(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != "25.50" {
		t.Fatalf("unexpected total %q", envelope.Data.Total)
	}
}

func TestGetMapsNotFound(t *testing.T) {
	svc := &stubOrdersService{
		get: func(ctx context.Context, id uuid.UUID) (*internalorders.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	orderID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID, nil)
	req = withURLParam(req, "orderId", orderID)

	resp := httptest.NewRecorder()
	Get(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = withURLParam(req, "orderId", "not-a-uuid")

	resp := httptest.NewRecorder()
	Get(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddDishParsesLine(t *testing.T) {
	orderID := uuid.New()
	dishID := uuid.New()
	svc := &stubOrdersService{
		addDish: func(ctx context.Context, actorID *uuid.UUID, input internalorders.AddDishInput) (*internalorders.OrderDishDTO, error) {
			if input.OrderID != orderID || input.DishID != dishID {
				t.Fatalf("ids not propagated")
			}
			if input.Quantity != 2 {
				t.Fatalf("unexpected quantity %d", input.Quantity)
			}
			return &internalorders.OrderDishDTO{ID: uuid.New()}, nil
		},
	}

	body := `{"dishId":"` + dishID.String() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/dishes", strings.NewReader(body))
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	AddDish(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddDishRejectsZeroQuantity(t *testing.T) {
	orderID := uuid.NewString()
	body := `{"dishId":"` + uuid.NewString() + `","quantity":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/dishes", strings.NewReader(body))
	req = withURLParam(req, "orderId", orderID)

	resp := httptest.NewRecorder()
	AddDish(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTransitionDishMapsInvalidTransition(t *testing.T) {
	svc := &stubOrdersService{
		transition: func(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID, target enums.DishStatus) (*internalorders.OrderDishDTO, error) {
			if target != enums.DishStatusReady {
				t.Fatalf("unexpected target %s", target)
			}
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "dish status moves one step forward")
		},
	}

	lineID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/dishes/"+lineID+"/status", strings.NewReader(`{"status":"ready"}`))
	req = withURLParam(req, "orderDishId", lineID)

	resp := httptest.NewRecorder()
	TransitionDish(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestReturnDishPropagatesQuantity(t *testing.T) {
	lineID := uuid.New()
	svc := &stubOrdersService{
		returnDish: func(ctx context.Context, actorID *uuid.UUID, input internalorders.ReturnDishInput) (*internalorders.OrderDishDTO, error) {
			if input.OrderDishID != lineID {
				t.Fatalf("unexpected line id %s", input.OrderDishID)
			}
			if input.Quantity != 1 {
				t.Fatalf("unexpected quantity %d", input.Quantity)
			}
			return &internalorders.OrderDishDTO{ID: lineID, QuantityReturned: 1}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/dishes/"+lineID.String()+"/return", strings.NewReader(`{"quantity":1}`))
	req = withURLParam(req, "orderDishId", lineID.String())

	resp := httptest.NewRecorder()
	ReturnDish(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRemoveDishWritesConfirmation(t *testing.T) {
	lineID := uuid.New()
	called := false
	svc := &stubOrdersService{
		removeDish: func(ctx context.Context, actorID *uuid.UUID, orderDishID uuid.UUID) error {
			called = true
			if orderDishID != lineID {
				t.Fatalf("unexpected line id %s", orderDishID)
			}
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/dishes/"+lineID.String(), nil)
	req = withURLParam(req, "orderDishId", lineID.String())

	resp := httptest.NewRecorder()
	RemoveDish(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}
