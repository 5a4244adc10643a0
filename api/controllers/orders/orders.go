package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/api/middleware"
	"github.com/Toite-app/api-sub001/api/responses"
	"github.com/Toite-app/api-sub001/api/validators"
	internalorders "github.com/Toite-app/api-sub001/internal/orders"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/pagination"
)

type createOrderRequest struct {
	RestaurantID string  `json:"restaurantId" validate:"required,uuid4"`
	OwnerID      string  `json:"ownerId" validate:"required,uuid4"`
	Type         string  `json:"type" validate:"required"`
	GuestsCount  int     `json:"guestsCount" validate:"omitempty,min=1,max=100"`
	TableNumber  *string `json:"tableNumber" validate:"omitempty,max=16"`
	Note         *string `json:"note" validate:"omitempty,max=500"`
}

type addDishRequest struct {
	DishID   string `json:"dishId" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=100"`
}

type transitionDishRequest struct {
	Status string `json:"status" validate:"required"`
}

type returnDishRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=100"`
}

// Create opens a new order for a restaurant.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurantID, err := uuid.Parse(req.RestaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id"))
			return
		}
		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner id"))
			return
		}
		orderType, err := enums.ParseOrderType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}

		order, err := svc.CreateOrder(r.Context(), actorID(r), internalorders.CreateOrderInput{
			RestaurantID: restaurantID,
			OwnerID:      ownerID,
			Type:         orderType,
			GuestsCount:  req.GuestsCount,
			TableNumber:  req.TableNumber,
			Note:         req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List returns one cursor page of orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Get returns a single order with its dish lines.
func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AddDish appends one dish line to an open order.
func AddDish(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addDishRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dishID, err := uuid.Parse(req.DishID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dish id"))
			return
		}

		line, err := svc.AddDish(r.Context(), actorID(r), internalorders.AddDishInput{
			OrderID:  orderID,
			DishID:   dishID,
			Quantity: req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

// TransitionDish moves a dish line one step along the kitchen pipeline.
func TransitionDish(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderDishID, err := parseIDParam(r, "orderDishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionDishRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseDishStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dish status"))
			return
		}

		line, err := svc.TransitionDishStatus(r.Context(), actorID(r), orderDishID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// ReturnDish records a partial or full return of a served line.
func ReturnDish(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderDishID, err := parseIDParam(r, "orderDishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req returnDishRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.ReturnDish(r.Context(), actorID(r), internalorders.ReturnDishInput{
			OrderDishID: orderDishID,
			Quantity:    req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// RemoveDish soft-deletes a dish line.
func RemoveDish(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderDishID, err := parseIDParam(r, "orderDishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveDish(r.Context(), actorID(r), orderDishID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

func actorID(r *http.Request) *uuid.UUID {
	raw := middleware.WorkerIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func buildFilters(r *http.Request) (internalorders.OrderFilters, error) {
	var filters internalorders.OrderFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("restaurantId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id")
		}
		filters.RestaurantID = &id
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		orderType, err := enums.ParseOrderType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type")
		}
		filters.Type = &orderType
	}
	filters.IncludeRemoved = query.Get("includeRemoved") == "true"

	return filters, nil
}
