package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Toite-app/api-sub001/api/controllers"
	gatewaycontrollers "github.com/Toite-app/api-sub001/api/controllers/gateway"
	ordercontrollers "github.com/Toite-app/api-sub001/api/controllers/orders"
	"github.com/Toite-app/api-sub001/api/middleware"
	internalorders "github.com/Toite-app/api-sub001/internal/orders"
	"github.com/Toite-app/api-sub001/pkg/cache"
	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/socket"
)

// Deps carries everything the HTTP surface needs. The gateway hub is optional:
// worker processes reuse this router for health and metrics without sockets.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger

	Orders     internalorders.Service
	CacheStore *cache.Store
	Hub        *socket.Hub
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	cacheOpts := middleware.CacheOptions{
		Store:   deps.CacheStore,
		Version: cfg.App.Version,
		Env:     cfg.App.Env,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))

			r.With(middleware.Cache(cacheOpts, middleware.CacheConfig{
				Controller: "orders",
				Handler:    "get",
				TTL:        cfg.Cache.TTL,
			})).Get("/{orderId}", ordercontrollers.Get(deps.Orders, logg))

			r.Post("/{orderId}/dishes", ordercontrollers.AddDish(deps.Orders, logg))

			r.With(middleware.RequireRoles(logg,
				enums.WorkerRoleKitchen,
				enums.WorkerRoleWaiter,
				enums.WorkerRoleAdmin,
				enums.WorkerRoleSystemAdmin,
			)).Post("/dishes/{orderDishId}/status", ordercontrollers.TransitionDish(deps.Orders, logg))

			r.Post("/dishes/{orderDishId}/return", ordercontrollers.ReturnDish(deps.Orders, logg))

			r.With(middleware.RequireRoles(logg,
				enums.WorkerRoleWaiter,
				enums.WorkerRoleAdmin,
				enums.WorkerRoleSystemAdmin,
				enums.WorkerRoleOwner,
			)).Delete("/dishes/{orderDishId}", ordercontrollers.RemoveDish(deps.Orders, logg))
		})
	})

	if deps.Hub != nil {
		r.With(middleware.Auth(cfg.JWT, logg)).
			Get("/ws", gatewaycontrollers.Socket(deps.Hub, cfg.Socket, logg))
	}

	return r
}
