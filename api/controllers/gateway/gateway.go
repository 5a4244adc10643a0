package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Toite-app/api-sub001/api/middleware"
	"github.com/Toite-app/api-sub001/api/responses"
	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/socket"
)

// Socket upgrades an authenticated request to a websocket connection and runs
// the client's read/write loops against the local hub. The auth middleware has
// already seeded worker id and role; websocket clients that cannot set headers
// pass the token via the query string instead.
func Socket(hub *socket.Hub, cfg config.SocketConfig, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rawWorkerID := middleware.WorkerIDFromContext(r.Context())
		workerID, err := uuid.Parse(rawWorkerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		role, err := enums.ParseWorkerRole(middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure to the client.
			if logg != nil {
				logg.Warn(r.Context(), "websocket upgrade failed: "+err.Error())
			}
			return
		}

		client := socket.NewClient(conn, workerID, role, cfg)
		hub.Register(client)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go client.WriteLoop(ctx)
		client.ReadLoop(ctx, hub)
	}
}
