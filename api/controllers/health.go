package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Toite-app/api-sub001/api/responses"
	"github.com/Toite-app/api-sub001/pkg/config"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is the health-check surface shared by the database and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Toite-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only while both backing stores answer pings. The
// queue and cache both sit on these two, so nothing else needs probing.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Toite-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := []struct {
			name   string
			pinger Pinger
		}{
			{name: "postgres", pinger: dbP},
			{name: "redis", pinger: redisP},
		}
		for _, check := range checks {
			if check.pinger == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, check.name+" not configured"))
				return
			}
			if err := check.pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
