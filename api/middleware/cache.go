package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Toite-app/api-sub001/pkg/cache"
)

// CacheConfig declares how one route participates in the response cache.
type CacheConfig struct {
	Controller string
	Handler    string
	TTL        time.Duration // 0 uses the store default
}

// CacheOptions carry the process-wide cache identity.
type CacheOptions struct {
	Store   *cache.Store
	Version string
	Env     string
}

// Cache wraps a safe handler with the read-through response cache. Only GET
// requests by an authenticated worker are cached; everything else passes
// straight through. A hit short-circuits the handler entirely.
func Cache(opts CacheOptions, cfg CacheConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if opts.Store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			actorID := WorkerIDFromContext(r.Context())
			if actorID == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := cache.KeyParts{
				Version:    opts.Version,
				Env:        opts.Env,
				Controller: cfg.Controller,
				Handler:    cfg.Handler,
				ActorID:    actorID,
				Role:       RoleFromContext(r.Context()),
				Method:     r.Method,
				Query:      r.URL.Query(),
				Params:     routeParams(r),
			}

			if entry, err := opts.Store.Get(r.Context(), parts); err == nil && entry != nil {
				w.Header().Set("Content-Type", entry.ContentType)
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(entry.Status)
				_, _ = w.Write(entry.Body)
				return
			}

			rec := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusOK && rec.status < http.StatusMultipleChoices {
				opts.Store.SetWithTTL(r.Context(), parts, cache.Entry{
					Status:      rec.status,
					ContentType: rec.Header().Get("Content-Type"),
					Body:        rec.body.Bytes(),
				}, cfg.TTL)
			}
		})
	}
}

func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || len(rctx.URLParams.Keys) == 0 {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// captureWriter tees the response so a miss can be written back to the cache.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}
