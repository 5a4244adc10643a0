package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Toite-app/api-sub001/pkg/cache"
	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/redis/go-redis/v9"
)

type fakeCacheRedis struct {
	data map[string]string
}

func (f *fakeCacheRedis) Get(_ context.Context, key string) (string, error) {
	if val, ok := f.data[key]; ok {
		return val, nil
	}
	return "", redis.Nil
}

func (f *fakeCacheRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeCacheRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeCacheRedis) CacheKey(parts ...string) string {
	return "toite:cache:" + strings.Join(parts, ":")
}

func newCacheMiddleware(t *testing.T) (func(http.Handler) http.Handler, *fakeCacheRedis) {
	t.Helper()
	client := &fakeCacheRedis{data: map[string]string{}}
	store, err := cache.NewStore(client, config.CacheConfig{TTL: time.Minute}, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	mw := Cache(
		CacheOptions{Store: store, Version: "v1", Env: "test"},
		CacheConfig{Controller: "orders", Handler: "getOrder"},
	)
	return mw, client
}

func TestCacheSecondRequestSkipsHandler(t *testing.T) {
	mw, _ := newCacheMiddleware(t)

	hits := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"total":"25.50"}}`))
	}))

	request := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil)
		req = req.WithContext(WithWorkerID(req.Context(), "worker-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	first := request()
	if first.Code != http.StatusOK || hits != 1 {
		t.Fatalf("expected one handler hit, got code=%d hits=%d", first.Code, hits)
	}

	second := request()
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", second.Code)
	}
	if hits != 1 {
		t.Fatalf("expected handler to be skipped on hit, got %d hits", hits)
	}
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatal("expected cache hit header")
	}
	if second.Body.String() != `{"data":{"total":"25.50"}}` {
		t.Fatalf("unexpected cached body %s", second.Body.String())
	}
}

func TestCacheBypassesAnonymousRequests(t *testing.T) {
	mw, client := newCacheMiddleware(t)

	hits := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
	}
	if hits != 2 {
		t.Fatalf("expected handler on every anonymous request, got %d", hits)
	}
	if len(client.data) != 0 {
		t.Fatal("anonymous responses must not be cached")
	}
}

func TestCacheBypassesUnsafeMethods(t *testing.T) {
	mw, client := newCacheMiddleware(t)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req = req.WithContext(WithWorkerID(req.Context(), "worker-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if len(client.data) != 0 {
		t.Fatal("POST responses must not be cached")
	}
}

func TestCacheIsolatesActors(t *testing.T) {
	mw, _ := newCacheMiddleware(t)

	hits := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))

	for _, actor := range []string{"worker-1", "worker-2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req = req.WithContext(WithWorkerID(req.Context(), actor))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
	}
	if hits != 2 {
		t.Fatalf("expected distinct cache entries per actor, got %d hits", hits)
	}
}

func TestCacheSkipsErrorResponses(t *testing.T) {
	mw, client := newCacheMiddleware(t)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/missing", nil)
	req = req.WithContext(WithWorkerID(req.Context(), "worker-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if len(client.data) != 0 {
		t.Fatal("error responses must not be cached")
	}
}
