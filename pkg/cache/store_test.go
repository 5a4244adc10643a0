package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Toite-app/api-sub001/pkg/config"
)

func testParts(actorID string) KeyParts {
	return KeyParts{
		Version:    "v1",
		Env:        "test",
		Controller: "orders",
		Handler:    "list",
		ActorID:    actorID,
		Role:       "waiter",
		Method:     "GET",
		Query:      url.Values{"page": {"1"}},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store, err := NewStore(client, config.CacheConfig{TTL: time.Minute}, nil)
	require.NoError(t, err)

	parts := testParts("worker-1")
	hit, err := store.Get(ctx, parts)
	require.NoError(t, err)
	assert.Nil(t, hit)

	store.Set(ctx, parts, Entry{
		Status:      200,
		ContentType: "application/json",
		Body:        json.RawMessage(`{"ok":true}`),
	})

	hit, err = store.Get(ctx, parts)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, 200, hit.Status)
	assert.JSONEq(t, `{"ok":true}`, string(hit.Body))
	assert.False(t, hit.StoredAt.IsZero())
}

func TestStoreIsolatesActors(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store, err := NewStore(client, config.CacheConfig{TTL: time.Minute}, nil)
	require.NoError(t, err)

	store.Set(ctx, testParts("worker-1"), Entry{Status: 200, Body: json.RawMessage(`{"who":"worker-1"}`)})

	hit, err := store.Get(ctx, testParts("worker-2"))
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestStoreDegradesToMissOnRedisFailure(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	store, err := NewStore(client, config.CacheConfig{TTL: time.Minute}, nil)
	require.NoError(t, err)

	hit, getErr := store.Get(ctx, testParts("worker-1"))
	require.NoError(t, getErr)
	assert.Nil(t, hit)

	// writes are best effort too
	store.Set(ctx, testParts("worker-1"), Entry{Status: 200})
}

func TestStoreDropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store, err := NewStore(client, config.CacheConfig{TTL: time.Minute}, nil)
	require.NoError(t, err)

	parts := testParts("worker-1")
	key := client.CacheKey(parts.Segments()...)
	client.data[key] = "not-json"

	hit, getErr := store.Get(ctx, parts)
	require.NoError(t, getErr)
	assert.Nil(t, hit)
	assert.NotContains(t, client.data, key)
}

func TestKeyCanonicalizesQueryOrder(t *testing.T) {
	a := testParts("worker-1")
	a.Query = url.Values{"b": {"2"}, "a": {"1"}}
	b := testParts("worker-1")
	b.Query = url.Values{"a": {"1"}, "b": {"2"}}

	assert.Equal(t, a.Segments(), b.Segments())

	c := testParts("worker-1")
	c.Query = url.Values{"a": {"1"}, "b": {"3"}}
	assert.NotEqual(t, a.Segments(), c.Segments())
}

type fakeRedis struct {
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value.(string)
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeRedis) CacheKey(parts ...string) string {
	return "toite:cache:" + strings.Join(parts, ":")
}
