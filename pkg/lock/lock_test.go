package lock

import (
	"context"
	"testing"
	"time"

	"github.com/Toite-app/api-sub001/pkg/config"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, store *stubStore, cfg config.LockConfig) *Manager {
	t.Helper()
	mgr, err := NewManager(store, cfg, nil)
	require.NoError(t, err)
	mgr.sleep = func(context.Context, time.Duration) error { return nil }
	return mgr
}

func TestAcquireRelease(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	mgr := newTestManager(t, store, config.LockConfig{TTL: time.Minute, RetryAttempts: 1})

	handle, err := mgr.Acquire(ctx, OrderResource("order-1"))
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, handle.token, store.data["toite:locks:order:order-1"])

	require.NoError(t, mgr.Release(ctx, handle))
	assert.NotContains(t, store.data, "toite:locks:order:order-1")
}

func TestAcquireContended(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.data["toite:locks:order:order-1"] = "someone-else"
	mgr := newTestManager(t, store, config.LockConfig{TTL: time.Minute, RetryAttempts: 3})

	_, err := mgr.Acquire(ctx, OrderResource("order-1"))
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeLockUnavailable, appErr.Code())
	assert.Equal(t, 3, store.setNXCalls)
}

func TestAcquireMultiRollsBackPartial(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.data["toite:locks:order:order-2"] = "someone-else"
	mgr := newTestManager(t, store, config.LockConfig{TTL: time.Minute, RetryAttempts: 1})

	_, err := mgr.Acquire(ctx, OrderResource("order-1"), OrderResource("order-2"))
	require.Error(t, err)

	// first resource was grabbed and must have been rolled back
	assert.NotContains(t, store.data, "toite:locks:order:order-1")
	assert.Equal(t, "someone-else", store.data["toite:locks:order:order-2"])
}

func TestReleaseSkipsStolenLock(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	mgr := newTestManager(t, store, config.LockConfig{TTL: time.Minute, RetryAttempts: 1})

	handle, err := mgr.Acquire(ctx, OrderResource("order-1"))
	require.NoError(t, err)

	// TTL expired and another process took over
	store.data["toite:locks:order:order-1"] = "new-holder"

	require.NoError(t, mgr.Release(ctx, handle))
	assert.Equal(t, "new-holder", store.data["toite:locks:order:order-1"])
}

func TestExtend(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	mgr := newTestManager(t, store, config.LockConfig{TTL: time.Minute, RetryAttempts: 1})

	handle, err := mgr.Acquire(ctx, OrderResource("order-1"))
	require.NoError(t, err)

	require.NoError(t, mgr.Extend(ctx, handle))
	assert.Equal(t, 1, store.expireCalls)

	delete(store.data, "toite:locks:order:order-1")
	err = mgr.Extend(ctx, handle)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeLockUnavailable, appErr.Code())
}

func TestWithLock(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	mgr := newTestManager(t, store, config.LockConfig{TTL: time.Minute, RetryAttempts: 1})

	ran := false
	err := mgr.WithLock(ctx, []string{"create-owners-default-menus"}, func(ctx context.Context) error {
		ran = true
		assert.Contains(t, store.data, "toite:locks:create-owners-default-menus")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.NotContains(t, store.data, "toite:locks:create-owners-default-menus")
}

type stubStore struct {
	data        map[string]string
	setNXCalls  int
	expireCalls int
}

func newStubStore() *stubStore {
	return &stubStore{data: make(map[string]string)}
}

func (s *stubStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.setNXCalls++
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *stubStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.expireCalls++
	_, ok := s.data[key]
	return ok, nil
}

func (s *stubStore) LockKey(resource string) string {
	return "toite:" + resource
}
