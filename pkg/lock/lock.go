package lock

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Toite-app/api-sub001/pkg/config"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resourcePrefix = "locks"

// Store defines the Redis operations the manager depends on.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	LockKey(resource string) string
}

// Handle represents an acquired lock over one or more resources. The holder
// token ties the handle to this acquisition; another process that steals an
// expired key never gets its token deleted by us.
type Handle struct {
	resources []string
	token     string
	ttl       time.Duration
}

// Resources returns the resource names held by the handle.
func (h *Handle) Resources() []string {
	out := make([]string, len(h.resources))
	copy(out, h.resources)
	return out
}

// Token exposes the holder token, mainly for logging.
func (h *Handle) Token() string {
	return h.token
}

// Manager hands out Redis-backed distributed locks with bounded, jittered
// retries.
type Manager struct {
	store  Store
	logg   *logger.Logger
	ttl    time.Duration
	tries  int
	delay  time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	newTok func() string
}

// NewManager wires a lock manager from config.
func NewManager(store Store, cfg config.LockConfig, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, stderrors.New("lock manager requires a redis store")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	tries := cfg.RetryAttempts
	if tries <= 0 {
		tries = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &Manager{
		store:  store,
		logg:   logg,
		ttl:    ttl,
		tries:  tries,
		delay:  delay,
		now:    time.Now,
		sleep:  sleepCtx,
		newTok: uuid.NewString,
	}, nil
}

// Acquire takes every resource or none. On a partial grab the already-held
// keys are rolled back before the next attempt. Exhausting the retry budget
// returns CodeLockUnavailable.
func (m *Manager) Acquire(ctx context.Context, resources ...string) (*Handle, error) {
	if len(resources) == 0 {
		return nil, stderrors.New("at least one resource is required")
	}
	token := m.newTok()

	for attempt := 0; attempt < m.tries; attempt++ {
		if attempt > 0 {
			if err := m.sleep(ctx, jittered(m.delay)); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeLockUnavailable, err, "lock acquisition canceled")
			}
		}

		acquired, err := m.tryAcquireAll(ctx, resources, token)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock store failure")
		}
		if acquired {
			return &Handle{resources: resources, token: token, ttl: m.ttl}, nil
		}
	}

	if m.logg != nil {
		m.logg.Warn(ctx, fmt.Sprintf("lock unavailable after %d attempts: %v", m.tries, resources))
	}
	return nil, pkgerrors.New(pkgerrors.CodeLockUnavailable, "could not acquire lock").
		WithDetails(map[string]any{"resources": resources})
}

func (m *Manager) tryAcquireAll(ctx context.Context, resources []string, token string) (bool, error) {
	held := make([]string, 0, len(resources))
	for _, resource := range resources {
		key := m.store.LockKey(ResourceKey(resource))
		ok, err := m.store.SetNX(ctx, key, token, m.ttl)
		if err != nil {
			m.rollback(ctx, held, token)
			return false, err
		}
		if !ok {
			m.rollback(ctx, held, token)
			return false, nil
		}
		held = append(held, resource)
	}
	return true, nil
}

func (m *Manager) rollback(ctx context.Context, resources []string, token string) {
	for _, resource := range resources {
		if err := m.releaseOne(ctx, resource, token); err != nil && m.logg != nil {
			m.logg.Warn(ctx, fmt.Sprintf("lock rollback failed for %s: %v", resource, err))
		}
	}
}

// Release frees every resource the handle still owns. Keys whose token no
// longer matches (expired and re-acquired elsewhere) are left alone.
func (m *Manager) Release(ctx context.Context, handle *Handle) error {
	if handle == nil {
		return nil
	}
	var firstErr error
	for _, resource := range handle.resources {
		if err := m.releaseOne(ctx, resource, handle.token); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) releaseOne(ctx context.Context, resource, token string) error {
	key := m.store.LockKey(ResourceKey(resource))
	value, err := m.store.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock holder: %w", err)
	}
	if value != token {
		return nil
	}
	if err := m.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

// Extend pushes the TTL forward for long-running holders. It fails with
// CodeLockUnavailable when any key has already expired or changed hands.
func (m *Manager) Extend(ctx context.Context, handle *Handle) error {
	if handle == nil {
		return stderrors.New("nil lock handle")
	}
	for _, resource := range handle.resources {
		key := m.store.LockKey(ResourceKey(resource))
		value, err := m.store.Get(ctx, key)
		if err != nil {
			if stderrors.Is(err, redis.Nil) {
				return pkgerrors.New(pkgerrors.CodeLockUnavailable, "lock expired before extend").
					WithDetails(map[string]any{"resource": resource})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock store failure")
		}
		if value != handle.token {
			return pkgerrors.New(pkgerrors.CodeLockUnavailable, "lock taken over by another holder").
				WithDetails(map[string]any{"resource": resource})
		}
		if _, err := m.store.Expire(ctx, key, handle.ttl); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend lock")
		}
	}
	return nil
}

// WithLock runs fn while holding the given resources, releasing them after.
func (m *Manager) WithLock(ctx context.Context, resources []string, fn func(ctx context.Context) error) error {
	handle, err := m.Acquire(ctx, resources...)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := m.Release(ctx, handle); releaseErr != nil && m.logg != nil {
			m.logg.Warn(ctx, fmt.Sprintf("lock release failed: %v", releaseErr))
		}
	}()
	return fn(ctx)
}

// ResourceKey joins the shared lock prefix with a resource name.
func ResourceKey(resource string) string {
	return resourcePrefix + ":" + resource
}

// OrderResource names the lock guarding a single order's mutations.
func OrderResource(orderID string) string {
	return "order:" + orderID
}

func jittered(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	half := base / 2
	return half + time.Duration(rand.Int63n(int64(base)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
