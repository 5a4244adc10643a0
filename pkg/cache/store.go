package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Entry is the cached response envelope.
type Entry struct {
	Status      int             `json:"status"`
	ContentType string          `json:"contentType"`
	Body        json.RawMessage `json:"body"`
	StoredAt    time.Time       `json:"storedAt"`
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Store is a read-through response cache on Redis. Redis being down is never
// an error the caller sees: Get degrades to a miss and Set to a no-op, the
// request just pays the full price.
type Store struct {
	client redisStore
	logg   *logger.Logger
	ttl    time.Duration
}

func NewStore(client redisStore, cfg config.CacheConfig, logg *logger.Logger) (*Store, error) {
	if client == nil {
		return nil, errors.New("cache store requires a redis client")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{client: client, logg: logg, ttl: ttl}, nil
}

// Get returns the cached entry for the key, or nil on a miss.
func (s *Store) Get(ctx context.Context, parts KeyParts) (*Entry, error) {
	key := s.client.CacheKey(parts.Segments()...)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "cache read failed, treating as miss: "+err.Error())
		}
		return nil, nil
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// stale format from an older deploy, drop it
		_ = s.client.Del(ctx, key)
		return nil, nil
	}
	return &entry, nil
}

// Set stores a response entry under the key with the configured TTL.
func (s *Store) Set(ctx context.Context, parts KeyParts, entry Entry) {
	s.SetWithTTL(ctx, parts, entry, s.ttl)
}

// SetWithTTL stores a response entry with a per-route TTL override.
func (s *Store) SetWithTTL(ctx context.Context, parts KeyParts, entry Entry, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	key := s.client.CacheKey(parts.Segments()...)
	if err := s.client.Set(ctx, key, string(raw), ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "cache write failed: "+err.Error())
	}
}

// TTL exposes the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
