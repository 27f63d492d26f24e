package profile

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the connection and layout of the redis-backed
// profile store. Fields populate from the environment.
type RedisConfig struct {
	ConnectionURL  string        `env:"FLAGKIT_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"FLAGKIT_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"FLAGKIT_REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"FLAGKIT_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"FLAGKIT_REDIS_KEY_PREFIX" envDefault:"flagkit:profile:"`
	// TTL expires idle profiles; zero keeps them forever.
	TTL time.Duration `env:"FLAGKIT_REDIS_PROFILE_TTL" envDefault:"0"`
}

// RedisStore keeps one hash per user: field = experiment id, value =
// variation id.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the default "flagkit:profile:" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// WithTTL expires profiles after the given idle duration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, keyPrefix: "flagkit:profile:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRedis connects to redis with retries and returns a ready store.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrStoreNotReady, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			store := NewRedisStore(client, WithTTL(cfg.TTL))
			if cfg.KeyPrefix != "" {
				store.keyPrefix = cfg.KeyPrefix
			}
			return store, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrStoreNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, ErrStoreNotReady
}

func (s *RedisStore) key(userID string) string { return s.keyPrefix + userID }

// Lookup reads the whole user hash.
func (s *RedisStore) Lookup(ctx context.Context, userID string) (Profile, error) {
	decisions, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return Profile{}, errors.Join(ErrLookupFailed, err)
	}
	if len(decisions) == 0 {
		return Profile{}, ErrNotFound
	}
	return Profile{UserID: userID, Decisions: decisions}, nil
}

// Save writes one hash field and refreshes the TTL if configured.
func (s *RedisStore) Save(ctx context.Context, userID, experimentID, variationID string) error {
	if userID == "" || experimentID == "" || variationID == "" {
		return ErrInvalidProfile
	}

	key := s.key(userID)
	if err := s.client.HSet(ctx, key, experimentID, variationID).Err(); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }
