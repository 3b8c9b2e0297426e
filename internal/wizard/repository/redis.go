package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/redisopt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "wizard:session:"
	lockKeyPrefix    = "wizard:lock:"
)

// releaseLock deletes the lock only if it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps sessions in Redis so several API instances can serve
// the same session. Keys expire with the session.
type RedisStore struct {
	rdb  *redis.Client
	wait time.Duration
	now  func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisClient builds a client from REDIS_URL, honouring the TLS override.
func NewRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	opt, err := redisopt.Parse(cfg)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, wait: lockWait, now: time.Now}
}

func (r *RedisStore) Create(ctx context.Context, state *domain.State) error {
	return r.Save(ctx, state)
}

func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (*domain.State, error) {
	data, err := r.rdb.Get(ctx, sessionKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &state, nil
}

func (r *RedisStore) Save(ctx context.Context, state *domain.State) error {
	ttl := state.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return ErrNotFound
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKeyPrefix+state.SessionID.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, sessionKeyPrefix+id.String()).Err()
}

// Lock acquires a token lock with SET NX, polling until the wait elapses.
func (r *RedisStore) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := lockKeyPrefix + id.String()
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.rdb.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return func() {
				_ = releaseLock.Run(context.WithoutCancel(ctx), r.rdb, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLocked
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPoll):
		}
	}
}
