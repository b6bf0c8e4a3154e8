package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jetqor/backend/internal/domain/shared"
)

// releaseScript deletes the lease key only when the caller still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLease implements shared.RunLease using Redis
// This is suitable for distributed deployments where multiple instances
// must not run the reconciliation pass concurrently
type RedisRunLease struct {
	client *redis.Client
	key    string
	owner  string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRunLease creates a new Redis-backed run lease
func NewRedisRunLease(cfg RedisConfig) (*RedisRunLease, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRunLeaseWithClient(client, ""), nil
}

// NewRedisRunLeaseWithClient creates a lease with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisRunLeaseWithClient(client *redis.Client, key string) *RedisRunLease {
	if key == "" {
		key = "reconcile:run-lease"
	}
	return &RedisRunLease{
		client: client,
		key:    key,
		owner:  uuid.NewString(),
	}
}

// TryAcquire attempts to take the lease for the given TTL
// Returns true when this instance now holds the lease, false when another
// holder is still active. Uses SETNX for atomic acquisition.
func (l *RedisRunLease) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lease: %w", err)
	}
	return acquired, nil
}

// Release gives the lease back. Only the owner token set at acquisition may
// delete the key, so an expired lease taken over by another instance is
// never released by the previous holder.
func (l *RedisRunLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release run lease: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisRunLease) Close() error {
	return l.client.Close()
}

// Ensure RedisRunLease implements RunLease
var _ shared.RunLease = (*RedisRunLease)(nil)
