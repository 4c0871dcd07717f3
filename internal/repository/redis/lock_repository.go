package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// LockRepository implements interfaces.LockRepository on Redis. Each key
// holds the JSON-marshalled holders map for one (warehouse, SKU) pair;
// the TTL on the key is the only expiry mechanism the ledger has.
type LockRepository struct {
	client *redis.Client
}

// NewLockRepository creates a new Redis lock repository
func NewLockRepository(client *redis.Client) interfaces.LockRepository {
	return &LockRepository{client: client}
}

// GetEntry returns the lock entry for a key, or nil when the key is
// absent or already expired.
func (r *LockRepository) GetEntry(ctx context.Context, key string) (*domain.LockEntry, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, platformErrors.Wrap(err, "failed to read lock entry")
	}

	entry := &domain.LockEntry{}
	if err := json.Unmarshal([]byte(data), entry); err != nil {
		return nil, platformErrors.Wrap(err, "failed to unmarshal lock entry")
	}

	return entry, nil
}

// SaveEntry writes an entry. ttl 0 stores the key without expiration.
// The release write-back depends on this: it does not re-arm the TTL,
// so an entry with remaining holders can outlive the expiry set at
// acquire time.
func (r *LockRepository) SaveEntry(ctx context.Context, key string, entry *domain.LockEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return platformErrors.Wrap(err, "failed to marshal lock entry")
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return platformErrors.Wrap(err, "failed to write lock entry")
	}

	return nil
}

// DeleteEntry removes a key outright.
func (r *LockRepository) DeleteEntry(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return platformErrors.Wrap(err, "failed to delete lock entry")
	}
	return nil
}
