package service

import (
	"context"
	"time"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// LockManager maintains the TTL-bound soft reservation ledger per
// (warehouse, SKU) pair.
type LockManager interface {
	// GetLockedQuantity returns the total quantity currently reserved
	// across all holders. Fails open: absent keys and ledger errors both
	// yield 0, so a lock-store outage never blocks inventory reads.
	GetLockedQuantity(ctx context.Context, warehouseID, sku string) int

	// Acquire adds quantity to the identifier's reservation and re-arms
	// the TTL on the whole entry. Additive, not idempotent: a retried
	// call double-counts unless the caller tracks its own retry state.
	Acquire(ctx context.Context, warehouseID, sku, identifier string, quantity int) (*AcquireResult, error)

	// Release removes the identifier's reservation. A missing holder is
	// a no-op success. The key is deleted when no holders remain;
	// otherwise the reduced map is written back without a fresh TTL.
	Release(ctx context.Context, warehouseID, sku, identifier string) (*ReleaseResult, error)

	// ReleaseAll releases one lock per reference, aggregating failures
	// without aborting the batch.
	ReleaseAll(ctx context.Context, refs []LockRef, identifier string) *ReleaseAllResult
}

// LockRef identifies one ledger entry to release.
type LockRef struct {
	WarehouseID string `json:"warehouse_id"`
	SKU         string `json:"sku"`
}

// AcquireResult reports the identifier's total after an acquire.
type AcquireResult struct {
	WarehouseID string `json:"warehouse_id"`
	SKU         string `json:"sku"`
	TotalLocked int    `json:"total_locked"`
}

// ReleaseResult reports the outcome of releasing one entry.
type ReleaseResult struct {
	WarehouseID      string `json:"warehouse_id"`
	SKU              string `json:"sku"`
	Released         bool   `json:"released"`
	ReleasedQuantity int    `json:"released_quantity"`
	Error            string `json:"error,omitempty"`
}

// ReleaseAllResult aggregates a batch of releases. Success is true only
// if every release succeeded.
type ReleaseAllResult struct {
	Success bool            `json:"success"`
	Results []ReleaseResult `json:"results"`
}

// RedisLockManager implements LockManager over a LockRepository.
type RedisLockManager struct {
	locks  interfaces.LockRepository
	ttl    time.Duration
	logger logging.Logger
}

// NewLockManager creates a lock manager with the configured acquire TTL.
func NewLockManager(locks interfaces.LockRepository, ttl time.Duration, logger logging.Logger) LockManager {
	return &RedisLockManager{
		locks:  locks,
		ttl:    ttl,
		logger: logger,
	}
}

// GetLockedQuantity sums all holders for a (warehouse, SKU) entry.
func (m *RedisLockManager) GetLockedQuantity(ctx context.Context, warehouseID, sku string) int {
	key := domain.LockKey(warehouseID, sku)

	entry, err := m.locks.GetEntry(ctx, key)
	if err != nil {
		// Fail open: treat an unreachable ledger as no reservations.
		m.logger.Warn(ctx, "Lock ledger read failed, treating as unlocked", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return 0
	}
	if entry == nil {
		return 0
	}

	return entry.TotalLocked()
}

// Acquire adds quantity to the identifier's entry and writes the whole
// map back with the configured TTL.
func (m *RedisLockManager) Acquire(ctx context.Context, warehouseID, sku, identifier string, quantity int) (*AcquireResult, error) {
	if quantity <= 0 {
		return nil, platformErrors.NewValidation("lock quantity must be positive")
	}

	key := domain.LockKey(warehouseID, sku)

	entry, err := m.locks.GetEntry(ctx, key)
	if err != nil {
		return nil, platformErrors.Wrap(err, "failed to read lock entry")
	}
	if entry == nil {
		entry = domain.NewLockEntry()
	}

	total := entry.Add(identifier, quantity)

	if err := m.locks.SaveEntry(ctx, key, entry, m.ttl); err != nil {
		return nil, platformErrors.Wrap(err, "failed to write lock entry")
	}

	m.logger.Debug(ctx, "Stock lock acquired", map[string]interface{}{
		"warehouse_id": warehouseID,
		"sku":          sku,
		"identifier":   identifier,
		"quantity":     quantity,
		"total_locked": total,
	})

	return &AcquireResult{
		WarehouseID: warehouseID,
		SKU:         sku,
		TotalLocked: total,
	}, nil
}

// Release removes the identifier's contribution from an entry.
func (m *RedisLockManager) Release(ctx context.Context, warehouseID, sku, identifier string) (*ReleaseResult, error) {
	key := domain.LockKey(warehouseID, sku)

	result := &ReleaseResult{
		WarehouseID: warehouseID,
		SKU:         sku,
	}

	entry, err := m.locks.GetEntry(ctx, key)
	if err != nil {
		return nil, platformErrors.Wrap(err, "failed to read lock entry")
	}
	if entry == nil {
		// Nothing held; expired or never acquired. No-op success.
		return result, nil
	}

	releasedQty, held := entry.Remove(identifier)
	if !held {
		return result, nil
	}

	if entry.Empty() {
		if err := m.locks.DeleteEntry(ctx, key); err != nil {
			return nil, platformErrors.Wrap(err, "failed to delete lock entry")
		}
	} else {
		// Write back without a TTL. Remaining holders keep the entry alive
		// past its original expiry; preserved as discovered behavior.
		if err := m.locks.SaveEntry(ctx, key, entry, 0); err != nil {
			return nil, platformErrors.Wrap(err, "failed to write reduced lock entry")
		}
	}

	result.Released = true
	result.ReleasedQuantity = releasedQty

	m.logger.Debug(ctx, "Stock lock released", map[string]interface{}{
		"warehouse_id":      warehouseID,
		"sku":               sku,
		"identifier":        identifier,
		"released_quantity": releasedQty,
	})

	return result, nil
}

// ReleaseAll releases every reference, never aborting on failure.
func (m *RedisLockManager) ReleaseAll(ctx context.Context, refs []LockRef, identifier string) *ReleaseAllResult {
	batch := &ReleaseAllResult{
		Success: true,
		Results: make([]ReleaseResult, 0, len(refs)),
	}

	for _, ref := range refs {
		result, err := m.Release(ctx, ref.WarehouseID, ref.SKU, identifier)
		if err != nil {
			batch.Success = false
			batch.Results = append(batch.Results, ReleaseResult{
				WarehouseID: ref.WarehouseID,
				SKU:         ref.SKU,
				Error:       err.Error(),
			})
			m.logger.Error(ctx, "Failed to release lock in batch", err, map[string]interface{}{
				"warehouse_id": ref.WarehouseID,
				"sku":          ref.SKU,
				"identifier":   identifier,
			})
			continue
		}
		batch.Results = append(batch.Results, *result)
	}

	return batch
}

// lockedLookup builds a fail-open domain.LockedLookup for one SKU.
func lockedLookup(ctx context.Context, manager LockManager, sku string) domain.LockedLookup {
	if manager == nil || sku == "" {
		return nil
	}
	return func(warehouseID string) int {
		return manager.GetLockedQuantity(ctx, warehouseID, sku)
	}
}
