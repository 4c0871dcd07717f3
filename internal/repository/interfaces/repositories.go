package interfaces

import (
	"context"
	"time"

	"github.com/amiosamu/fulfillment-service/internal/domain"
)

// RegionRepository provides read access to the postal region mapping table.
type RegionRepository interface {
	// ListMappings returns all mappings ordered by mapping_id. Range
	// resolution depends on this ordering: the first matching range wins.
	ListMappings(ctx context.Context) ([]domain.PostalRegionMapping, error)
}

// InventoryRepository provides access to per-SKU stock records.
//
// Deduct is the only compare-and-swap write in the system: the whole
// serialized stock value is replaced, conditioned on the value read at
// request time being unchanged. Restore deliberately carries no such
// guard.
type InventoryRepository interface {
	GetBySKU(ctx context.Context, productID, size string) (*domain.InventoryRecord, error)
	GetByProduct(ctx context.Context, productID string) ([]*domain.InventoryRecord, error)

	// Deduct subtracts quantity from one warehouse's stock. Returns the
	// warehouse's new stock level. Fails with an insufficient-stock error
	// when current stock is short, and a conflict error when the CAS
	// write loses a race; the repository never retries.
	Deduct(ctx context.Context, warehouseID, productID, size string, quantity int) (int, error)

	// Restore adds quantity back to one warehouse's stock. Blind
	// read-modify-write; concurrent restores can lose updates.
	Restore(ctx context.Context, warehouseID, productID, size string, quantity int) (int, error)
}

// LockRepository stores the soft reservation ledger in a TTL-capable
// key-value store.
type LockRepository interface {
	// GetEntry returns the lock entry for a key, or nil when absent.
	GetEntry(ctx context.Context, key string) (*domain.LockEntry, error)

	// SaveEntry writes an entry. ttl 0 means no expiration; the release
	// write-back path relies on that to preserve the ledger's
	// no-TTL-refresh behavior.
	SaveEntry(ctx context.Context, key string, entry *domain.LockEntry, ttl time.Duration) error

	// DeleteEntry removes a key outright.
	DeleteEntry(ctx context.Context, key string) error
}

// DeliveryConfigRepository provides read access to the static per-tier
// delivery pricing table.
type DeliveryConfigRepository interface {
	GetTier(ctx context.Context, tierName string) (*domain.DeliveryCostConfig, error)
}
