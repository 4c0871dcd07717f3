package domain

// DeliveryTier identifies the pricing/ETA band a warehouse falls into for
// a given postal region, derived from its position in the region's
// priority list.
type DeliveryTier string

const (
	TierOne   DeliveryTier = "tier_1"
	TierTwo   DeliveryTier = "tier_2"
	TierThree DeliveryTier = "tier_3"
)

// TierForPriorityIndex maps a warehouse's position in the priority list to
// its delivery tier: index 0 is tier_1, index 1 is tier_2, everything
// further is tier_3.
func TierForPriorityIndex(index int) DeliveryTier {
	switch index {
	case 0:
		return TierOne
	case 1:
		return TierTwo
	default:
		return TierThree
	}
}

// Allocation is the per-warehouse share of a requested quantity computed
// during a fulfillment check. Ephemeral and advisory; never persisted.
type Allocation struct {
	WarehouseID       string       `json:"warehouse_id"`
	AllocatedQuantity int          `json:"allocated_quantity"`
	AvailableStock    int          `json:"available_stock"`
	TotalStock        int          `json:"total_stock"`
	LockedQuantity    int          `json:"locked_quantity"`
	Tier              DeliveryTier `json:"tier"`
	ExpressAvailable  bool         `json:"express_available"`
	Currency          string       `json:"currency"`
	SKU               string       `json:"sku"`
}

// AllocationResult is the outcome of allocating a requested quantity
// across a region's priority warehouses. RemainingQuantity > 0 means the
// request could not be fully satisfied; the caller must not commit any
// deduction in that case.
type AllocationResult struct {
	Allocations         []Allocation `json:"allocations"`
	RemainingQuantity   int          `json:"remaining_quantity"`
	AnyExpressAvailable bool         `json:"any_express_available"`
}

// LockedLookup reports the quantity currently soft-reserved for a
// warehouse. Implementations must fail open: on ledger errors they return
// 0 so a lock-store outage never blocks availability checks.
type LockedLookup func(warehouseID string) int

// Allocate greedily splits the requested quantity across warehouses in
// priority order. Warehouses with no stock for the record are skipped;
// available stock is total stock minus the soft-locked quantity, floored
// at zero. Allocation stops as soon as the request is satisfied, so each
// warehouse is exhausted before the next is touched.
//
// locked may be nil, in which case no reservations are subtracted.
func Allocate(warehouses []Warehouse, record *InventoryRecord, quantity int, locked LockedLookup) AllocationResult {
	result := AllocationResult{
		Allocations:       []Allocation{},
		RemainingQuantity: quantity,
	}
	if record == nil || quantity <= 0 {
		return result
	}

	for i, wh := range warehouses {
		if result.RemainingQuantity == 0 {
			break
		}

		totalStock := record.StockFor(wh.WarehouseID)
		if totalStock <= 0 {
			continue
		}

		lockedQty := 0
		if locked != nil {
			lockedQty = locked(wh.WarehouseID)
		}

		available := totalStock - lockedQty
		if available < 0 {
			available = 0
		}

		allocated := available
		if allocated > result.RemainingQuantity {
			allocated = result.RemainingQuantity
		}
		if allocated <= 0 {
			continue
		}

		express := record.HasExpress(wh.WarehouseID)
		result.Allocations = append(result.Allocations, Allocation{
			WarehouseID:       wh.WarehouseID,
			AllocatedQuantity: allocated,
			AvailableStock:    available,
			TotalStock:        totalStock,
			LockedQuantity:    lockedQty,
			Tier:              TierForPriorityIndex(i),
			ExpressAvailable:  express,
			Currency:          record.Currency,
			SKU:               record.SKU,
		})
		result.RemainingQuantity -= allocated
		if express {
			result.AnyExpressAvailable = true
		}
	}

	return result
}

// HighestTier returns the farthest tier actually used by a set of
// allocations: tier_3 if present, else tier_2, else tier_1. The farthest
// warehouse drives pricing and ETA for the whole order.
func HighestTier(allocations []Allocation) DeliveryTier {
	highest := TierOne
	for _, alloc := range allocations {
		switch alloc.Tier {
		case TierThree:
			return TierThree
		case TierTwo:
			highest = TierTwo
		}
	}
	return highest
}
