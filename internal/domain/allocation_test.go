package domain

import "testing"

func testWarehouses() []Warehouse {
	return []Warehouse{
		{WarehouseID: "wh_003", Name: "Koramangala Hub", PriorityRank: 0},
		{WarehouseID: "wh_001", Name: "Whitefield DC", PriorityRank: 1},
		{WarehouseID: "wh_004", Name: "Hosur Road DC", PriorityRank: 2},
		{WarehouseID: "wh_002", Name: "Peenya DC", PriorityRank: 3},
	}
}

func testRecord() *InventoryRecord {
	return &InventoryRecord{
		SKU:       "P0001-10",
		ProductID: "P0001",
		Size:      "10",
		Stock: map[string]int{
			"wh_003": 3,
			"wh_001": 10,
		},
		ExpressWarehouses: map[string]bool{"wh_003": true},
		Currency:          "INR",
	}
}

func TestTierForPriorityIndex(t *testing.T) {
	tests := []struct {
		index int
		want  DeliveryTier
	}{
		{0, TierOne},
		{1, TierTwo},
		{2, TierThree},
		{3, TierThree},
		{7, TierThree},
	}

	for _, tt := range tests {
		if got := TierForPriorityIndex(tt.index); got != tt.want {
			t.Errorf("TierForPriorityIndex(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}
}

func TestAllocateSingleWarehouse(t *testing.T) {
	result := Allocate(testWarehouses(), testRecord(), 2, nil)

	if result.RemainingQuantity != 0 {
		t.Fatalf("expected full allocation, remaining = %d", result.RemainingQuantity)
	}
	if len(result.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(result.Allocations))
	}

	alloc := result.Allocations[0]
	if alloc.WarehouseID != "wh_003" {
		t.Errorf("expected nearest warehouse wh_003, got %s", alloc.WarehouseID)
	}
	if alloc.AllocatedQuantity != 2 {
		t.Errorf("expected 2 allocated, got %d", alloc.AllocatedQuantity)
	}
	if alloc.Tier != TierOne {
		t.Errorf("expected tier_1, got %s", alloc.Tier)
	}
	if !alloc.ExpressAvailable {
		t.Error("expected express available at wh_003")
	}
	if !result.AnyExpressAvailable {
		t.Error("expected AnyExpressAvailable")
	}
}

func TestAllocateSpillsToNextWarehouse(t *testing.T) {
	// 5 units: wh_003 holds 3, the remaining 2 spill to wh_001.
	result := Allocate(testWarehouses(), testRecord(), 5, nil)

	if result.RemainingQuantity != 0 {
		t.Fatalf("expected full allocation, remaining = %d", result.RemainingQuantity)
	}
	if len(result.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(result.Allocations))
	}

	first, second := result.Allocations[0], result.Allocations[1]
	if first.WarehouseID != "wh_003" || first.AllocatedQuantity != 3 {
		t.Errorf("first allocation = %s/%d, want wh_003/3", first.WarehouseID, first.AllocatedQuantity)
	}
	if second.WarehouseID != "wh_001" || second.AllocatedQuantity != 2 {
		t.Errorf("second allocation = %s/%d, want wh_001/2", second.WarehouseID, second.AllocatedQuantity)
	}
	if second.Tier != TierTwo {
		t.Errorf("spillover tier = %s, want tier_2", second.Tier)
	}
}

func TestAllocateExhaustsBeforeMovingOn(t *testing.T) {
	result := Allocate(testWarehouses(), testRecord(), 3, nil)

	if len(result.Allocations) != 1 {
		t.Fatalf("expected wh_003 to satisfy exactly, got %d allocations", len(result.Allocations))
	}
	if result.Allocations[0].AllocatedQuantity != 3 {
		t.Errorf("expected wh_003 fully drained at 3, got %d", result.Allocations[0].AllocatedQuantity)
	}
}

func TestAllocateSubtractsLockedQuantity(t *testing.T) {
	locked := func(warehouseID string) int {
		if warehouseID == "wh_003" {
			return 2
		}
		return 0
	}

	result := Allocate(testWarehouses(), testRecord(), 3, locked)

	if result.RemainingQuantity != 0 {
		t.Fatalf("expected full allocation, remaining = %d", result.RemainingQuantity)
	}
	if len(result.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(result.Allocations))
	}

	first := result.Allocations[0]
	if first.AllocatedQuantity != 1 {
		t.Errorf("wh_003 allocation = %d, want 1 (3 stock - 2 locked)", first.AllocatedQuantity)
	}
	if first.LockedQuantity != 2 {
		t.Errorf("wh_003 locked = %d, want 2", first.LockedQuantity)
	}
	if first.TotalStock != 3 {
		t.Errorf("wh_003 total stock = %d, want 3", first.TotalStock)
	}
	if result.Allocations[1].AllocatedQuantity != 2 {
		t.Errorf("wh_001 allocation = %d, want 2", result.Allocations[1].AllocatedQuantity)
	}
}

func TestAllocateOverlockedWarehouseSkipped(t *testing.T) {
	// Locks exceeding stock floor available at zero instead of going
	// negative.
	locked := func(warehouseID string) int {
		if warehouseID == "wh_003" {
			return 5
		}
		return 0
	}

	result := Allocate(testWarehouses(), testRecord(), 2, locked)

	if len(result.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(result.Allocations))
	}
	if result.Allocations[0].WarehouseID != "wh_001" {
		t.Errorf("expected allocation from wh_001, got %s", result.Allocations[0].WarehouseID)
	}
}

func TestAllocateInsufficientStock(t *testing.T) {
	result := Allocate(testWarehouses(), testRecord(), 20, nil)

	if result.RemainingQuantity != 7 {
		t.Errorf("remaining = %d, want 7 (20 requested - 13 total)", result.RemainingQuantity)
	}
	if len(result.Allocations) != 2 {
		t.Errorf("expected partial allocations from both stocked warehouses, got %d", len(result.Allocations))
	}
}

func TestAllocateNoStockAnywhere(t *testing.T) {
	record := &InventoryRecord{
		SKU:       "P0009-9",
		ProductID: "P0009",
		Size:      "9",
		Stock:     map[string]int{},
	}

	result := Allocate(testWarehouses(), record, 1, nil)

	if len(result.Allocations) != 0 {
		t.Errorf("expected no allocations, got %d", len(result.Allocations))
	}
	if result.RemainingQuantity != 1 {
		t.Errorf("remaining = %d, want 1", result.RemainingQuantity)
	}
}

func TestAllocateZeroAndNegativeQuantity(t *testing.T) {
	for _, qty := range []int{0, -3} {
		result := Allocate(testWarehouses(), testRecord(), qty, nil)
		if len(result.Allocations) != 0 {
			t.Errorf("quantity %d: expected no allocations, got %d", qty, len(result.Allocations))
		}
	}
}

func TestAllocateNilRecord(t *testing.T) {
	result := Allocate(testWarehouses(), nil, 5, nil)
	if len(result.Allocations) != 0 || result.RemainingQuantity != 5 {
		t.Errorf("nil record: got %d allocations, remaining %d", len(result.Allocations), result.RemainingQuantity)
	}
}

func TestHighestTier(t *testing.T) {
	tests := []struct {
		name  string
		tiers []DeliveryTier
		want  DeliveryTier
	}{
		{"empty defaults to tier_1", nil, TierOne},
		{"single tier_1", []DeliveryTier{TierOne}, TierOne},
		{"tier_2 dominates tier_1", []DeliveryTier{TierOne, TierTwo}, TierTwo},
		{"tier_3 dominates everything", []DeliveryTier{TierOne, TierThree, TierTwo}, TierThree},
		{"order does not matter", []DeliveryTier{TierThree, TierOne}, TierThree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocations := make([]Allocation, len(tt.tiers))
			for i, tier := range tt.tiers {
				allocations[i] = Allocation{Tier: tier}
			}
			if got := HighestTier(allocations); got != tt.want {
				t.Errorf("HighestTier = %s, want %s", got, tt.want)
			}
		})
	}
}
