package domain

import (
	"fmt"
	"time"
)

// InventoryRecord holds the per-warehouse stock breakdown for one
// (product, size) pair. Stock is mutated only through a compare-and-swap
// on the whole serialized stock map, never per warehouse.
type InventoryRecord struct {
	SKU               string          `json:"sku"`
	ProductID         string          `json:"product_id"`
	Size              string          `json:"size"`
	Stock             map[string]int  `json:"stock"`
	ExpressWarehouses map[string]bool `json:"express_warehouses"`
	Currency          string          `json:"currency"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// MakeSKU builds the composite SKU identity used as the inventory-row and
// lock key.
func MakeSKU(productID, size string) string {
	return fmt.Sprintf("%s-%s", productID, size)
}

// StockFor returns the stock level for a warehouse, 0 if the warehouse has
// no entry.
func (r *InventoryRecord) StockFor(warehouseID string) int {
	if r.Stock == nil {
		return 0
	}
	return r.Stock[warehouseID]
}

// HasExpress reports whether a warehouse supports express delivery for
// this record.
func (r *InventoryRecord) HasExpress(warehouseID string) bool {
	if r.ExpressWarehouses == nil {
		return false
	}
	return r.ExpressWarehouses[warehouseID]
}

// TotalStock sums stock across all warehouses.
func (r *InventoryRecord) TotalStock() int {
	total := 0
	for _, qty := range r.Stock {
		total += qty
	}
	return total
}
