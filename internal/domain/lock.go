package domain

import "fmt"

// LockEntry is the soft reservation ledger for one (warehouse, SKU) pair:
// a map of holder identifier (user or guest session id) to provisionally
// reserved quantity. It is advisory and TTL-bound, not a hard mutex; it is
// never reconciled against the inventory row except by being subtracted
// from "available" during allocation.
type LockEntry struct {
	Holders map[string]int `json:"holders"`
}

// NewLockEntry returns an empty lock entry.
func NewLockEntry() *LockEntry {
	return &LockEntry{Holders: make(map[string]int)}
}

// LockKey builds the ledger key for a (warehouse, SKU) pair.
func LockKey(warehouseID, sku string) string {
	return fmt.Sprintf("lock:%s:%s", warehouseID, sku)
}

// TotalLocked sums reserved quantity across all holders.
func (e *LockEntry) TotalLocked() int {
	total := 0
	for _, qty := range e.Holders {
		total += qty
	}
	return total
}

// Add adds quantity to a holder's existing reservation. Additive, not
// idempotent: a retried add double-counts.
func (e *LockEntry) Add(identifier string, quantity int) int {
	if e.Holders == nil {
		e.Holders = make(map[string]int)
	}
	e.Holders[identifier] += quantity
	return e.Holders[identifier]
}

// Remove deletes a holder's reservation, returning the quantity that was
// held. A missing holder is a no-op returning (0, false).
func (e *LockEntry) Remove(identifier string) (int, bool) {
	qty, ok := e.Holders[identifier]
	if !ok {
		return 0, false
	}
	delete(e.Holders, identifier)
	return qty, true
}

// Empty reports whether no holders remain.
func (e *LockEntry) Empty() bool {
	return len(e.Holders) == 0
}
