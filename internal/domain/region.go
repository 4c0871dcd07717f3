package domain

import (
	"strings"
)

// PostalCodeWidth is the fixed width postal codes are normalized to before
// range comparison.
const PostalCodeWidth = 6

// Warehouse is one entry in a postal region's priority-ordered warehouse
// list. PriorityRank 0 is the nearest warehouse for the region.
type Warehouse struct {
	WarehouseID  string `json:"warehouse_id"`
	Name         string `json:"name"`
	PriorityRank int    `json:"priority_rank"`
}

// PostalRegionMapping maps a postal code range to a region and its
// priority-ordered warehouses. Multiple mappings may exist per region; the
// first matching range in mapping_id order is authoritative.
type PostalRegionMapping struct {
	MappingID       int64       `json:"mapping_id" db:"mapping_id"`
	StartPostalCode string      `json:"start_postal_code" db:"start_postal_code"`
	EndPostalCode   string      `json:"end_postal_code" db:"end_postal_code"`
	State           string      `json:"state" db:"state"`
	RegionName      string      `json:"region_name" db:"region_name"`
	Warehouses      []Warehouse `json:"warehouses"`
}

// NormalizePostalCode trims whitespace and left-pads a numeric postal code
// with zeros to PostalCodeWidth. Non-digit input is returned trimmed only;
// it will simply fail every range check.
func NormalizePostalCode(code string) string {
	code = strings.TrimSpace(code)
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	if len(code) >= PostalCodeWidth {
		return code
	}
	return strings.Repeat("0", PostalCodeWidth-len(code)) + code
}

// Contains reports whether the normalized postal code falls inside this
// mapping's normalized range. Zero-padded fixed-width strings compare
// correctly with plain string ordering.
func (m *PostalRegionMapping) Contains(postalCode string) bool {
	code := NormalizePostalCode(postalCode)
	start := NormalizePostalCode(m.StartPostalCode)
	end := NormalizePostalCode(m.EndPostalCode)
	return start <= code && code <= end
}
