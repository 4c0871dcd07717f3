package domain

import "time"

// DeliveryMode selects between standard and express shipping.
type DeliveryMode string

const (
	ModeNormal  DeliveryMode = "normal"
	ModeExpress DeliveryMode = "express"
)

// DeliveryCostConfig is the static per-tier pricing row.
type DeliveryCostConfig struct {
	TierName      string  `json:"tier_name" db:"tier_name"`
	Description   string  `json:"description" db:"description"`
	StandardCost  float64 `json:"standard_cost" db:"standard_cost"`
	ExpressCost   float64 `json:"express_cost" db:"express_cost"`
	FreeThreshold float64 `json:"free_threshold" db:"free_threshold"`
	Currency      string  `json:"currency" db:"currency"`
}

// DeliveryWindow is an inclusive day range for an estimated delivery.
type DeliveryWindow struct {
	MinDays int `json:"min_days"`
	MaxDays int `json:"max_days"`
}

// deliveryWindows is the fixed tier x mode day-range table. tier_2 and
// tier_3 share the same express window.
var deliveryWindows = map[DeliveryTier]map[DeliveryMode]DeliveryWindow{
	TierOne: {
		ModeNormal:  {MinDays: 2, MaxDays: 3},
		ModeExpress: {MinDays: 1, MaxDays: 2},
	},
	TierTwo: {
		ModeNormal:  {MinDays: 3, MaxDays: 4},
		ModeExpress: {MinDays: 2, MaxDays: 3},
	},
	TierThree: {
		ModeNormal:  {MinDays: 4, MaxDays: 5},
		ModeExpress: {MinDays: 2, MaxDays: 3},
	},
}

// WindowFor returns the fixed delivery day range for a tier and mode.
// Unknown tiers fall back to the tier_3 window.
func WindowFor(tier DeliveryTier, mode DeliveryMode) DeliveryWindow {
	byMode, ok := deliveryWindows[tier]
	if !ok {
		byMode = deliveryWindows[TierThree]
	}
	window, ok := byMode[mode]
	if !ok {
		window = byMode[ModeNormal]
	}
	return window
}

// EstimatedDeliveryDate computes the estimate for a window: the given day
// plus the window's maximum.
func EstimatedDeliveryDate(from time.Time, window DeliveryWindow) time.Time {
	return from.AddDate(0, 0, window.MaxDays)
}
