package handlers

import (
	"github.com/amiosamu/fulfillment-service/internal/domain"
	"github.com/amiosamu/fulfillment-service/internal/service"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// CheckAvailabilityRequest is the POST /api/fulfillment/check payload.
type CheckAvailabilityRequest struct {
	PostalCode string `json:"postal_code"`
	ProductID  string `json:"product_id"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
}

// LockStockRequest is the POST /api/fulfillment/lock payload. The
// caller identifies itself with either user_id or guest_session_id.
type LockStockRequest struct {
	Allocations    []service.LockAllocation `json:"allocations"`
	UserID         string                   `json:"user_id"`
	GuestSessionID string                   `json:"guest_session_id"`
}

// UnlockStockRequest is the POST /api/fulfillment/unlock payload.
type UnlockStockRequest struct {
	Allocations    []service.LockRef `json:"allocations"`
	UserID         string            `json:"user_id"`
	GuestSessionID string            `json:"guest_session_id"`
}

// lockIdentifier returns the caller identity, preferring user_id.
func lockIdentifier(userID, guestSessionID string) string {
	if userID != "" {
		return userID
	}
	return guestSessionID
}

// StockMutationRequest is the payload for POST /api/stock/deduct and
// POST /api/stock/restore.
type StockMutationRequest struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
}

// CheckAvailabilityResponse is the 200 envelope for
// POST /api/fulfillment/check.
type CheckAvailabilityResponse struct {
	Success     bool               `json:"success"`
	Fulfillment FulfillmentPayload `json:"fulfillment"`
	Delivery    *DeliveryPayload   `json:"delivery,omitempty"`
}

// FulfillmentPayload carries the allocation plan portion of a check
// response.
type FulfillmentPayload struct {
	RegionName          string              `json:"region_name"`
	SKU                 string              `json:"sku"`
	RequestedQuantity   int                 `json:"requested_quantity"`
	RemainingQuantity   int                 `json:"remaining_quantity"`
	Allocations         []domain.Allocation `json:"allocations"`
	AnyExpressAvailable bool                `json:"any_express_available"`
}

// DeliveryPayload carries the quote for the plan's governing tier.
type DeliveryPayload struct {
	HighestTier                  string                `json:"highest_tier"`
	Description                  string                `json:"description"`
	StandardDeliveryCost         float64               `json:"standard_delivery_cost"`
	ExpressDeliveryCost          float64               `json:"express_delivery_cost"`
	FreeDeliveryThreshold        float64               `json:"free_delivery_threshold"`
	Currency                     string                `json:"currency"`
	EstimatedDaysNormal          domain.DeliveryWindow `json:"estimated_days_normal"`
	EstimatedDaysExpress         domain.DeliveryWindow `json:"estimated_days_express"`
	EstimatedDeliveryDateNormal  string                `json:"estimated_delivery_date_normal"`
	EstimatedDeliveryDateExpress string                `json:"estimated_delivery_date_express"`
}

// InsufficientStockResponse is the 400 body when the plan cannot cover
// the requested quantity. The partial plan rides along so callers can
// see how far coverage got.
type InsufficientStockResponse struct {
	Success            bool                `json:"success"`
	Error              string              `json:"error"`
	RegionName         string              `json:"region_name"`
	SKU                string              `json:"sku"`
	RequestedQuantity  int                 `json:"requested_quantity"`
	RemainingQuantity  int                 `json:"remaining_quantity"`
	PartialAllocations []domain.Allocation `json:"partial_allocations"`
}

// UnlockStockResponse is the POST /api/fulfillment/unlock body.
// Released is true only when every requested reservation was actually
// removed; an expired entry leaves Success true but Released false.
type UnlockStockResponse struct {
	Success  bool                    `json:"success"`
	Released bool                    `json:"released"`
	Results  []service.ReleaseResult `json:"results"`
}

// StockMutationResponse is the body for POST /api/stock/deduct and
// POST /api/stock/restore.
type StockMutationResponse struct {
	Success     bool   `json:"success"`
	WarehouseID string `json:"warehouse_id"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	NewStock    int    `json:"new_stock"`
}

func newCheckAvailabilityResponse(result *service.CheckAvailabilityResult) CheckAvailabilityResponse {
	resp := CheckAvailabilityResponse{
		Success: true,
		Fulfillment: FulfillmentPayload{
			RegionName:          result.RegionName,
			SKU:                 result.SKU,
			RequestedQuantity:   result.RequestedQuantity,
			RemainingQuantity:   result.RemainingQuantity,
			Allocations:         result.Allocations,
			AnyExpressAvailable: result.ExpressAvailable,
		},
	}
	if result.Delivery != nil {
		quote := result.Delivery
		resp.Delivery = &DeliveryPayload{
			HighestTier:                  string(quote.Tier),
			Description:                  quote.Description,
			StandardDeliveryCost:         quote.StandardCost,
			ExpressDeliveryCost:          quote.ExpressCost,
			FreeDeliveryThreshold:        quote.FreeThreshold,
			Currency:                     quote.Currency,
			EstimatedDaysNormal:          quote.NormalWindow,
			EstimatedDaysExpress:         quote.ExpressWindow,
			EstimatedDeliveryDateNormal:  quote.NormalEstimate,
			EstimatedDeliveryDateExpress: quote.ExpressEstimate,
		}
	}
	return resp
}

func newInsufficientStockResponse(result *service.CheckAvailabilityResult) InsufficientStockResponse {
	return InsufficientStockResponse{
		Success:            false,
		Error:              "insufficient stock",
		RegionName:         result.RegionName,
		SKU:                result.SKU,
		RequestedQuantity:  result.RequestedQuantity,
		RemainingQuantity:  result.RemainingQuantity,
		PartialAllocations: result.Allocations,
	}
}

func newUnlockStockResponse(result *service.ReleaseAllResult) UnlockStockResponse {
	released := len(result.Results) > 0
	for _, r := range result.Results {
		if !r.Released {
			released = false
			break
		}
	}
	return UnlockStockResponse{
		Success:  result.Success,
		Released: released,
		Results:  result.Results,
	}
}

func newStockMutationResponse(result *service.StockMutationResult) StockMutationResponse {
	return StockMutationResponse{
		Success:     true,
		WarehouseID: result.WarehouseID,
		SKU:         result.SKU,
		Quantity:    result.Quantity,
		NewStock:    result.NewStock,
	}
}
