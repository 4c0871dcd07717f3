package handlers

import (
	"encoding/json"
	"net/http"

	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/tracing"
	"github.com/amiosamu/fulfillment-service/internal/service"
)

// FulfillmentHandler handles HTTP requests for availability checks and
// stock locking.
type FulfillmentHandler struct {
	fulfillment service.FulfillmentService
	logger      logging.Logger
}

// NewFulfillmentHandler creates a new fulfillment handler
func NewFulfillmentHandler(fulfillment service.FulfillmentService, logger logging.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		fulfillment: fulfillment,
		logger:      logger,
	}
}

// CheckAvailability handles POST /api/fulfillment/check
func (h *FulfillmentHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tracing.AddSpanAttributes(ctx,
		tracing.HTTPMethodKey.String(r.Method),
		tracing.HTTPURLKey.String(r.URL.String()),
	)

	var req CheckAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	tracing.AddSpanAttributes(ctx, tracing.PostalCodeKey.String(req.PostalCode))

	result, err := h.fulfillment.CheckAvailability(ctx, service.CheckAvailabilityRequest{
		PostalCode: req.PostalCode,
		ProductID:  req.ProductID,
		Size:       req.Size,
		Quantity:   req.Quantity,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	// An unsatisfiable request still returns the partial allocation plan.
	if !result.Available {
		h.respondWithJSON(w, http.StatusBadRequest, newInsufficientStockResponse(result))
		return
	}

	h.respondWithJSON(w, http.StatusOK, newCheckAvailabilityResponse(result))
}

// LockStock handles POST /api/fulfillment/lock
func (h *FulfillmentHandler) LockStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LockStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	identifier := lockIdentifier(req.UserID, req.GuestSessionID)
	tracing.AddSpanAttributes(ctx, tracing.IdentifierKey.String(identifier))

	result, err := h.fulfillment.LockStock(ctx, service.LockStockRequest{
		Allocations: req.Allocations,
		Identifier:  identifier,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
}

// UnlockStock handles POST /api/fulfillment/unlock
func (h *FulfillmentHandler) UnlockStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UnlockStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	identifier := lockIdentifier(req.UserID, req.GuestSessionID)
	tracing.AddSpanAttributes(ctx, tracing.IdentifierKey.String(identifier))

	result, err := h.fulfillment.UnlockStock(ctx, service.UnlockStockRequest{
		Identifier: identifier,
		Locks:      req.Allocations,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, newUnlockStockResponse(result))
}

// HealthCheck provides a basic health probe for the handler.
func (h *FulfillmentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, map[string]string{
		"status":  "healthy",
		"service": "fulfillment-service",
	}); err != nil {
		h.logger.Error(nil, "Failed to write JSON response", err)
	}
}

func (h *FulfillmentHandler) respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	if err := WriteJSONWithStatus(w, statusCode, payload); err != nil {
		h.logger.Error(nil, "Failed to write JSON response", err)
	}
}

func (h *FulfillmentHandler) respondWithError(w http.ResponseWriter, statusCode int, message string, err error) {
	if err == nil {
		if werr := WriteError(w, statusCode, message); werr != nil {
			h.logger.Error(nil, "Failed to write error response", werr)
		}
		return
	}

	h.logger.Error(nil, message, err)
	h.respondWithJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    statusCode,
		Details: err.Error(),
	})
}

func (h *FulfillmentHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case platformErrors.IsNotFound(err):
		h.respondWithError(w, http.StatusNotFound, "Resource not found", err)
	case platformErrors.IsValidation(err):
		h.respondWithError(w, http.StatusBadRequest, "Validation error", err)
	case platformErrors.IsInsufficientStock(err):
		h.respondWithError(w, http.StatusBadRequest, "Insufficient stock", err)
	case platformErrors.IsConflict(err):
		h.respondWithError(w, http.StatusConflict, "Conflict error", err)
	case platformErrors.IsLockAcquisition(err):
		h.respondWithError(w, http.StatusInternalServerError, "Lock acquisition failed", err)
	case platformErrors.IsExternal(err):
		h.respondWithError(w, http.StatusBadGateway, "External service error", err)
	default:
		h.logger.Error(nil, "Internal server error", err)
		h.respondWithError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
