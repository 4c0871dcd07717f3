package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/tracing"
	"github.com/amiosamu/fulfillment-service/internal/service"
)

// StockHandler handles HTTP requests for persistent stock reads and
// mutations.
type StockHandler struct {
	fulfillment service.FulfillmentService
	logger      logging.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(fulfillment service.FulfillmentService, logger logging.Logger) *StockHandler {
	return &StockHandler{
		fulfillment: fulfillment,
		logger:      logger,
	}
}

// DeductStock handles POST /api/stock/deduct
func (h *StockHandler) DeductStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StockMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	tracing.AddSpanAttributes(ctx,
		tracing.WarehouseIDKey.String(req.WarehouseID),
		tracing.QuantityKey.Int(req.Quantity),
	)

	result, err := h.fulfillment.DeductStock(ctx, service.StockMutationRequest{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		Size:        req.Size,
		Quantity:    req.Quantity,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, newStockMutationResponse(result))
}

// RestoreStock handles POST /api/stock/restore
func (h *StockHandler) RestoreStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StockMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	tracing.AddSpanAttributes(ctx,
		tracing.WarehouseIDKey.String(req.WarehouseID),
		tracing.QuantityKey.Int(req.Quantity),
	)

	result, err := h.fulfillment.RestoreStock(ctx, service.StockMutationRequest{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		Size:        req.Size,
		Quantity:    req.Quantity,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, newStockMutationResponse(result))
}

// GetStock handles GET /api/stock/{productID}/{size}
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := chi.URLParam(r, "productID")
	size := chi.URLParam(r, "size")

	record, err := h.fulfillment.GetStock(ctx, productID, size)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, record)
}

// GetProductStock handles GET /api/stock/product/{productID}
func (h *StockHandler) GetProductStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := chi.URLParam(r, "productID")

	records, err := h.fulfillment.GetProductStock(ctx, productID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, records)
}

func (h *StockHandler) respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	if err := WriteJSONWithStatus(w, statusCode, payload); err != nil {
		h.logger.Error(nil, "Failed to write JSON response", err)
	}
}

func (h *StockHandler) respondWithError(w http.ResponseWriter, statusCode int, message string, err error) {
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

func (h *StockHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case platformErrors.IsNotFound(err):
		h.respondWithError(w, http.StatusNotFound, "Resource not found", err)
	case platformErrors.IsValidation(err):
		h.respondWithError(w, http.StatusBadRequest, "Validation error", err)
	case platformErrors.IsInsufficientStock(err):
		h.respondWithError(w, http.StatusBadRequest, "Insufficient stock", err)
	case platformErrors.IsConflict(err):
		h.respondWithError(w, http.StatusConflict, "Conflict error", err)
	case platformErrors.IsExternal(err):
		h.respondWithError(w, http.StatusBadGateway, "External service error", err)
	default:
		h.logger.Error(nil, "Internal server error", err)
		h.respondWithError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
