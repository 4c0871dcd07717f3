package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/metrics"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// StockEventPublisher publishes stock mutation events. Publishing is
// fire-and-forget from the orchestrator's point of view: failures are
// logged, never surfaced to the API caller.
type StockEventPublisher interface {
	PublishStockEvent(ctx context.Context, event StockEvent) error
}

// StockEvent is the envelope for stock mutation notifications.
type StockEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	WarehouseID string    `json:"warehouse_id"`
	SKU         string    `json:"sku"`
	Quantity    int       `json:"quantity"`
	NewStock    int       `json:"new_stock,omitempty"`
	Identifier  string    `json:"identifier,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Stock event types.
const (
	EventStockDeducted = "stock.deducted"
	EventStockRestored = "stock.restored"
	EventStockLocked   = "stock.locked"
	EventStockReleased = "stock.released"
)

// FulfillmentService orchestrates availability checks, stock locking
// and stock mutation for the fulfillment API.
type FulfillmentService interface {
	CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*CheckAvailabilityResult, error)
	LockStock(ctx context.Context, req LockStockRequest) (*LockStockResult, error)
	UnlockStock(ctx context.Context, req UnlockStockRequest) (*ReleaseAllResult, error)
	DeductStock(ctx context.Context, req StockMutationRequest) (*StockMutationResult, error)
	RestoreStock(ctx context.Context, req StockMutationRequest) (*StockMutationResult, error)
	GetStock(ctx context.Context, productID, size string) (*domain.InventoryRecord, error)
	GetProductStock(ctx context.Context, productID string) ([]*domain.InventoryRecord, error)
}

// CheckAvailabilityRequest asks whether a quantity of one SKU can be
// served to a postal code.
type CheckAvailabilityRequest struct {
	PostalCode string `json:"postal_code"`
	ProductID  string `json:"product_id"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
}

// CheckAvailabilityResult carries the allocation plan plus the delivery
// quote for the plan's governing tier. When Available is false the
// allocations show the partial coverage that was possible.
type CheckAvailabilityResult struct {
	Available         bool                `json:"available"`
	RegionName        string              `json:"region_name"`
	SKU               string              `json:"sku"`
	RequestedQuantity int                 `json:"requested_quantity"`
	RemainingQuantity int                 `json:"remaining_quantity"`
	Allocations       []domain.Allocation `json:"allocations"`
	Tier              domain.DeliveryTier `json:"tier"`
	ExpressAvailable  bool                `json:"express_available"`
	Delivery          *DeliveryQuote      `json:"delivery,omitempty"`
}

// LockAllocation is one reservation target, normally taken from the
// allocation plan a preceding availability check returned.
type LockAllocation struct {
	WarehouseID       string `json:"warehouse_id"`
	SKU               string `json:"sku"`
	AllocatedQuantity int    `json:"allocated_quantity"`
}

// LockStockRequest reserves stock for each listed allocation.
// Identifier groups the reservations (a user or guest session id).
type LockStockRequest struct {
	Allocations []LockAllocation `json:"allocations"`
	Identifier  string           `json:"identifier"`
}

// LockStockResult reports the reservations taken for a lock request.
type LockStockResult struct {
	Success    bool            `json:"success"`
	Locked     bool            `json:"locked"`
	Identifier string          `json:"identifier"`
	Locks      []AcquireResult `json:"locks"`
}

// UnlockStockRequest releases an identifier's reservations on a set of
// warehouse/SKU pairs.
type UnlockStockRequest struct {
	Identifier string    `json:"identifier"`
	Locks      []LockRef `json:"allocations"`
}

// StockMutationRequest changes one warehouse's persistent stock level.
type StockMutationRequest struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
}

// StockMutationResult reports the stock level after a deduct or restore.
type StockMutationResult struct {
	WarehouseID string `json:"warehouse_id"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	NewStock    int    `json:"new_stock"`
}

// fulfillmentService is the concrete orchestrator.
type fulfillmentService struct {
	resolver  RegionResolver
	inventory interfaces.InventoryRepository
	locks     LockManager
	delivery  DeliveryCalculator
	events    StockEventPublisher
	logger    logging.Logger
	metrics   metrics.Metrics
	tracer    trace.Tracer
}

// NewFulfillmentService wires the orchestrator. events may be nil when
// no broker is configured.
func NewFulfillmentService(
	resolver RegionResolver,
	inventory interfaces.InventoryRepository,
	locks LockManager,
	delivery DeliveryCalculator,
	events StockEventPublisher,
	logger logging.Logger,
	m metrics.Metrics,
) FulfillmentService {
	return &fulfillmentService{
		resolver:  resolver,
		inventory: inventory,
		locks:     locks,
		delivery:  delivery,
		events:    events,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("fulfillment-service"),
	}
}

// CheckAvailability resolves the region, builds the allocation plan and
// attaches the delivery quote for the plan's highest tier.
func (s *fulfillmentService) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*CheckAvailabilityResult, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.CheckAvailability")
	defer span.End()

	span.SetAttributes(
		attribute.String("fulfillment.postal_code", req.PostalCode),
		attribute.String("fulfillment.product_id", req.ProductID),
		attribute.Int("fulfillment.quantity", req.Quantity),
	)

	if err := validateItemRequest(req.PostalCode, req.ProductID, req.Size, req.Quantity); err != nil {
		span.RecordError(err)
		return nil, err
	}

	plan, mapping, record, err := s.buildAllocationPlan(ctx, req.PostalCode, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &CheckAvailabilityResult{
		Available:         plan.RemainingQuantity == 0,
		RegionName:        mapping.RegionName,
		SKU:               record.SKU,
		RequestedQuantity: req.Quantity,
		RemainingQuantity: plan.RemainingQuantity,
		Allocations:       plan.Allocations,
		ExpressAvailable:  plan.AnyExpressAvailable,
	}

	if len(plan.Allocations) > 0 {
		result.Tier = domain.HighestTier(plan.Allocations)
		quote, err := s.delivery.Quote(ctx, result.Tier)
		if err != nil {
			// The quote enriches the response; its absence does not
			// invalidate the allocation plan.
			s.logger.Warn(ctx, "Failed to load delivery quote", map[string]interface{}{
				"tier":  string(result.Tier),
				"error": err.Error(),
			})
		} else {
			result.Delivery = quote
		}
	}

	s.metrics.IncrementCounter("fulfillment_checks_total", map[string]string{
		"available": fmt.Sprintf("%t", result.Available),
	})

	s.logger.Info(ctx, "Availability check completed", map[string]interface{}{
		"postal_code": req.PostalCode,
		"sku":         record.SKU,
		"requested":   req.Quantity,
		"remaining":   plan.RemainingQuantity,
		"warehouses":  len(plan.Allocations),
	})

	return result, nil
}

// LockStock acquires one lock per submitted allocation. If any acquire
// fails, every lock taken so far in this call is released and the whole
// operation fails.
func (s *fulfillmentService) LockStock(ctx context.Context, req LockStockRequest) (*LockStockResult, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.LockStock")
	defer span.End()

	span.SetAttributes(
		attribute.String("fulfillment.identifier", req.Identifier),
		attribute.Int("fulfillment.allocations", len(req.Allocations)),
	)

	if req.Identifier == "" {
		return nil, platformErrors.NewValidation("identifier is required")
	}
	if len(req.Allocations) == 0 {
		return nil, platformErrors.NewValidation("at least one allocation is required")
	}
	for _, alloc := range req.Allocations {
		if alloc.WarehouseID == "" || alloc.SKU == "" {
			return nil, platformErrors.NewValidation("allocations require warehouse_id and sku")
		}
		if alloc.AllocatedQuantity <= 0 {
			return nil, platformErrors.NewValidation("allocated_quantity must be positive")
		}
	}
	if s.locks == nil {
		return nil, platformErrors.NewLockAcquisition("lock store unavailable")
	}

	acquired := make([]AcquireResult, 0, len(req.Allocations))
	taken := make([]LockRef, 0, len(req.Allocations))

	for _, alloc := range req.Allocations {
		result, err := s.locks.Acquire(ctx, alloc.WarehouseID, alloc.SKU, req.Identifier, alloc.AllocatedQuantity)
		if err != nil {
			// Roll back the locks taken before the failure, then fail.
			s.logger.Error(ctx, "Lock acquisition failed, rolling back", err, map[string]interface{}{
				"warehouse_id": alloc.WarehouseID,
				"sku":          alloc.SKU,
				"identifier":   req.Identifier,
				"taken":        len(taken),
			})
			rollback := s.locks.ReleaseAll(ctx, taken, req.Identifier)
			if !rollback.Success {
				s.logger.Error(ctx, "Lock rollback left residual reservations", nil, map[string]interface{}{
					"identifier": req.Identifier,
				})
			}
			span.RecordError(err)
			s.metrics.IncrementCounter("fulfillment_lock_failures_total", nil)
			return nil, platformErrors.NewLockAcquisition(fmt.Sprintf(
				"failed to lock stock at warehouse %s", alloc.WarehouseID))
		}
		acquired = append(acquired, *result)
		taken = append(taken, LockRef{WarehouseID: alloc.WarehouseID, SKU: alloc.SKU})

		s.publishEvent(ctx, StockEvent{
			EventType:   EventStockLocked,
			WarehouseID: alloc.WarehouseID,
			SKU:         alloc.SKU,
			Quantity:    alloc.AllocatedQuantity,
			Identifier:  req.Identifier,
		})
	}

	s.metrics.IncrementCounter("fulfillment_locks_total", nil)

	s.logger.Info(ctx, "Stock locked", map[string]interface{}{
		"identifier": req.Identifier,
		"locks":      len(acquired),
	})

	return &LockStockResult{
		Success:    true,
		Locked:     true,
		Identifier: req.Identifier,
		Locks:      acquired,
	}, nil
}

// UnlockStock releases the identifier's reservations for each listed
// warehouse/SKU pair, aggregating per-entry outcomes.
func (s *fulfillmentService) UnlockStock(ctx context.Context, req UnlockStockRequest) (*ReleaseAllResult, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.UnlockStock")
	defer span.End()

	if req.Identifier == "" {
		return nil, platformErrors.NewValidation("identifier is required")
	}
	if len(req.Locks) == 0 {
		return nil, platformErrors.NewValidation("at least one lock reference is required")
	}
	for _, ref := range req.Locks {
		if ref.WarehouseID == "" || ref.SKU == "" {
			return nil, platformErrors.NewValidation("lock references require warehouse_id and sku")
		}
	}
	if s.locks == nil {
		return nil, platformErrors.NewLockAcquisition("lock store unavailable")
	}

	result := s.locks.ReleaseAll(ctx, req.Locks, req.Identifier)

	for _, r := range result.Results {
		if !r.Released {
			continue
		}
		s.publishEvent(ctx, StockEvent{
			EventType:   EventStockReleased,
			WarehouseID: r.WarehouseID,
			SKU:         r.SKU,
			Quantity:    r.ReleasedQuantity,
			Identifier:  req.Identifier,
		})
	}

	s.logger.Info(ctx, "Stock unlocked", map[string]interface{}{
		"identifier": req.Identifier,
		"requested":  len(req.Locks),
		"success":    result.Success,
	})

	return result, nil
}

// DeductStock permanently removes quantity from one warehouse's stock.
func (s *fulfillmentService) DeductStock(ctx context.Context, req StockMutationRequest) (*StockMutationResult, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.DeductStock")
	defer span.End()

	if err := validateMutationRequest(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	newStock, err := s.inventory.Deduct(ctx, req.WarehouseID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		span.RecordError(err)
		s.metrics.IncrementCounter("fulfillment_deduct_failures_total", nil)
		return nil, err
	}

	sku := domain.MakeSKU(req.ProductID, req.Size)

	s.publishEvent(ctx, StockEvent{
		EventType:   EventStockDeducted,
		WarehouseID: req.WarehouseID,
		SKU:         sku,
		Quantity:    req.Quantity,
		NewStock:    newStock,
	})

	s.metrics.IncrementCounter("fulfillment_deducts_total", nil)

	s.logger.Info(ctx, "Stock deducted", map[string]interface{}{
		"warehouse_id": req.WarehouseID,
		"sku":          sku,
		"quantity":     req.Quantity,
		"new_stock":    newStock,
	})

	return &StockMutationResult{
		WarehouseID: req.WarehouseID,
		SKU:         sku,
		Quantity:    req.Quantity,
		NewStock:    newStock,
	}, nil
}

// RestoreStock adds quantity back to one warehouse's stock.
func (s *fulfillmentService) RestoreStock(ctx context.Context, req StockMutationRequest) (*StockMutationResult, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.RestoreStock")
	defer span.End()

	if err := validateMutationRequest(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	newStock, err := s.inventory.Restore(ctx, req.WarehouseID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sku := domain.MakeSKU(req.ProductID, req.Size)

	s.publishEvent(ctx, StockEvent{
		EventType:   EventStockRestored,
		WarehouseID: req.WarehouseID,
		SKU:         sku,
		Quantity:    req.Quantity,
		NewStock:    newStock,
	})

	s.metrics.IncrementCounter("fulfillment_restores_total", nil)

	s.logger.Info(ctx, "Stock restored", map[string]interface{}{
		"warehouse_id": req.WarehouseID,
		"sku":          sku,
		"quantity":     req.Quantity,
		"new_stock":    newStock,
	})

	return &StockMutationResult{
		WarehouseID: req.WarehouseID,
		SKU:         sku,
		Quantity:    req.Quantity,
		NewStock:    newStock,
	}, nil
}

// GetStock returns the inventory record for one product/size pair.
func (s *fulfillmentService) GetStock(ctx context.Context, productID, size string) (*domain.InventoryRecord, error) {
	if productID == "" || size == "" {
		return nil, platformErrors.NewValidation("product_id and size are required")
	}
	return s.inventory.GetBySKU(ctx, productID, size)
}

// GetProductStock returns every size's inventory record for a product.
func (s *fulfillmentService) GetProductStock(ctx context.Context, productID string) ([]*domain.InventoryRecord, error) {
	if productID == "" {
		return nil, platformErrors.NewValidation("product_id is required")
	}
	return s.inventory.GetByProduct(ctx, productID)
}

// buildAllocationPlan resolves the region, loads the record and runs the
// greedy allocator with live lock counts.
func (s *fulfillmentService) buildAllocationPlan(ctx context.Context, postalCode, productID, size string, quantity int) (*domain.AllocationResult, *domain.PostalRegionMapping, *domain.InventoryRecord, error) {
	mapping, err := s.resolver.Resolve(ctx, postalCode)
	if err != nil {
		return nil, nil, nil, err
	}

	record, err := s.inventory.GetBySKU(ctx, productID, size)
	if err != nil {
		return nil, nil, nil, err
	}

	plan := domain.Allocate(mapping.Warehouses, record, quantity, lockedLookup(ctx, s.locks, record.SKU))
	return &plan, mapping, record, nil
}

// publishEvent emits a stock event, swallowing publish failures.
func (s *fulfillmentService) publishEvent(ctx context.Context, event StockEvent) {
	if s.events == nil {
		return
	}
	event.EventID = uuid.New().String()
	event.OccurredAt = time.Now().UTC()
	if err := s.events.PublishStockEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish stock event", map[string]interface{}{
			"event_type": event.EventType,
			"sku":        event.SKU,
			"error":      err.Error(),
		})
	}
}

func validateItemRequest(postalCode, productID, size string, quantity int) error {
	if postalCode == "" {
		return platformErrors.NewValidation("postal_code is required")
	}
	if productID == "" {
		return platformErrors.NewValidation("product_id is required")
	}
	if size == "" {
		return platformErrors.NewValidation("size is required")
	}
	if quantity <= 0 {
		return platformErrors.NewValidation("quantity must be positive")
	}
	return nil
}

func validateMutationRequest(req StockMutationRequest) error {
	if req.WarehouseID == "" {
		return platformErrors.NewValidation("warehouse_id is required")
	}
	if req.ProductID == "" {
		return platformErrors.NewValidation("product_id is required")
	}
	if req.Size == "" {
		return platformErrors.NewValidation("size is required")
	}
	if req.Quantity <= 0 {
		return platformErrors.NewValidation("quantity must be positive")
	}
	return nil
}
