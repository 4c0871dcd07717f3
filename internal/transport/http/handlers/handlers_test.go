package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/service"
)

// stubFulfillmentService implements service.FulfillmentService with
// canned responses per method.
type stubFulfillmentService struct {
	checkResult    *service.CheckAvailabilityResult
	checkErr       error
	lockResult     *service.LockStockResult
	lockErr        error
	unlockResult   *service.ReleaseAllResult
	unlockErr      error
	mutationResult *service.StockMutationResult
	mutationErr    error
	record         *domain.InventoryRecord
	recordErr      error
}

func (s *stubFulfillmentService) CheckAvailability(ctx context.Context, req service.CheckAvailabilityRequest) (*service.CheckAvailabilityResult, error) {
	return s.checkResult, s.checkErr
}

func (s *stubFulfillmentService) LockStock(ctx context.Context, req service.LockStockRequest) (*service.LockStockResult, error) {
	return s.lockResult, s.lockErr
}

func (s *stubFulfillmentService) UnlockStock(ctx context.Context, req service.UnlockStockRequest) (*service.ReleaseAllResult, error) {
	return s.unlockResult, s.unlockErr
}

func (s *stubFulfillmentService) DeductStock(ctx context.Context, req service.StockMutationRequest) (*service.StockMutationResult, error) {
	return s.mutationResult, s.mutationErr
}

func (s *stubFulfillmentService) RestoreStock(ctx context.Context, req service.StockMutationRequest) (*service.StockMutationResult, error) {
	return s.mutationResult, s.mutationErr
}

func (s *stubFulfillmentService) GetStock(ctx context.Context, productID, size string) (*domain.InventoryRecord, error) {
	return s.record, s.recordErr
}

func (s *stubFulfillmentService) GetProductStock(ctx context.Context, productID string) ([]*domain.InventoryRecord, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	return []*domain.InventoryRecord{s.record}, nil
}

func newTestRouter(svc service.FulfillmentService) *chi.Mux {
	logger := logging.NewNoOpLogger()
	fulfillmentHandler := NewFulfillmentHandler(svc, logger)
	stockHandler := NewStockHandler(svc, logger)

	router := chi.NewRouter()
	router.Post("/api/fulfillment/check", fulfillmentHandler.CheckAvailability)
	router.Post("/api/fulfillment/lock", fulfillmentHandler.LockStock)
	router.Post("/api/fulfillment/unlock", fulfillmentHandler.UnlockStock)
	router.Post("/api/stock/deduct", stockHandler.DeductStock)
	router.Post("/api/stock/restore", stockHandler.RestoreStock)
	router.Get("/api/stock/product/{productID}", stockHandler.GetProductStock)
	router.Get("/api/stock/{productID}/{size}", stockHandler.GetStock)
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func availableCheckResult() *service.CheckAvailabilityResult {
	return &service.CheckAvailabilityResult{
		Available:         true,
		RegionName:        "Bangalore Urban",
		SKU:               "P0001-10",
		RequestedQuantity: 2,
		Tier:              domain.TierOne,
		ExpressAvailable:  true,
		Allocations: []domain.Allocation{
			{WarehouseID: "wh_003", AllocatedQuantity: 2, Tier: domain.TierOne},
		},
		Delivery: &service.DeliveryQuote{
			Tier:            domain.TierOne,
			Description:     "Same-city delivery",
			StandardCost:    40,
			ExpressCost:     99,
			FreeThreshold:   999,
			Currency:        "INR",
			NormalWindow:    domain.DeliveryWindow{MinDays: 2, MaxDays: 3},
			ExpressWindow:   domain.DeliveryWindow{MinDays: 1, MaxDays: 2},
			NormalEstimate:  "2026-09-03",
			ExpressEstimate: "2026-09-02",
		},
	}
}

func TestCheckAvailabilityEndpointOK(t *testing.T) {
	svc := &stubFulfillmentService{checkResult: availableCheckResult()}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/fulfillment/check", CheckAvailabilityRequest{
		PostalCode: "560034", ProductID: "P0001", Size: "10", Quantity: 2,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result CheckAvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !result.Success || result.Fulfillment.SKU != "P0001-10" {
		t.Errorf("result = %+v", result)
	}
	if result.Delivery == nil {
		t.Fatal("expected delivery block")
	}
	if result.Delivery.HighestTier != "tier_1" || result.Delivery.StandardDeliveryCost != 40 {
		t.Errorf("delivery = %+v", result.Delivery)
	}
}

func TestCheckAvailabilityEndpointFieldNames(t *testing.T) {
	svc := &stubFulfillmentService{checkResult: availableCheckResult()}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/fulfillment/check", CheckAvailabilityRequest{
		PostalCode: "560034", ProductID: "P0001", Size: "10", Quantity: 2,
	})

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	for _, key := range []string{"success", "fulfillment", "delivery"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	var delivery map[string]json.RawMessage
	if err := json.Unmarshal(body["delivery"], &delivery); err != nil {
		t.Fatalf("unmarshal delivery: %v", err)
	}
	for _, key := range []string{
		"highest_tier",
		"standard_delivery_cost",
		"express_delivery_cost",
		"free_delivery_threshold",
		"estimated_days_normal",
		"estimated_days_express",
		"estimated_delivery_date_normal",
		"estimated_delivery_date_express",
	} {
		if _, ok := delivery[key]; !ok {
			t.Errorf("missing delivery key %q", key)
		}
	}

	var fulfillment map[string]json.RawMessage
	if err := json.Unmarshal(body["fulfillment"], &fulfillment); err != nil {
		t.Fatalf("unmarshal fulfillment: %v", err)
	}
	for _, key := range []string{"allocations", "remaining_quantity", "any_express_available", "sku"} {
		if _, ok := fulfillment[key]; !ok {
			t.Errorf("missing fulfillment key %q", key)
		}
	}
}

func TestCheckAvailabilityEndpointInsufficientIs400WithPlan(t *testing.T) {
	svc := &stubFulfillmentService{
		checkResult: &service.CheckAvailabilityResult{
			Available:         false,
			RemainingQuantity: 7,
			Allocations: []domain.Allocation{
				{WarehouseID: "wh_003", AllocatedQuantity: 3},
				{WarehouseID: "wh_001", AllocatedQuantity: 10},
			},
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/fulfillment/check", CheckAvailabilityRequest{
		PostalCode: "560034", ProductID: "P0001", Size: "10", Quantity: 20,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// The partial plan rides along on the 400 response.
	var result InsufficientStockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.Success {
		t.Error("expected success=false")
	}
	if len(result.PartialAllocations) != 2 || result.RemainingQuantity != 7 {
		t.Errorf("result = %+v", result)
	}

	var body map[string]json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &body)
	if _, ok := body["partial_allocations"]; !ok {
		t.Error("missing partial_allocations key")
	}
}

func TestCheckAvailabilityEndpointBadJSON(t *testing.T) {
	router := newTestRouter(&stubFulfillmentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/fulfillment/check", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCheckAvailabilityEndpointUnknownRegion(t *testing.T) {
	svc := &stubFulfillmentService{
		checkErr: platformErrors.NewNotFound("no warehouse coverage for this postal code"),
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/fulfillment/check", CheckAvailabilityRequest{
		PostalCode: "110001", ProductID: "P0001", Size: "10", Quantity: 1,
	})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLockEndpointStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient stock", platformErrors.NewInsufficientStock("short"), http.StatusBadRequest},
		{"lock acquisition", platformErrors.NewLockAcquisition("ledger down"), http.StatusInternalServerError},
		{"validation", platformErrors.NewValidation("identifier is required"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubFulfillmentService{lockErr: tt.err})
			rec := postJSON(t, router, "/api/fulfillment/lock", LockStockRequest{
				Allocations: []service.LockAllocation{{WarehouseID: "wh_003", SKU: "P0001-10", AllocatedQuantity: 1}},
				UserID:      "user_42",
			})
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLockEndpointSuccess(t *testing.T) {
	svc := &stubFulfillmentService{
		lockResult: &service.LockStockResult{
			Success:    true,
			Locked:     true,
			Identifier: "guest_abc",
			Locks: []service.AcquireResult{
				{WarehouseID: "wh_003", SKU: "P0001-10", TotalLocked: 2},
			},
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/fulfillment/lock", LockStockRequest{
		Allocations:    []service.LockAllocation{{WarehouseID: "wh_003", SKU: "P0001-10", AllocatedQuantity: 2}},
		GuestSessionID: "guest_abc",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result service.LockStockResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if !result.Success || !result.Locked || len(result.Locks) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestUnlockEndpoint(t *testing.T) {
	svc := &stubFulfillmentService{
		unlockResult: &service.ReleaseAllResult{
			Success: true,
			Results: []service.ReleaseResult{
				{WarehouseID: "wh_003", SKU: "P0001-10", Released: true, ReleasedQuantity: 2},
			},
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/fulfillment/unlock", UnlockStockRequest{
		Allocations: []service.LockRef{{WarehouseID: "wh_003", SKU: "P0001-10"}},
		UserID:      "user_42",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result UnlockStockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !result.Success || !result.Released {
		t.Errorf("result = %+v", result)
	}
}

func TestUnlockEndpointExpiredLockReportsNotReleased(t *testing.T) {
	svc := &stubFulfillmentService{
		unlockResult: &service.ReleaseAllResult{
			Success: true,
			Results: []service.ReleaseResult{
				{WarehouseID: "wh_003", SKU: "P0001-10", Released: false},
			},
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/fulfillment/unlock", UnlockStockRequest{
		Allocations: []service.LockRef{{WarehouseID: "wh_003", SKU: "P0001-10"}},
		UserID:      "user_42",
	})

	var result UnlockStockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !result.Success || result.Released {
		t.Errorf("expired entry should leave success=true, released=false, got %+v", result)
	}
}

func TestDeductEndpointConflictIs409(t *testing.T) {
	svc := &stubFulfillmentService{
		mutationErr: platformErrors.NewConflict("stock changed concurrently, retry deduction"),
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/stock/deduct", StockMutationRequest{
		WarehouseID: "wh_003", ProductID: "P0001", Size: "10", Quantity: 1,
	})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestDeductEndpointInsufficientIs400(t *testing.T) {
	svc := &stubFulfillmentService{
		mutationErr: platformErrors.NewInsufficientStock("insufficient stock for deduction"),
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/stock/deduct", StockMutationRequest{
		WarehouseID: "wh_003", ProductID: "P0001", Size: "10", Quantity: 99,
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRestoreEndpointOK(t *testing.T) {
	svc := &stubFulfillmentService{
		mutationResult: &service.StockMutationResult{
			WarehouseID: "wh_003", SKU: "P0001-10", Quantity: 2, NewStock: 5,
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/stock/restore", StockMutationRequest{
		WarehouseID: "wh_003", ProductID: "P0001", Size: "10", Quantity: 2,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result StockMutationResponse
	json.Unmarshal(rec.Body.Bytes(), &result)
	if !result.Success || result.NewStock != 5 {
		t.Errorf("result = %+v", result)
	}
}

func TestGetStockEndpoint(t *testing.T) {
	svc := &stubFulfillmentService{
		record: &domain.InventoryRecord{
			SKU:       "P0001-10",
			ProductID: "P0001",
			Size:      "10",
			Stock:     map[string]int{"wh_003": 3},
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/P0001/10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var record domain.InventoryRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record.SKU != "P0001-10" || record.Stock["wh_003"] != 3 {
		t.Errorf("record = %+v", record)
	}
}

func TestGetStockEndpointNotFound(t *testing.T) {
	svc := &stubFulfillmentService{
		recordErr: platformErrors.NewNotFound("inventory record not found"),
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/P9999/10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetProductStockEndpoint(t *testing.T) {
	svc := &stubFulfillmentService{
		record: &domain.InventoryRecord{SKU: "P0001-10", ProductID: "P0001", Size: "10"},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/product/P0001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var records []domain.InventoryRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}
