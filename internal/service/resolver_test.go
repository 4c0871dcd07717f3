package service

import (
	"context"
	"testing"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
)

func TestResolveFirstMatchingMappingWins(t *testing.T) {
	// Two overlapping ranges; the one stored first is authoritative.
	regions := &fakeRegionRepository{mappings: []domain.PostalRegionMapping{
		{
			MappingID:       1,
			StartPostalCode: "560001",
			EndPostalCode:   "560050",
			RegionName:      "Bangalore Central",
			Warehouses:      []domain.Warehouse{{WarehouseID: "wh_003"}},
		},
		{
			MappingID:       2,
			StartPostalCode: "560001",
			EndPostalCode:   "560100",
			RegionName:      "Bangalore Urban",
			Warehouses:      []domain.Warehouse{{WarehouseID: "wh_001"}},
		},
	}}
	resolver := NewRegionResolver(regions, logging.NewNoOpLogger())

	mapping, err := resolver.Resolve(context.Background(), "560034")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if mapping.RegionName != "Bangalore Central" {
		t.Errorf("region = %s, want the first stored mapping", mapping.RegionName)
	}

	// A code past the first range falls through to the second.
	mapping, err = resolver.Resolve(context.Background(), "560075")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if mapping.RegionName != "Bangalore Urban" {
		t.Errorf("region = %s, want Bangalore Urban", mapping.RegionName)
	}
}

func TestResolveNormalizesShortCodes(t *testing.T) {
	regions := &fakeRegionRepository{mappings: []domain.PostalRegionMapping{
		{
			StartPostalCode: "001000",
			EndPostalCode:   "002000",
			RegionName:      "Low Range",
		},
	}}
	resolver := NewRegionResolver(regions, logging.NewNoOpLogger())

	mapping, err := resolver.Resolve(context.Background(), "1500")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if mapping.RegionName != "Low Range" {
		t.Errorf("region = %s", mapping.RegionName)
	}
}

func TestResolveNoCoverage(t *testing.T) {
	resolver := NewRegionResolver(&fakeRegionRepository{}, logging.NewNoOpLogger())

	_, err := resolver.Resolve(context.Background(), "999999")
	if !platformErrors.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestResolveEmptyPostalCode(t *testing.T) {
	resolver := NewRegionResolver(&fakeRegionRepository{}, logging.NewNoOpLogger())

	_, err := resolver.Resolve(context.Background(), "")
	if !platformErrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
