package service

import (
	"context"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// RegionResolver maps a postal code to its serving warehouses.
type RegionResolver interface {
	// Resolve returns the first mapping whose range contains the postal
	// code, scanning mappings in stored order. Returns a not-found error
	// when no range covers the code.
	Resolve(ctx context.Context, postalCode string) (*domain.PostalRegionMapping, error)
}

type regionResolver struct {
	regions interfaces.RegionRepository
	logger  logging.Logger
}

// NewRegionResolver creates a resolver backed by the region repository.
func NewRegionResolver(regions interfaces.RegionRepository, logger logging.Logger) RegionResolver {
	return &regionResolver{
		regions: regions,
		logger:  logger,
	}
}

func (r *regionResolver) Resolve(ctx context.Context, postalCode string) (*domain.PostalRegionMapping, error) {
	if postalCode == "" {
		return nil, platformErrors.NewValidation("postal code is required")
	}

	mappings, err := r.regions.ListMappings(ctx)
	if err != nil {
		return nil, platformErrors.Wrap(err, "failed to load region mappings")
	}

	normalized := domain.NormalizePostalCode(postalCode)

	for i := range mappings {
		if mappings[i].Contains(normalized) {
			r.logger.Debug(ctx, "Postal code resolved to region", map[string]interface{}{
				"postal_code": postalCode,
				"region":      mappings[i].RegionName,
				"warehouses":  len(mappings[i].Warehouses),
			})
			return &mappings[i], nil
		}
	}

	return nil, platformErrors.NewNotFound("no warehouse coverage for this postal code")
}
