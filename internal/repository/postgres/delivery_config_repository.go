package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// DeliveryConfigRepository implements interfaces.DeliveryConfigRepository
// using PostgreSQL. The table is seeded and read-only at request time.
type DeliveryConfigRepository struct {
	db *sqlx.DB
}

// NewDeliveryConfigRepository creates a new PostgreSQL delivery config repository
func NewDeliveryConfigRepository(db *sqlx.DB) interfaces.DeliveryConfigRepository {
	return &DeliveryConfigRepository{db: db}
}

// GetTier retrieves the pricing row for one delivery tier.
func (r *DeliveryConfigRepository) GetTier(ctx context.Context, tierName string) (*domain.DeliveryCostConfig, error) {
	query := `
		SELECT tier_name, description, standard_cost, express_cost, free_threshold, currency
		FROM delivery_cost_config
		WHERE tier_name = $1`

	config := &domain.DeliveryCostConfig{}
	if err := r.db.GetContext(ctx, config, query, tierName); err != nil {
		if err == sql.ErrNoRows {
			return nil, platformErrors.NewNotFound("delivery tier not configured")
		}
		return nil, platformErrors.Wrap(err, "failed to get delivery tier config")
	}

	return config, nil
}
