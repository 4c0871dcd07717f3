package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// RegionRepository implements interfaces.RegionRepository using PostgreSQL
type RegionRepository struct {
	db *sqlx.DB
}

// NewRegionRepository creates a new PostgreSQL region repository
func NewRegionRepository(db *sqlx.DB) interfaces.RegionRepository {
	return &RegionRepository{db: db}
}

type regionRow struct {
	MappingID       int64  `db:"mapping_id"`
	StartPostalCode string `db:"start_postal_code"`
	EndPostalCode   string `db:"end_postal_code"`
	State           string `db:"state"`
	RegionName      string `db:"region_name"`
	WarehousesJSON  []byte `db:"warehouses_json"`
}

// ListMappings returns all postal region mappings ordered by mapping_id.
// The explicit ordering pins range-overlap resolution: callers take the
// first matching range, so iteration order must be stable across stores.
func (r *RegionRepository) ListMappings(ctx context.Context) ([]domain.PostalRegionMapping, error) {
	query := `
		SELECT mapping_id, start_postal_code, end_postal_code, state, region_name, warehouses_json
		FROM postal_region_mappings
		ORDER BY mapping_id`

	rows := []regionRow{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, platformErrors.Wrap(err, "failed to list postal region mappings")
	}

	mappings := make([]domain.PostalRegionMapping, 0, len(rows))
	for _, row := range rows {
		var warehouses []domain.Warehouse
		if err := json.Unmarshal(row.WarehousesJSON, &warehouses); err != nil {
			return nil, platformErrors.Wrap(err, "failed to unmarshal warehouse list")
		}

		mappings = append(mappings, domain.PostalRegionMapping{
			MappingID:       row.MappingID,
			StartPostalCode: row.StartPostalCode,
			EndPostalCode:   row.EndPostalCode,
			State:           row.State,
			RegionName:      row.RegionName,
			Warehouses:      warehouses,
		})
	}

	return mappings, nil
}
