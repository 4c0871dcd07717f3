package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// InventoryRepository implements interfaces.InventoryRepository using
// PostgreSQL. The per-warehouse stock map is stored as a single JSONB
// value; Deduct replaces it with a compare-and-swap on the value read at
// request time, detected through the affected-row count.
type InventoryRepository struct {
	db *sqlx.DB
}

// NewInventoryRepository creates a new PostgreSQL inventory repository
func NewInventoryRepository(db *sqlx.DB) interfaces.InventoryRepository {
	return &InventoryRepository{db: db}
}

type inventoryRow struct {
	SKU           string    `db:"sku"`
	ProductID     string    `db:"product_id"`
	Size          string    `db:"size"`
	StockJSON     []byte    `db:"stock_json"`
	ExpressJSON   []byte    `db:"express_warehouses_json"`
	Currency      string    `db:"currency"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row *inventoryRow) toRecord() (*domain.InventoryRecord, error) {
	stock := map[string]int{}
	if len(row.StockJSON) > 0 {
		if err := json.Unmarshal(row.StockJSON, &stock); err != nil {
			return nil, platformErrors.Wrap(err, "failed to unmarshal stock map")
		}
	}

	express := []string{}
	if len(row.ExpressJSON) > 0 {
		if err := json.Unmarshal(row.ExpressJSON, &express); err != nil {
			return nil, platformErrors.Wrap(err, "failed to unmarshal express warehouse list")
		}
	}
	expressSet := make(map[string]bool, len(express))
	for _, wh := range express {
		expressSet[wh] = true
	}

	return &domain.InventoryRecord{
		SKU:               row.SKU,
		ProductID:         row.ProductID,
		Size:              row.Size,
		Stock:             stock,
		ExpressWarehouses: expressSet,
		Currency:          row.Currency,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}

// GetBySKU retrieves the inventory record for one (product, size) pair.
func (r *InventoryRepository) GetBySKU(ctx context.Context, productID, size string) (*domain.InventoryRecord, error) {
	row, err := r.getRow(ctx, productID, size)
	if err != nil {
		return nil, err
	}
	return row.toRecord()
}

// GetByProduct retrieves all size records for a product, ordered by size.
func (r *InventoryRepository) GetByProduct(ctx context.Context, productID string) ([]*domain.InventoryRecord, error) {
	query := `
		SELECT sku, product_id, size, stock_json, express_warehouses_json, currency, updated_at
		FROM inventory_records
		WHERE product_id = $1
		ORDER BY size`

	rows := []inventoryRow{}
	if err := r.db.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, platformErrors.Wrap(err, "failed to get inventory by product")
	}
	if len(rows) == 0 {
		return nil, platformErrors.NewNotFound("no inventory for product")
	}

	records := make([]*domain.InventoryRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Deduct subtracts quantity from one warehouse's stock. The write replaces
// the whole stock value and is accepted only if the stored value still
// matches the blob read above; zero rows affected means another writer got
// there first and the caller must retry.
func (r *InventoryRepository) Deduct(ctx context.Context, warehouseID, productID, size string, quantity int) (int, error) {
	row, err := r.getRow(ctx, productID, size)
	if err != nil {
		return 0, err
	}

	stock := map[string]int{}
	if len(row.StockJSON) > 0 {
		if err := json.Unmarshal(row.StockJSON, &stock); err != nil {
			return 0, platformErrors.Wrap(err, "failed to unmarshal stock map")
		}
	}

	current := stock[warehouseID]
	if current < quantity {
		return 0, platformErrors.NewInsufficientStock("insufficient stock in warehouse")
	}

	newStock := current - quantity
	stock[warehouseID] = newStock

	newStockJSON, err := json.Marshal(stock)
	if err != nil {
		return 0, platformErrors.Wrap(err, "failed to marshal stock map")
	}

	query := `
		UPDATE inventory_records
		SET stock_json = $1, updated_at = NOW()
		WHERE sku = $2 AND stock_json = $3`

	result, err := r.db.ExecContext(ctx, query, newStockJSON, row.SKU, row.StockJSON)
	if err != nil {
		return 0, platformErrors.Wrap(err, "failed to deduct stock")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, platformErrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		// The row exists (read above), so the stock value changed under us.
		return 0, platformErrors.NewConflict("stock changed concurrently, retry deduction")
	}

	return newStock, nil
}

// Restore adds quantity back to one warehouse's stock. Unlike Deduct this
// is a blind read-modify-write: concurrent restores can lose updates.
func (r *InventoryRepository) Restore(ctx context.Context, warehouseID, productID, size string, quantity int) (int, error) {
	row, err := r.getRow(ctx, productID, size)
	if err != nil {
		return 0, err
	}

	stock := map[string]int{}
	if len(row.StockJSON) > 0 {
		if err := json.Unmarshal(row.StockJSON, &stock); err != nil {
			return 0, platformErrors.Wrap(err, "failed to unmarshal stock map")
		}
	}

	newStock := stock[warehouseID] + quantity
	stock[warehouseID] = newStock

	newStockJSON, err := json.Marshal(stock)
	if err != nil {
		return 0, platformErrors.Wrap(err, "failed to marshal stock map")
	}

	query := `
		UPDATE inventory_records
		SET stock_json = $1, updated_at = NOW()
		WHERE sku = $2`

	if _, err := r.db.ExecContext(ctx, query, newStockJSON, row.SKU); err != nil {
		return 0, platformErrors.Wrap(err, "failed to restore stock")
	}

	return newStock, nil
}

func (r *InventoryRepository) getRow(ctx context.Context, productID, size string) (*inventoryRow, error) {
	query := `
		SELECT sku, product_id, size, stock_json, express_warehouses_json, currency, updated_at
		FROM inventory_records
		WHERE product_id = $1 AND size = $2`

	row := &inventoryRow{}
	if err := r.db.GetContext(ctx, row, query, productID, size); err != nil {
		if err == sql.ErrNoRows {
			return nil, platformErrors.NewNotFound("inventory record not found")
		}
		return nil, platformErrors.Wrap(err, "failed to get inventory record")
	}

	return row, nil
}
