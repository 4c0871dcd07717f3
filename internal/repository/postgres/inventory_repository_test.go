package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
)

func TestInventoryRowToRecord(t *testing.T) {
	row := &inventoryRow{
		SKU:         "P0001-10",
		ProductID:   "P0001",
		Size:        "10",
		StockJSON:   []byte(`{"wh_003":3,"wh_001":10}`),
		ExpressJSON: []byte(`["wh_003"]`),
		Currency:    "INR",
		UpdatedAt:   time.Now(),
	}

	record, err := row.toRecord()
	if err != nil {
		t.Fatalf("toRecord failed: %v", err)
	}

	if record.StockFor("wh_003") != 3 || record.StockFor("wh_001") != 10 {
		t.Errorf("stock = %+v", record.Stock)
	}
	if !record.HasExpress("wh_003") {
		t.Error("wh_003 should be express")
	}
	if record.HasExpress("wh_001") {
		t.Error("wh_001 should not be express")
	}
	if record.TotalStock() != 13 {
		t.Errorf("total = %d, want 13", record.TotalStock())
	}
}

func TestInventoryRowToRecordEmptyJSON(t *testing.T) {
	row := &inventoryRow{SKU: "P0002-8", ProductID: "P0002", Size: "8"}

	record, err := row.toRecord()
	if err != nil {
		t.Fatalf("toRecord failed: %v", err)
	}
	if record.TotalStock() != 0 {
		t.Errorf("total = %d, want 0", record.TotalStock())
	}
	if record.HasExpress("wh_003") {
		t.Error("no warehouse should be express")
	}
}

func TestInventoryRowToRecordMalformedStock(t *testing.T) {
	row := &inventoryRow{
		SKU:       "P0001-10",
		StockJSON: []byte(`{"wh_003":`),
	}

	if _, err := row.toRecord(); err == nil {
		t.Error("expected error for malformed stock JSON")
	}
}

func newMockInventoryRepository(t *testing.T) (*InventoryRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &InventoryRepository{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func inventoryRows(stockJSON string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"sku", "product_id", "size", "stock_json", "express_warehouses_json", "currency", "updated_at",
	}).AddRow("P0001-10", "P0001", "10", []byte(stockJSON), []byte(`["wh_003"]`), "INR", time.Now())
}

func TestDeductGuardsUpdateWithReadTimeBlob(t *testing.T) {
	repo, mock := newMockInventoryRepository(t)

	priorBlob := `{"wh_001":10,"wh_003":3}`
	mock.ExpectQuery("SELECT sku, product_id, size").
		WithArgs("P0001", "10").
		WillReturnRows(inventoryRows(priorBlob))
	// The WHERE clause must carry the exact blob read above, not a
	// re-read; zero rows affected means another writer won.
	mock.ExpectExec("UPDATE inventory_records").
		WithArgs([]byte(`{"wh_001":10,"wh_003":1}`), "P0001-10", []byte(priorBlob)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Deduct(context.Background(), "wh_003", "P0001", "10", 2)
	if !platformErrors.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeductExactlyOneWinnerOnSamePriorBlob(t *testing.T) {
	repo, mock := newMockInventoryRepository(t)
	ctx := context.Background()

	priorBlob := `{"wh_003":3}`

	// Two racers read the same blob. The first write lands, the second
	// matches nothing and must surface a retryable conflict.
	mock.ExpectQuery("SELECT sku, product_id, size").
		WithArgs("P0001", "10").
		WillReturnRows(inventoryRows(priorBlob))
	mock.ExpectExec("UPDATE inventory_records").
		WithArgs([]byte(`{"wh_003":1}`), "P0001-10", []byte(priorBlob)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT sku, product_id, size").
		WithArgs("P0001", "10").
		WillReturnRows(inventoryRows(priorBlob))
	mock.ExpectExec("UPDATE inventory_records").
		WithArgs([]byte(`{"wh_003":1}`), "P0001-10", []byte(priorBlob)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	newStock, err := repo.Deduct(ctx, "wh_003", "P0001", "10", 2)
	if err != nil {
		t.Fatalf("winner's deduct failed: %v", err)
	}
	if newStock != 1 {
		t.Errorf("winner's new stock = %d, want 1", newStock)
	}

	if _, err := repo.Deduct(ctx, "wh_003", "P0001", "10", 2); !platformErrors.IsConflict(err) {
		t.Fatalf("loser should get a conflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeductInsufficientIssuesNoUpdate(t *testing.T) {
	repo, mock := newMockInventoryRepository(t)

	mock.ExpectQuery("SELECT sku, product_id, size").
		WithArgs("P0001", "10").
		WillReturnRows(inventoryRows(`{"wh_003":3}`))

	_, err := repo.Deduct(context.Background(), "wh_003", "P0001", "10", 4)
	if !platformErrors.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient-stock error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetBySKUNotFound(t *testing.T) {
	repo, mock := newMockInventoryRepository(t)

	mock.ExpectQuery("SELECT sku, product_id, size").
		WithArgs("P9999", "10").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySKU(context.Background(), "P9999", "10")
	if !platformErrors.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
