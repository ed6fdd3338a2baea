package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/inventory"
	"github.com/emberhall/vanir/internal/stock"
)

// StockStore implements inventory.Store using PostgreSQL.
type StockStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that StockStore implements inventory.Store.
var _ inventory.Store = (*StockStore)(nil)

// NewStockStore creates a new PostgreSQL-backed stock store.
func NewStockStore(pool *pgxpool.Pool) *StockStore {
	return &StockStore{pool: pool}
}

// Get returns the stock record for a product.
func (s *StockStore) Get(ctx context.Context, productID string) (*inventory.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT product_id, current_stock, minimum_stock, maximum_stock, status, last_adjusted_at
		FROM stock_records
		WHERE product_id = $1`, productID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("postgres.stock.get", "stock record", productID)
		}
		return nil, domain.Internal(err, "postgres.stock.get", "failed to load stock record")
	}
	return rec, nil
}

// List returns all stock records, ordered by product ID.
func (s *StockStore) List(ctx context.Context) ([]inventory.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, current_stock, minimum_stock, maximum_stock, status, last_adjusted_at
		FROM stock_records
		ORDER BY product_id`)
	if err != nil {
		return nil, domain.Internal(err, "postgres.stock.list", "failed to list stock records")
	}
	defer rows.Close()

	var out []inventory.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, domain.Internal(err, "postgres.stock.list", "failed to scan stock record")
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.stock.list", "failed to read stock records")
	}
	return out, nil
}

// Put inserts or replaces a stock record without recording an adjustment.
func (s *StockStore) Put(ctx context.Context, rec inventory.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stock_records (product_id, current_stock, minimum_stock, maximum_stock, status, last_adjusted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO UPDATE SET
			current_stock = EXCLUDED.current_stock,
			minimum_stock = EXCLUDED.minimum_stock,
			maximum_stock = EXCLUDED.maximum_stock,
			status = EXCLUDED.status,
			last_adjusted_at = EXCLUDED.last_adjusted_at`,
		rec.ProductID, rec.CurrentStock, rec.MinimumStock, rec.MaximumStock,
		string(rec.Status), rec.LastAdjustedAt)
	if err != nil {
		return domain.Internal(err, "postgres.stock.put", "failed to upsert stock record")
	}
	return nil
}

// Save writes the adjusted record and its adjustment audit row in one
// transaction. Either both persist or neither does.
func (s *StockStore) Save(ctx context.Context, rec inventory.Record, req inventory.AdjustmentRequest) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		UPDATE stock_records
		SET current_stock = $2, status = $3, last_adjusted_at = $4
		WHERE product_id = $1`,
		rec.ProductID, rec.CurrentStock, string(rec.Status), rec.LastAdjustedAt)
	if err != nil {
		return fmt.Errorf("failed to update stock record: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_adjustments (id, product_id, delta, reason_code, operator, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.ProductID, req.Delta, req.ReasonCode, req.Operator, rec.LastAdjustedAt)
	if err != nil {
		return fmt.Errorf("failed to record adjustment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Adjustments returns the audit trail for a product, newest first.
func (s *StockStore) Adjustments(ctx context.Context, productID string, limit int) ([]inventory.AdjustmentRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, delta, reason_code, operator
		FROM stock_adjustments
		WHERE product_id = $1
		ORDER BY applied_at DESC
		LIMIT $2`, productID, limit)
	if err != nil {
		return nil, domain.Internal(err, "postgres.stock.adjustments", "failed to list adjustments")
	}
	defer rows.Close()

	var out []inventory.AdjustmentRequest
	for rows.Next() {
		var req inventory.AdjustmentRequest
		if err := rows.Scan(&req.ID, &req.ProductID, &req.Delta, &req.ReasonCode, &req.Operator); err != nil {
			return nil, domain.Internal(err, "postgres.stock.adjustments", "failed to scan adjustment")
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.stock.adjustments", "failed to read adjustments")
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*inventory.Record, error) {
	var rec inventory.Record
	var status string
	if err := row.Scan(&rec.ProductID, &rec.CurrentStock, &rec.MinimumStock,
		&rec.MaximumStock, &status, &rec.LastAdjustedAt); err != nil {
		return nil, err
	}
	rec.Status = stock.Status(status)
	return &rec, nil
}
