package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov/wholesale-orders/internal/domain/inventory"
)

const (
	// Lots are read earliest-expiration-first and locked for the duration
	// of the surrounding transaction, so concurrent allocations over the
	// same lots serialize rather than both reading the same quantities.
	findLotsSQL = `SELECT id, product_id, quantity, input_quantity, expiration_date
		FROM inventory_lots
		WHERE product_id = ANY($1) AND quantity >= $2
		ORDER BY expiration_date, id
		FOR UPDATE`

	updateLotQuantitySQL = `UPDATE inventory_lots SET quantity = $2 WHERE id = $1`

	createLotSQL = `INSERT INTO inventory_lots (id, product_id, quantity, input_quantity, expiration_date)
		VALUES ($1, $2, $3, $4, $5)`

	availableStockSQL = `SELECT product_id, COALESCE(SUM(quantity), 0)
		FROM inventory_lots
		WHERE product_id = ANY($1)
		GROUP BY product_id`
)

var _ inventory.Repository = (*LotRepository)(nil)

// LotRepository implements inventory.Repository backed by PostgreSQL.
type LotRepository struct {
	db Querier
}

// NewLotRepository returns a LotRepository over the given querier.
func NewLotRepository(db Querier) *LotRepository {
	return &LotRepository{db: db}
}

// FindByProducts returns all lots with at least minQuantity units for the
// given products, sorted FIFO, with their rows locked.
func (r *LotRepository) FindByProducts(ctx context.Context, productIDs []string, minQuantity int64) ([]inventory.Lot, error) {
	rows, err := r.db.Query(ctx, findLotsSQL, productIDs, minQuantity)
	if err != nil {
		return nil, errors.Wrap(err, "finding lots")
	}
	return pgx.CollectRows(rows, scanLot)
}

// UpdateQuantity sets a lot's remaining quantity to an absolute value.
func (r *LotRepository) UpdateQuantity(ctx context.Context, lotID string, quantity int64) error {
	tag, err := r.db.Exec(ctx, updateLotQuantitySQL, lotID, quantity)
	if err != nil {
		return errors.Wrapf(err, "updating lot %q", lotID)
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("lot %q not found", lotID)
	}
	return nil
}

// Create inserts a new lot.
func (r *LotRepository) Create(ctx context.Context, lot inventory.Lot) error {
	_, err := r.db.Exec(ctx, createLotSQL,
		lot.ID, lot.ProductID, lot.Quantity, lot.InputQuantity, lot.ExpirationDate,
	)
	if err != nil {
		return errors.Wrapf(err, "creating lot %q", lot.ID)
	}
	return nil
}

// AvailableByProduct sums remaining lot quantities per product. Used by
// the catalog read path, outside any transaction.
func (r *LotRepository) AvailableByProduct(ctx context.Context, productIDs []string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, availableStockSQL, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "summing lot quantities")
	}
	defer rows.Close()

	stock := make(map[string]int64, len(productIDs))
	for rows.Next() {
		var (
			id  string
			qty int64
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, errors.Wrap(err, "scanning lot sum")
		}
		stock[id] = qty
	}
	return stock, rows.Err()
}

func scanLot(row pgx.CollectableRow) (inventory.Lot, error) {
	var l inventory.Lot
	err := row.Scan(&l.ID, &l.ProductID, &l.Quantity, &l.InputQuantity, &l.ExpirationDate)
	return l, err
}
