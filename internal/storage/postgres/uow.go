package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avolkov/wholesale-orders/internal/domain/order"
)

var _ order.UnitOfWork = (*TxRunner)(nil)

// TxRunner implements order.UnitOfWork: each Run opens one transaction,
// hands fn a set of repositories bound to it, and commits only when fn
// succeeds. Inventory lot reads inside the transaction take row locks
// (see LotRepository), so two concurrent placements over the same lots
// serialize instead of both planning from stale quantities.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner returns a TxRunner over the given pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run executes fn inside a repeatable-read transaction. Serialization
// aborts surface as order.ErrConflict; any error from fn rolls the
// transaction back with no observable writes.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos order.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := order.TxRepos{
		Products:  NewProductRepository(tx),
		Lots:      NewLotRepository(tx),
		Tiers:     NewTierRepository(tx),
		Addresses: NewAddressRepository(tx),
		Orders:    NewOrderRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(errors.Wrap(err, "commit tx"))
	}
	return nil
}
