package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov/wholesale-orders/internal/domain/pricing"
)

const findActiveTiersSQL = `SELECT id, min_quantity, discount_percentage, is_active
	FROM bulk_discount_tiers
	WHERE is_active
	ORDER BY min_quantity`

var _ pricing.TierRepository = (*TierRepository)(nil)

// TierRepository implements pricing.TierRepository backed by PostgreSQL.
type TierRepository struct {
	db Querier
}

// NewTierRepository returns a TierRepository over the given querier.
func NewTierRepository(db Querier) *TierRepository {
	return &TierRepository{db: db}
}

// FindActive returns the active bulk discount tiers ordered by threshold.
func (r *TierRepository) FindActive(ctx context.Context) ([]pricing.Tier, error) {
	rows, err := r.db.Query(ctx, findActiveTiersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "finding active tiers")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (pricing.Tier, error) {
		var t pricing.Tier
		err := row.Scan(&t.ID, &t.MinQuantity, &t.DiscountPercentage, &t.IsActive)
		return t, err
	})
}
