package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov/wholesale-orders/internal/domain/address"
)

const (
	getAddressByIDSQL = `SELECT id, user_id, label, street, city, post_code, is_default
		FROM shipping_addresses WHERE id = $1 AND user_id = $2`

	getDefaultAddressSQL = `SELECT id, user_id, label, street, city, post_code, is_default
		FROM shipping_addresses WHERE user_id = $1 AND is_default
		ORDER BY id LIMIT 1`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	db Querier
}

// NewAddressRepository returns an AddressRepository over the given querier.
func NewAddressRepository(db Querier) *AddressRepository {
	return &AddressRepository{db: db}
}

// Find returns the user's address with the given id, or the user's default
// address when addressID is empty. Missing addresses map to
// address.ErrNotFound.
func (r *AddressRepository) Find(ctx context.Context, userID, addressID string) (*address.Address, error) {
	var rows pgx.Rows
	var err error
	if addressID != "" {
		rows, err = r.db.Query(ctx, getAddressByIDSQL, addressID, userID)
	} else {
		rows, err = r.db.Query(ctx, getDefaultAddressSQL, userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding shipping address")
	}

	a, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (address.Address, error) {
		var a address.Address
		err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.City, &a.PostCode, &a.IsDefault)
		return a, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrap(err, "finding shipping address")
	}
	return &a, nil
}
