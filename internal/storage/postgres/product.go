package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov/wholesale-orders/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, sku, sale_price, vat_percent, is_active, has_volume_discount
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, sku, sale_price, vat_percent, is_active, has_volume_discount
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, sku, sale_price, vat_percent, is_active, has_volume_discount
		FROM products WHERE id = ANY($1)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	db Querier
}

// NewProductRepository returns a ProductRepository over the given querier,
// which may be a pool or an open transaction.
func NewProductRepository(db Querier) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns the full catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", id)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "getting products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.SalePrice, &p.VatPercent,
		&p.IsActive, &p.HasVolumeDiscount,
	)
	return p, err
}
