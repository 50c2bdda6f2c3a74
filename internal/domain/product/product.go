package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InactiveError indicates a product exists but is not available for ordering.
type InactiveError struct {
	ProductID string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("product %s is inactive", e.ProductID)
}

// Product is a catalog item available for wholesale ordering. Inside an
// order transaction it is treated as a read-only snapshot.
type Product struct {
	ID                string
	Name              string
	SKU               string
	SalePrice         decimal.Decimal
	VatPercent        decimal.Decimal
	IsActive          bool
	HasVolumeDiscount bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
