package inventory

import (
	"context"
	"time"
)

// Lot is a received batch of one product with its own expiration date.
// Quantity is the remaining stock; InputQuantity is the amount originally
// received and never changes. The invariant 0 <= Quantity <= InputQuantity
// holds at all times.
type Lot struct {
	ID             string
	ProductID      string
	Quantity       int64
	InputQuantity  int64
	ExpirationDate time.Time
}

// Headroom is the quantity that can still be restocked into the lot
// without exceeding its original input quantity.
func (l Lot) Headroom() int64 {
	return l.InputQuantity - l.Quantity
}

// Repository defines the ledger operations used inside an order
// transaction. FindByProducts returns lots ordered by expiration date
// ascending, so callers can walk them in FIFO order.
type Repository interface {
	// FindByProducts returns all lots with quantity >= minQuantity for the
	// given products, earliest expiration first. Implementations backing an
	// active transaction must lock the returned rows for its duration.
	FindByProducts(ctx context.Context, productIDs []string, minQuantity int64) ([]Lot, error)

	// UpdateQuantity sets a lot's remaining quantity to an absolute value.
	UpdateQuantity(ctx context.Context, lotID string, quantity int64) error

	// Create inserts a new lot. Used by the receiving process, never by
	// order placement.
	Create(ctx context.Context, lot Lot) error
}
