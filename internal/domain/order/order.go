package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// transitions is the allowed state machine:
// PENDING -> CONFIRMED -> SHIPPED -> DELIVERED, with CANCELLED reachable
// only from SHIPPED or DELIVERED.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed},
	StatusConfirmed: {StatusShipped},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusCancelled},
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may be cancelled.
// Cancellation is deliberately permitted only after shipment; see
// CanTransitionTo for the full machine.
func (s Status) Cancellable() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// Sentinel errors for order lookup and validation.
var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyItems = errors.New("items required")
	// ErrConflict signals the transaction lost a serialization conflict
	// against a concurrent order. Storage maps driver errors onto it.
	ErrConflict = errors.New("transaction conflict")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// DuplicateProductError indicates a product appears in more than one line.
type DuplicateProductError struct {
	ProductID string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product %s appears in more than one line", e.ProductID)
}

// NotCancellableError indicates the order's current status does not permit
// cancellation.
type NotCancellableError struct {
	OrderID string
	Status  Status
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("order %s in status %s cannot be cancelled", e.OrderID, e.Status)
}

// Line is a single priced position of an order. Price is the unit price
// ex-VAT; TotalPrice is the final unit price after VAT and discounts.
type Line struct {
	ProductID    string
	Quantity     int64
	Price        decimal.Decimal
	VatAmount    decimal.Decimal
	PriceWithVat decimal.Decimal
	Discount     decimal.Decimal
	BulkDiscount decimal.Decimal
	TotalPrice   decimal.Decimal
}

// Order is a placed wholesale order. TotalAmount is the sum of line
// TotalPrice times quantity.
type Order struct {
	ID                  string
	UserID              string
	Status              Status
	Lines               []Line
	TotalAmount         decimal.Decimal
	ShippingAddressID   string
	PalletType          string
	DesiredDeliveryDate time.Time
	Notes               string
	CancelReason        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	SetStatus(ctx context.Context, id string, status Status, reason string) error
}
