package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/avolkov/wholesale-orders/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, status, lines, total_amount, shipping_address_id,
		 pallet_type, desired_delivery_date, notes, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getOrderByIDSQL = `SELECT id, user_id, status, lines, total_amount, shipping_address_id,
		 pallet_type, desired_delivery_date, notes, cancel_reason, created_at, updated_at
		FROM orders WHERE id = $1`

	setOrderStatusSQL = `UPDATE orders SET status = $2, cancel_reason = $3, updated_at = now()
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// lines are serialized to JSON for storage in the JSONB column.
type OrderRepository struct {
	db Querier
}

// NewOrderRepository returns an OrderRepository over the given querier.
func NewOrderRepository(db Querier) *OrderRepository {
	return &OrderRepository{db: db}
}

// lineRecord is the stored form of an order line.
type lineRecord struct {
	ProductID    string          `json:"productId"`
	Quantity     int64           `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	VatAmount    decimal.Decimal `json:"vatAmount"`
	PriceWithVat decimal.Decimal `json:"priceWithVat"`
	Discount     decimal.Decimal `json:"discount"`
	BulkDiscount decimal.Decimal `json:"bulkDiscount"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := marshalLines(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshaling order lines")
	}

	_, err = r.db.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, string(o.Status), linesJSON, o.TotalAmount,
		o.ShippingAddressID, o.PalletType, o.DesiredDeliveryDate,
		o.Notes, o.CancelReason, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "creating order %q", o.ID)
	}
	return nil
}

// GetByID returns an order with its lines, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.db.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %q", id)
	}
	return &o, nil
}

// SetStatus updates the order's status and cancellation reason.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status, reason string) error {
	tag, err := r.db.Exec(ctx, setOrderStatusSQL, id, string(status), reason)
	if err != nil {
		return errors.Wrapf(err, "updating order %q status", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func marshalLines(lines []order.Line) ([]byte, error) {
	records := make([]lineRecord, len(lines))
	for i, ln := range lines {
		records[i] = lineRecord(ln)
	}
	return json.Marshal(records)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		status    string
		linesJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &status, &linesJSON, &o.TotalAmount,
		&o.ShippingAddressID, &o.PalletType, &o.DesiredDeliveryDate,
		&o.Notes, &o.CancelReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)

	var records []lineRecord
	if err := json.Unmarshal(linesJSON, &records); err != nil {
		return o, errors.Wrap(err, "unmarshaling order lines")
	}
	o.Lines = make([]order.Line, len(records))
	for i, rec := range records {
		o.Lines[i] = order.Line(rec)
	}
	return o, nil
}
