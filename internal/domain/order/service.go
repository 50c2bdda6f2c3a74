package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avolkov/wholesale-orders/internal/domain/address"
	"github.com/avolkov/wholesale-orders/internal/domain/inventory"
	"github.com/avolkov/wholesale-orders/internal/domain/pricing"
	"github.com/avolkov/wholesale-orders/internal/domain/product"
)

// TxRepos bundles the repositories scoped to one active transaction. The
// unit of work hands a fresh set to each invocation; reads inside it see a
// single consistent snapshot and writes commit or roll back together.
type TxRepos struct {
	Products  product.Repository
	Lots      inventory.Repository
	Tiers     pricing.TierRepository
	Addresses address.Repository
	Orders    Repository
}

// UnitOfWork runs fn inside one database transaction. When fn returns an
// error the transaction is rolled back and nothing fn did is observable.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, r TxRepos) error) error
}

// Item is one requested order position.
type Item struct {
	ProductID string
	Quantity  int64
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID              string
	Items               []Item
	ShippingAddressID   string
	PalletType          string
	DesiredDeliveryDate time.Time
	Notes               string
}

// Service coordinates order placement and cancellation. Stock allocation
// and pricing are pure functions over data loaded inside the unit of work;
// the service only sequences them and applies the resulting write set.
type Service struct {
	uow UnitOfWork
	now func() time.Time
}

// NewService creates an order Service on top of the given unit of work.
func NewService(uow UnitOfWork) *Service {
	return &Service{uow: uow, now: time.Now}
}

// PlaceOrder reserves stock FIFO across expiry-dated lots, prices every
// line including VAT and bulk discounts, and persists the order and lot
// mutations as one atomic unit. On a serialization conflict the whole
// transaction is retried once before ErrConflict is surfaced.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	var placed *Order
	err := s.runWithRetry(ctx, func(ctx context.Context, r TxRepos) error {
		o, err := s.place(ctx, r, req)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// CancelOrder re-derives a FIFO restock plan for a previously placed
// order, increments lots capped at their headroom, and marks the order
// cancelled, all in one transaction. The order must belong to userID and
// be in a cancellable status.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID, reason string) (*Order, error) {
	var cancelled *Order
	err := s.runWithRetry(ctx, func(ctx context.Context, r TxRepos) error {
		o, err := s.cancel(ctx, r, userID, orderID, reason)
		if err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// runWithRetry executes fn in the unit of work, retrying exactly once when
// the transaction aborts on a serialization conflict.
func (s *Service) runWithRetry(ctx context.Context, fn func(ctx context.Context, r TxRepos) error) error {
	err := s.uow.Run(ctx, fn)
	if errors.Is(err, ErrConflict) {
		err = s.uow.Run(ctx, fn)
	}
	return err
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return &InvalidQuantityError{ProductID: it.ProductID}
		}
		if _, dup := seen[it.ProductID]; dup {
			return &DuplicateProductError{ProductID: it.ProductID}
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

func (s *Service) place(ctx context.Context, r TxRepos, req PlaceOrderRequest) (*Order, error) {
	// Resolve the shipping address: explicit id, else the user's default.
	addr, err := r.Addresses.Find(ctx, req.UserID, req.ShippingAddressID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve shipping address")
	}

	ids := make([]string, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ProductID
	}

	fetched, err := r.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	products := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		products[p.ID] = p
	}
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", id)
		}
		if !p.IsActive {
			return nil, &product.InactiveError{ProductID: id}
		}
	}

	lots, err := r.Lots.FindByProducts(ctx, ids, 1)
	if err != nil {
		return nil, errors.Wrap(err, "load lots")
	}

	tiers, err := r.Tiers.FindActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load discount tiers")
	}

	// Allocate and price every line against the snapshot. Any
	// insufficiency fails the whole order; no partial plans.
	var (
		mutations []inventory.Mutation
		lines     = make([]Line, len(req.Items))
		total     = decimal.Zero
	)
	for i, it := range req.Items {
		plan, err := inventory.Allocate(it.ProductID, it.Quantity, lots)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, plan...)

		q := pricing.Calculate(products[it.ProductID], it.Quantity, tiers)
		lines[i] = Line{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			Price:        q.UnitPrice,
			VatAmount:    q.VatAmount,
			PriceWithVat: q.PriceWithVat,
			Discount:     q.Discount,
			BulkDiscount: q.BulkDiscount,
			TotalPrice:   q.TotalPrice,
		}
		total = total.Add(q.LineTotal(it.Quantity))
	}

	for _, m := range mutations {
		if err := r.Lots.UpdateQuantity(ctx, m.LotID, m.NewQuantity); err != nil {
			return nil, errors.Wrapf(err, "update lot %s", m.LotID)
		}
	}

	now := s.now()
	o := &Order{
		ID:                  uuid.New().String(),
		UserID:              req.UserID,
		Status:              StatusPending,
		Lines:               lines,
		TotalAmount:         total,
		ShippingAddressID:   addr.ID,
		PalletType:          req.PalletType,
		DesiredDeliveryDate: req.DesiredDeliveryDate,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := r.Orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

func (s *Service) cancel(ctx context.Context, r TxRepos, userID, orderID, reason string) (*Order, error) {
	o, err := r.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	// Orders of other users are reported as absent, not forbidden.
	if o.UserID != userID {
		return nil, ErrNotFound
	}
	if !o.Status.Cancellable() {
		return nil, &NotCancellableError{OrderID: orderID, Status: o.Status}
	}

	ids := make([]string, len(o.Lines))
	for i, ln := range o.Lines {
		ids[i] = ln.ProductID
	}
	lots, err := r.Lots.FindByProducts(ctx, ids, 1)
	if err != nil {
		return nil, errors.Wrap(err, "load lots")
	}

	var mutations []inventory.Mutation
	for _, ln := range o.Lines {
		mutations = append(mutations, inventory.Restock(ln.ProductID, ln.Quantity, lots)...)
	}
	for _, m := range mutations {
		if err := r.Lots.UpdateQuantity(ctx, m.LotID, m.NewQuantity); err != nil {
			return nil, errors.Wrapf(err, "update lot %s", m.LotID)
		}
	}

	if err := r.Orders.SetStatus(ctx, orderID, StatusCancelled, reason); err != nil {
		return nil, errors.Wrap(err, "set order status")
	}
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.UpdatedAt = s.now()
	return o, nil
}
