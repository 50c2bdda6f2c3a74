package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/avolkov/wholesale-orders/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// Tier is a quantity threshold above which a percentage discount applies
// to the unit price. Tiers are evaluated per order line; at most one tier
// applies.
type Tier struct {
	ID                 string
	MinQuantity        int64
	DiscountPercentage decimal.Decimal
	IsActive           bool
}

// TierRepository provides lookup of the bulk discount configuration.
type TierRepository interface {
	FindActive(ctx context.Context) ([]Tier, error)
}

// Quote is the computed pricing of one order line. All values are per unit
// except where noted; arithmetic is carried at full precision and rounded
// only at presentation boundaries.
type Quote struct {
	UnitPrice    decimal.Decimal
	VatAmount    decimal.Decimal
	PriceWithVat decimal.Decimal
	// Discount is reserved for future per-item discounts and is always
	// present in the output, currently zero.
	Discount     decimal.Decimal
	BulkDiscount decimal.Decimal
	// TotalPrice is the final unit price after VAT and discounts.
	TotalPrice decimal.Decimal
}

// LineTotal is the quote's contribution to the order total.
func (q Quote) LineTotal(quantity int64) decimal.Decimal {
	return q.TotalPrice.Mul(decimal.NewFromInt(quantity))
}

// Calculate prices one order line from a product snapshot, the requested
// quantity, and the active bulk discount tiers. It is deterministic for a
// given snapshot and performs no I/O.
func Calculate(p product.Product, quantity int64, tiers []Tier) Quote {
	unit := p.SalePrice
	vat := unit.Mul(p.VatPercent).Div(hundred)
	withVat := unit.Add(vat)

	bulk := decimal.Zero
	if p.HasVolumeDiscount {
		if tier, ok := matchTier(quantity, tiers); ok {
			bulk = unit.Mul(tier.DiscountPercentage).Div(hundred)
		}
	}

	discount := decimal.Zero

	return Quote{
		UnitPrice:    unit,
		VatAmount:    vat,
		PriceWithVat: withVat,
		Discount:     discount,
		BulkDiscount: bulk,
		TotalPrice:   withVat.Sub(bulk).Sub(discount),
	}
}

// matchTier picks the active tier with the greatest MinQuantity not
// exceeding the requested quantity.
func matchTier(quantity int64, tiers []Tier) (Tier, bool) {
	var (
		best  Tier
		found bool
	)
	for _, t := range tiers {
		if !t.IsActive || t.MinQuantity > quantity {
			continue
		}
		if !found || t.MinQuantity >= best.MinQuantity {
			best = t
			found = true
		}
	}
	return best, found
}
