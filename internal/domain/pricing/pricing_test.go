package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/avolkov/wholesale-orders/internal/domain/product"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testProduct(price, vat string, volumeDiscount bool) product.Product {
	return product.Product{
		ID:                "p1",
		Name:              "Widget Crate",
		SalePrice:         dec(price),
		VatPercent:        dec(vat),
		IsActive:          true,
		HasVolumeDiscount: volumeDiscount,
	}
}

func tier(minQty int64, pct string) Tier {
	return Tier{MinQuantity: minQty, DiscountPercentage: dec(pct), IsActive: true}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculate_WithBulkTier(t *testing.T) {
	p := testProduct("100", "15", true)
	tiers := []Tier{tier(10, "5")}

	q := Calculate(p, 10, tiers)

	assertDecimal(t, "100", q.UnitPrice)
	assertDecimal(t, "15", q.VatAmount)
	assertDecimal(t, "115", q.PriceWithVat)
	assertDecimal(t, "5", q.BulkDiscount)
	assertDecimal(t, "0", q.Discount)
	assertDecimal(t, "110", q.TotalPrice)
	assertDecimal(t, "1100", q.LineTotal(10))
}

func TestCalculate_BelowTierThreshold(t *testing.T) {
	p := testProduct("100", "15", true)
	tiers := []Tier{tier(10, "5")}

	q := Calculate(p, 9, tiers)

	assertDecimal(t, "0", q.BulkDiscount)
	assertDecimal(t, "115", q.TotalPrice)
}

func TestCalculate_HighestMatchingTierWins(t *testing.T) {
	p := testProduct("100", "15", true)
	tiers := []Tier{tier(10, "5"), tier(50, "8"), tier(100, "12")}

	q := Calculate(p, 60, tiers)

	assertDecimal(t, "8", q.BulkDiscount)
	assertDecimal(t, "107", q.TotalPrice)
}

func TestCalculate_InactiveTierIgnored(t *testing.T) {
	p := testProduct("100", "15", true)
	inactive := Tier{MinQuantity: 10, DiscountPercentage: dec("50"), IsActive: false}
	tiers := []Tier{inactive, tier(10, "5")}

	q := Calculate(p, 20, tiers)

	assertDecimal(t, "5", q.BulkDiscount)
}

func TestCalculate_NoVolumeDiscountFlag(t *testing.T) {
	p := testProduct("100", "15", false)
	tiers := []Tier{tier(10, "5")}

	q := Calculate(p, 100, tiers)

	assertDecimal(t, "0", q.BulkDiscount)
	assertDecimal(t, "115", q.TotalPrice)
}

func TestCalculate_NoTiers(t *testing.T) {
	p := testProduct("100", "15", true)

	q := Calculate(p, 1000, nil)

	assertDecimal(t, "0", q.BulkDiscount)
}

func TestCalculate_ZeroVat(t *testing.T) {
	p := testProduct("18.50", "0", false)

	q := Calculate(p, 3, nil)

	assertDecimal(t, "0", q.VatAmount)
	assertDecimal(t, "18.50", q.PriceWithVat)
	assertDecimal(t, "55.50", q.LineTotal(3))
}

func TestCalculate_FullPrecisionInternally(t *testing.T) {
	// 19.99 at 15% VAT = 2.9985 VAT; no rounding happens inside the
	// calculation, rounding belongs to presentation boundaries.
	p := testProduct("19.99", "15", false)

	q := Calculate(p, 1, nil)

	assertDecimal(t, "2.9985", q.VatAmount)
	assertDecimal(t, "22.9885", q.PriceWithVat)
}
