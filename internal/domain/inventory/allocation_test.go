package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

func lot(id, productID string, qty, input int64, exp time.Time) Lot {
	return Lot{
		ID:             id,
		ProductID:      productID,
		Quantity:       qty,
		InputQuantity:  input,
		ExpirationDate: exp,
	}
}

func TestAllocate_FIFO(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 5, 5, day(1)),
		lot("l2", "p1", 10, 10, day(2)),
	}

	plan, err := Allocate("p1", 7, lots)
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, Mutation{LotID: "l1", ProductID: "p1", NewQuantity: 0}, plan[0])
	assert.Equal(t, Mutation{LotID: "l2", ProductID: "p1", NewQuantity: 8}, plan[1])
}

func TestAllocate_SingleLotPartial(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 5, 5, day(1)),
		lot("l2", "p1", 10, 10, day(2)),
	}

	plan, err := Allocate("p1", 3, lots)
	require.NoError(t, err)

	// The later lot is untouched until the earliest is exhausted.
	require.Len(t, plan, 1)
	assert.Equal(t, Mutation{LotID: "l1", ProductID: "p1", NewQuantity: 2}, plan[0])
}

func TestAllocate_ExactExhaustion(t *testing.T) {
	lots := []Lot{lot("l1", "p1", 5, 5, day(1))}

	plan, err := Allocate("p1", 5, lots)
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, int64(0), plan[0].NewQuantity)
}

func TestAllocate_InsufficientStock(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 5, 5, day(1)),
		lot("l2", "p1", 2, 10, day(2)),
	}

	plan, err := Allocate("p1", 8, lots)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, int64(7), stockErr.Available)
	assert.Equal(t, int64(8), stockErr.Requested)
	assert.Nil(t, plan)
}

func TestAllocate_IgnoresOtherProducts(t *testing.T) {
	lots := []Lot{
		lot("l1", "p2", 100, 100, day(1)),
		lot("l2", "p1", 4, 4, day(2)),
	}

	plan, err := Allocate("p1", 4, lots)
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, "l2", plan[0].LotID)
}

func TestAllocate_SkipsEmptyLots(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 0, 5, day(1)),
		lot("l2", "p1", 6, 6, day(2)),
	}

	plan, err := Allocate("p1", 6, lots)
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, "l2", plan[0].LotID)
}

func TestRestock_FIFOWithHeadroomCap(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 3, 5, day(1)),  // headroom 2
		lot("l2", "p1", 1, 10, day(2)), // headroom 9
	}

	plan := Restock("p1", 7, lots)

	require.Len(t, plan, 2)
	assert.Equal(t, Mutation{LotID: "l1", ProductID: "p1", NewQuantity: 5}, plan[0])
	assert.Equal(t, Mutation{LotID: "l2", ProductID: "p1", NewQuantity: 6}, plan[1])
}

func TestRestock_NeverExceedsInputQuantity(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 4, 5, day(1)),
		lot("l2", "p1", 9, 10, day(2)),
	}

	plan := Restock("p1", 50, lots)

	byLot := make(map[string]int64, len(plan))
	for _, m := range plan {
		byLot[m.LotID] = m.NewQuantity
	}
	for _, l := range lots {
		if newQty, ok := byLot[l.ID]; ok {
			assert.LessOrEqual(t, newQty, l.InputQuantity)
		}
	}
	// Units that fit nowhere are dropped, not forced into a lot.
	assert.Equal(t, int64(5), byLot["l1"])
	assert.Equal(t, int64(10), byLot["l2"])
}

func TestRestock_SkipsFullLots(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 5, 5, day(1)),
		lot("l2", "p1", 2, 10, day(2)),
	}

	plan := Restock("p1", 3, lots)

	require.Len(t, plan, 1)
	assert.Equal(t, Mutation{LotID: "l2", ProductID: "p1", NewQuantity: 5}, plan[0])
}

func TestRestock_SkipsOverfullLots(t *testing.T) {
	lots := []Lot{
		lot("l1", "p1", 7, 5, day(1)), // quantity above input_quantity
		lot("l2", "p1", 1, 10, day(2)),
	}

	plan := Restock("p1", 3, lots)

	// The corrupt lot gets no mutation and its negative headroom must
	// not eat into what the healthy lot receives.
	require.Len(t, plan, 1)
	assert.Equal(t, Mutation{LotID: "l2", ProductID: "p1", NewQuantity: 4}, plan[0])
}

func TestLot_Headroom(t *testing.T) {
	assert.Equal(t, int64(7), lot("l1", "p1", 3, 10, day(1)).Headroom())
	assert.Equal(t, int64(0), lot("l1", "p1", 10, 10, day(1)).Headroom())
}
