package inventory

import "fmt"

// InsufficientStockError indicates the lots of a product cannot cover the
// requested quantity. No partial plan is produced alongside it.
type InsufficientStockError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// Mutation is a planned absolute quantity change for a single lot.
type Mutation struct {
	LotID       string
	ProductID   string
	NewQuantity int64
}

// Allocate walks the given lots in order, deducting from each until the
// requested quantity is covered, and returns the resulting lot mutations.
// Lots must be pre-sorted earliest expiration first; the planner itself
// never touches storage, it operates on the snapshot fetched inside the
// active transaction.
//
// A lot drained exactly to zero stays in the plan with NewQuantity 0;
// empty lots are kept, not deleted.
func Allocate(productID string, requested int64, lots []Lot) ([]Mutation, error) {
	var available int64
	for _, l := range lots {
		if l.ProductID == productID {
			available += l.Quantity
		}
	}
	if available < requested {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Available: available,
			Requested: requested,
		}
	}

	remaining := requested
	var plan []Mutation
	for _, l := range lots {
		if remaining == 0 {
			break
		}
		if l.ProductID != productID || l.Quantity == 0 {
			continue
		}
		take := min(remaining, l.Quantity)
		plan = append(plan, Mutation{
			LotID:       l.ID,
			ProductID:   productID,
			NewQuantity: l.Quantity - take,
		})
		remaining -= take
	}
	return plan, nil
}

// Restock distributes quantity units back across the product's lots in the
// same FIFO order used for allocation. Restock is a redistribution, not an
// exact reversal: a lot may receive units it never supplied, which keeps
// aggregate stock correct while giving up lot-level provenance.
//
// Each increment is capped at the lot's headroom so that quantity never
// exceeds the original input quantity. Units that fit nowhere are dropped.
func Restock(productID string, quantity int64, lots []Lot) []Mutation {
	remaining := quantity
	var plan []Mutation
	for _, l := range lots {
		if remaining == 0 {
			break
		}
		if l.ProductID != productID {
			continue
		}
		// Headroom is negative when quantity exceeds input_quantity;
		// a restock never shrinks a lot.
		add := min(remaining, l.Headroom())
		if add <= 0 {
			continue
		}
		plan = append(plan, Mutation{
			LotID:       l.ID,
			ProductID:   productID,
			NewQuantity: l.Quantity + add,
		})
		remaining -= add
	}
	return plan
}
