package stock

import "time"

// Product is the head row of the primary store. TotalQuantity is a cached sum
// over the branch rows, advanced by the same delta as every branch update.
type Product struct {
	ID            int64
	Name          string
	TotalQuantity int64
	CreatedAt     time.Time
}

// BranchQuantity is one per-branch counter of the primary store. Quantities
// may go negative: shortages are surfaced, not hidden.
type BranchQuantity struct {
	ProductID   int64
	BranchID    string
	Quantity    int64
	LastUpdated time.Time
}
