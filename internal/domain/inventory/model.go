package inventory

import "time"

// Record is the legacy per-branch ledger entry, kept alongside the primary
// store for existing consumers. One record per (product, branch), created
// lazily on first adjustment. The two stores are not reconciled with each
// other.
type Record struct {
	ID          int64
	ProductID   int64
	Branch      string
	Quantity    int64
	LastUpdated time.Time
}
