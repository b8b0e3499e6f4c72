package audit

import "time"

// Entry is one immutable line of the adjustment audit trail. Exactly one entry
// is written per committed adjustment, in the same transaction as the quantity
// update.
type Entry struct {
	ID        int64
	ProductID int64
	BranchID  string
	Delta     int64
	Before    int64
	After     int64
	Reason    string
	Actor     string
	CreatedAt time.Time
}
