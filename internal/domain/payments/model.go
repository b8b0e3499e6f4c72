package payments

import "time"

// Record is one revenue line, created at most once per appointment by the
// completion engine.
type Record struct {
	ID            int64
	AppointmentID int64
	ServiceName   string
	Amount        float64
	Branch        string
	CreatedBy     string
	Source        string
	CreatedAt     time.Time
}
