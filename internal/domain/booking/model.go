package booking

import "time"

type Status string

const (
	StatusBooked          Status = "booked"
	StatusConfirmed       Status = "confirmed"
	StatusCompleted       Status = "completed"
	StatusCancelRequested Status = "cancel_requested"
	StatusCancelled       Status = "cancelled"

	// legacyDone is an alias still present in old rows and old clients.
	legacyDone = "done"
)

// Normalize maps a raw status string onto the canonical enum. The legacy
// "done" value reads as completed.
func Normalize(raw string) Status {
	if raw == legacyDone {
		return StatusCompleted
	}
	return Status(raw)
}

// Known reports whether raw is a canonical status or a known alias.
func Known(raw string) bool {
	switch Normalize(raw) {
	case StatusBooked, StatusConfirmed, StatusCompleted, StatusCancelRequested, StatusCancelled:
		return true
	}
	return false
}

// Appointment is owned by the booking side; the completion engine reads the
// service/branch fields and writes status plus the two idempotency flags.
type Appointment struct {
	ID               int64
	ClientName       string
	ServiceName      string
	Branch           string
	Status           Status
	ProductsDeducted bool
	RevenueRecorded  bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
