package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/salonops/salon-ledger/internal/domain/booking"
	"github.com/salonops/salon-ledger/internal/domain/catalog"
	"github.com/salonops/salon-ledger/internal/domain/payments"
	"github.com/salonops/salon-ledger/internal/domain/shared"
	"github.com/salonops/salon-ledger/internal/infra/metrics"
)

// StatusChange is one appointment status transition, as reported by whatever
// surface observed it. Actor is an opaque identity forwarded into audit and
// payment rows, never authenticated here.
type StatusChange struct {
	AppointmentID int64
	From          string
	To            string
	Actor         string
}

type Catalog interface {
	FindByName(ctx context.Context, name string) (*catalog.ServiceDefinition, error)
}

type Appointments interface {
	GetByID(ctx context.Context, id int64) (*booking.Appointment, error)
	SetProductsDeducted(ctx context.Context, id int64) error
	SetRevenueRecorded(ctx context.Context, id int64) error
}

// Adjuster is the transactional stock primitive. Both the primary store and
// the legacy per-branch store satisfy it.
type Adjuster interface {
	Adjust(ctx context.Context, productID int64, branch string, delta int64, actor, reason string) (shared.Adjustment, error)
}

type PaymentSink interface {
	Create(ctx context.Context, rec payments.Record) error
}

// Coordinator reacts to an appointment entering "completed": it deducts the
// service's bill of materials from both stock stores and records the revenue,
// each side effect gated by its own persisted flag on the appointment.
//
// The two flags are independent; failure of one side never blocks the other.
// The flag writes are not transactional with the effects they mark, so a
// crash in between leaves a row for reconciliation rather than corrupt state.
type Coordinator struct {
	log     *slog.Logger
	catalog Catalog
	appts   Appointments
	stock   Adjuster
	legacy  Adjuster
	pay     PaymentSink
}

func New(log *slog.Logger, cat Catalog, appts Appointments, stock, legacy Adjuster, pay PaymentSink) *Coordinator {
	return &Coordinator{log: log, catalog: cat, appts: appts, stock: stock, legacy: legacy, pay: pay}
}

// HandleStatusChange runs the completion side effects for ev. It is safe to
// call more than once for the same transition: the persisted flags make the
// repeat a no-op. Only load failures are returned; per-product adjustment
// failures are logged and skipped so one bad item cannot starve its siblings.
func (c *Coordinator) HandleStatusChange(ctx context.Context, ev StatusChange) error {
	from := booking.Normalize(ev.From)
	to := booking.Normalize(ev.To)
	if to != booking.StatusCompleted || from == booking.StatusCompleted {
		return nil
	}

	appt, err := c.appts.GetByID(ctx, ev.AppointmentID)
	if err != nil {
		return fmt.Errorf("load appointment %d: %w", ev.AppointmentID, err)
	}
	if appt == nil {
		return fmt.Errorf("appointment %d: %w", ev.AppointmentID, shared.ErrNotFound)
	}

	svc, err := c.catalog.FindByName(ctx, appt.ServiceName)
	if err != nil {
		return fmt.Errorf("find service %q: %w", appt.ServiceName, err)
	}
	if svc == nil {
		// Nothing to deduct or bill; flags stay untouched.
		c.log.Info("no service definition for completed appointment",
			"appointment_id", appt.ID, "service", appt.ServiceName)
		return nil
	}

	metrics.CompletionsProcessed.Inc()

	if !appt.ProductsDeducted && len(svc.ProductsUsed) > 0 {
		c.deductProducts(ctx, appt, svc, ev.Actor)
	}

	if !appt.RevenueRecorded && svc.Price > 0 {
		c.recordRevenue(ctx, appt, svc, ev.Actor)
	}
	return nil
}

// deductProducts is a best-effort sweep, not a batch: each consumed product is
// deducted from both stores independently, failures are logged and skipped,
// and the flag is set once the loop completes regardless of per-item outcome.
func (c *Coordinator) deductProducts(ctx context.Context, appt *booking.Appointment, svc *catalog.ServiceDefinition, actor string) {
	reason := fmt.Sprintf("appointment %d completed", appt.ID)

	for _, item := range svc.ProductsUsed {
		if item.Qty == 0 {
			continue
		}
		if _, err := c.stock.Adjust(ctx, item.ProductID, appt.Branch, -item.Qty, actor, reason); err != nil {
			metrics.DeductionFailures.Inc()
			c.log.Error("stock deduction failed",
				"appointment_id", appt.ID, "product_id", item.ProductID,
				"branch", appt.Branch, "qty", item.Qty, "err", err)
		}
		if _, err := c.legacy.Adjust(ctx, item.ProductID, appt.Branch, -item.Qty, actor, reason); err != nil {
			metrics.DeductionFailures.Inc()
			c.log.Error("legacy inventory deduction failed",
				"appointment_id", appt.ID, "product_id", item.ProductID,
				"branch", appt.Branch, "qty", item.Qty, "err", err)
		}
	}

	if err := c.appts.SetProductsDeducted(ctx, appt.ID); err != nil {
		// Deductions already applied with the flag unset: a re-run would
		// deduct again. Left to reconciliation via the audit trail.
		c.log.Error("failed to persist products_deducted flag",
			"appointment_id", appt.ID, "err", err)
	}
}

func (c *Coordinator) recordRevenue(ctx context.Context, appt *booking.Appointment, svc *catalog.ServiceDefinition, actor string) {
	rec := payments.Record{
		AppointmentID: appt.ID,
		ServiceName:   svc.Name,
		Amount:        svc.Price,
		Branch:        appt.Branch,
		CreatedBy:     actor,
		Source:        "completion",
	}
	if err := c.pay.Create(ctx, rec); err != nil {
		c.log.Error("failed to create payment record",
			"appointment_id", appt.ID, "amount", svc.Price, "err", err)
		return
	}
	if err := c.appts.SetRevenueRecorded(ctx, appt.ID); err != nil {
		c.log.Error("failed to persist revenue_recorded flag",
			"appointment_id", appt.ID, "err", err)
	}
}
