package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonops/salon-ledger/internal/domain/booking"
	"github.com/salonops/salon-ledger/internal/domain/catalog"
	"github.com/salonops/salon-ledger/internal/domain/payments"
	"github.com/salonops/salon-ledger/internal/domain/shared"
)

type fakeCatalog struct {
	services map[string]*catalog.ServiceDefinition
}

func (f *fakeCatalog) FindByName(_ context.Context, name string) (*catalog.ServiceDefinition, error) {
	return f.services[name], nil
}

type fakeAppointments struct {
	mu           sync.Mutex
	appts        map[int64]*booking.Appointment
	deductedErr  error
	deductedSets int
	revenueSets  int
}

func (f *fakeAppointments) GetByID(_ context.Context, id int64) (*booking.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointments) SetProductsDeducted(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deductedErr != nil {
		return f.deductedErr
	}
	f.appts[id].ProductsDeducted = true
	f.deductedSets++
	return nil
}

func (f *fakeAppointments) SetRevenueRecorded(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appts[id].RevenueRecorded = true
	f.revenueSets++
	return nil
}

type adjustCall struct {
	ProductID int64
	Branch    string
	Delta     int64
	Actor     string
}

type fakeAdjuster struct {
	mu    sync.Mutex
	calls []adjustCall
	qty   map[string]int64
	fail  map[int64]error
}

func newFakeAdjuster() *fakeAdjuster {
	return &fakeAdjuster{qty: make(map[string]int64), fail: make(map[int64]error)}
}

func (f *fakeAdjuster) Adjust(_ context.Context, productID int64, branch string, delta int64, actor, _ string) (shared.Adjustment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[productID]; err != nil {
		return shared.Adjustment{}, err
	}
	key := fmt.Sprintf("%d/%s", productID, branch)
	before := f.qty[key]
	f.qty[key] = before + delta
	f.calls = append(f.calls, adjustCall{ProductID: productID, Branch: branch, Delta: delta, Actor: actor})
	return shared.Adjustment{Before: before, After: before + delta}, nil
}

type fakePayments struct {
	mu      sync.Mutex
	records []payments.Record
	fail    error
}

func (f *fakePayments) Create(_ context.Context, rec payments.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.records = append(f.records, rec)
	return nil
}

type fixture struct {
	coord  *Coordinator
	cat    *fakeCatalog
	appts  *fakeAppointments
	stock  *fakeAdjuster
	legacy *fakeAdjuster
	pay    *fakePayments
}

func newFixture() *fixture {
	cat := &fakeCatalog{services: map[string]*catalog.ServiceDefinition{
		"Cut & Color": {
			ID:    1,
			Name:  "Cut & Color",
			Price: 75,
			ProductsUsed: []catalog.BOMItem{
				{ProductID: 10, Qty: 2},
				{ProductID: 11, Qty: 1},
			},
		},
		"Consultation": {ID: 2, Name: "Consultation", Price: 0},
	}}
	appts := &fakeAppointments{appts: map[int64]*booking.Appointment{
		1: {ID: 1, ServiceName: "Cut & Color", Branch: "soho", Status: booking.StatusBooked},
	}}
	st := newFakeAdjuster()
	lg := newFakeAdjuster()
	pay := &fakePayments{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		coord:  New(log, cat, appts, st, lg, pay),
		cat:    cat,
		appts:  appts,
		stock:  st,
		legacy: lg,
		pay:    pay,
	}
}

func TestCompletion_HappyPath(t *testing.T) {
	fx := newFixture()

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "completed", Actor: "uid-7",
	})
	require.NoError(t, err)

	require.Len(t, fx.stock.calls, 2)
	assert.Equal(t, adjustCall{ProductID: 10, Branch: "soho", Delta: -2, Actor: "uid-7"}, fx.stock.calls[0])
	assert.Equal(t, adjustCall{ProductID: 11, Branch: "soho", Delta: -1, Actor: "uid-7"}, fx.stock.calls[1])
	assert.Len(t, fx.legacy.calls, 2, "legacy store is deducted alongside the primary")

	require.Len(t, fx.pay.records, 1)
	assert.Equal(t, int64(1), fx.pay.records[0].AppointmentID)
	assert.Equal(t, 75.0, fx.pay.records[0].Amount)
	assert.Equal(t, "soho", fx.pay.records[0].Branch)
	assert.Equal(t, "uid-7", fx.pay.records[0].CreatedBy)
	assert.Equal(t, "completion", fx.pay.records[0].Source)

	a, _ := fx.appts.GetByID(context.Background(), 1)
	assert.True(t, a.ProductsDeducted)
	assert.True(t, a.RevenueRecorded)
}

func TestCompletion_RerunIsNoop(t *testing.T) {
	fx := newFixture()
	ev := StatusChange{AppointmentID: 1, From: "booked", To: "completed", Actor: "uid-7"}

	require.NoError(t, fx.coord.HandleStatusChange(context.Background(), ev))
	require.NoError(t, fx.coord.HandleStatusChange(context.Background(), ev))

	assert.Len(t, fx.stock.calls, 2, "no further deductions on re-run")
	assert.Len(t, fx.legacy.calls, 2)
	assert.Len(t, fx.pay.records, 1, "no further payment records on re-run")
	assert.Equal(t, 1, fx.appts.deductedSets)
	assert.Equal(t, 1, fx.appts.revenueSets)
}

func TestCompletion_NonCompletionTransition(t *testing.T) {
	fx := newFixture()

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "confirmed",
	})
	require.NoError(t, err)
	assert.Empty(t, fx.stock.calls)
	assert.Empty(t, fx.pay.records)
}

func TestCompletion_AlreadyCompleted(t *testing.T) {
	fx := newFixture()

	// "done" is the legacy alias for completed, so done -> completed is not a
	// fresh transition.
	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "done", To: "completed",
	})
	require.NoError(t, err)
	assert.Empty(t, fx.stock.calls)
	assert.Empty(t, fx.pay.records)
}

func TestCompletion_DoneAliasTriggers(t *testing.T) {
	fx := newFixture()

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "done",
	})
	require.NoError(t, err)
	assert.Len(t, fx.stock.calls, 2)
	assert.Len(t, fx.pay.records, 1)
}

func TestCompletion_MissingService(t *testing.T) {
	fx := newFixture()
	fx.appts.appts[1].ServiceName = "No Such Service"

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "completed",
	})
	require.NoError(t, err, "missing service is a no-op, not an error")

	a, _ := fx.appts.GetByID(context.Background(), 1)
	assert.Empty(t, fx.stock.calls)
	assert.Empty(t, fx.pay.records)
	assert.False(t, a.ProductsDeducted)
	assert.False(t, a.RevenueRecorded)
}

func TestCompletion_MissingAppointment(t *testing.T) {
	fx := newFixture()

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 99, From: "booked", To: "completed",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCompletion_PerItemFailureContinues(t *testing.T) {
	fx := newFixture()
	fx.stock.fail[10] = errors.New("boom")

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "completed",
	})
	require.NoError(t, err)

	require.Len(t, fx.stock.calls, 1, "sibling product still deducted")
	assert.Equal(t, int64(11), fx.stock.calls[0].ProductID)
	assert.Len(t, fx.legacy.calls, 2, "legacy store unaffected by primary failure")

	a, _ := fx.appts.GetByID(context.Background(), 1)
	assert.True(t, a.ProductsDeducted, "flag is set once the sweep completes, not per outcome")
}

func TestCompletion_PaymentFailureLeavesFlagUnset(t *testing.T) {
	fx := newFixture()
	fx.pay.fail = errors.New("sink down")

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "completed",
	})
	require.NoError(t, err)

	a, _ := fx.appts.GetByID(context.Background(), 1)
	assert.False(t, a.RevenueRecorded)
	assert.True(t, a.ProductsDeducted, "deduction is independent of the payment sink")
}

func TestCompletion_FlagWriteFailureDoesNotBlockRevenue(t *testing.T) {
	fx := newFixture()
	fx.appts.deductedErr = errors.New("flag write failed")

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "completed",
	})
	require.NoError(t, err)

	assert.Len(t, fx.stock.calls, 2, "deductions applied despite flag failure")
	assert.Len(t, fx.pay.records, 1, "revenue side proceeds independently")
}

func TestCompletion_ZeroPriceSkipsPayment(t *testing.T) {
	fx := newFixture()
	fx.appts.appts[1].ServiceName = "Consultation"

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "confirmed", To: "completed",
	})
	require.NoError(t, err)

	a, _ := fx.appts.GetByID(context.Background(), 1)
	assert.Empty(t, fx.pay.records)
	assert.False(t, a.RevenueRecorded)
	assert.False(t, a.ProductsDeducted, "no BOM, so the deduction flag stays down too")
}

func TestCompletion_ZeroQtyItemSkipped(t *testing.T) {
	fx := newFixture()
	fx.cat.services["Cut & Color"].ProductsUsed = []catalog.BOMItem{
		{ProductID: 10, Qty: 0},
		{ProductID: 11, Qty: 3},
	}

	err := fx.coord.HandleStatusChange(context.Background(), StatusChange{
		AppointmentID: 1, From: "booked", To: "completed",
	})
	require.NoError(t, err)

	require.Len(t, fx.stock.calls, 1)
	assert.Equal(t, int64(11), fx.stock.calls[0].ProductID)
	assert.Equal(t, int64(-3), fx.stock.calls[0].Delta)
}
