package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-sales/internal/core"
	"erp-sales/internal/lock"
)

type fakeDunning struct {
	core.DunningEngine
	asOf  time.Time
	calls int
}

func (f *fakeDunning) MarkOverdue(_ context.Context, _ core.Actor, asOf time.Time) ([]core.Invoice, error) {
	f.calls++
	f.asOf = asOf
	return []core.Invoice{{ID: 1, Status: core.StatusOverdue}}, nil
}

type busyLocker struct{}

func (busyLocker) WithCompanyLock(context.Context, int, string, func(context.Context) error) error {
	return lock.ErrLocked
}

func (busyLocker) Close() error { return nil }

type fakeInvoices struct {
	core.InvoiceService
	change core.StatusChange
}

func (f *fakeInvoices) SetInvoiceStatus(_ context.Context, _ core.Actor, id int, status core.Status) (*core.Invoice, *core.StatusChange, error) {
	f.change.To = status
	return &core.Invoice{ID: id, Number: "RE-2024-0001", Status: status}, &f.change, nil
}

var actor = core.Actor{CompanyID: 1, UserID: 9}

func fixedNow() time.Time { return time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC) }

func TestSweepOverdueDefaultsToToday(t *testing.T) {
	dunning := &fakeDunning{}
	svc := NewAppService(Services{Dunning: dunning}, nil, zerolog.Nop(), fixedNow)

	res, err := svc.SweepOverdue(context.Background(), actor, "")
	require.NoError(t, err)
	assert.Equal(t, 1, dunning.calls)
	assert.Equal(t, fixedNow(), dunning.asOf)
	assert.Len(t, res.Invoices, 1)
	assert.Equal(t, actor.CompanyID, res.CompanyID)
}

func TestSweepOverdueParsesAsOf(t *testing.T) {
	dunning := &fakeDunning{}
	svc := NewAppService(Services{Dunning: dunning}, lock.Noop(), zerolog.Nop(), fixedNow)

	_, err := svc.SweepOverdue(context.Background(), actor, "2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), dunning.asOf)

	_, err = svc.SweepOverdue(context.Background(), actor, "not-a-date")
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSweepOverdueRefusedWhileLocked(t *testing.T) {
	dunning := &fakeDunning{}
	svc := NewAppService(Services{Dunning: dunning}, busyLocker{}, zerolog.Nop(), fixedNow)

	_, err := svc.SweepOverdue(context.Background(), actor, "")
	assert.ErrorIs(t, err, lock.ErrLocked)
	assert.Zero(t, dunning.calls)
}

func TestSetInvoiceStatusReportsOverride(t *testing.T) {
	invoices := &fakeInvoices{change: core.StatusChange{From: core.StatusPaid, Natural: false}}
	svc := NewAppService(Services{Invoices: invoices}, nil, zerolog.Nop(), fixedNow)

	res, err := svc.SetInvoiceStatus(context.Background(), actor, 5, "sent")
	require.NoError(t, err)
	assert.True(t, res.Override)
	assert.Equal(t, core.StatusPaid, res.From)
	assert.Equal(t, core.StatusSent, res.Invoice.Status)
}

func TestSetInvoiceStatusRejectsUnknownStatus(t *testing.T) {
	svc := NewAppService(Services{Invoices: &fakeInvoices{}}, nil, zerolog.Nop(), fixedNow)

	_, err := svc.SetInvoiceStatus(context.Background(), actor, 5, "CONFIRMED")
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestComputeTotalsExample(t *testing.T) {
	svc := NewAppService(Services{}, nil, zerolog.Nop(), fixedNow)

	res, err := svc.ComputeTotals(context.Background(), ComputeTotalsRequest{
		Items: []LineItemRequest{
			{Description: "A", Quantity: dec("2"), UnitPrice: dec("100"), DiscountPercent: dec("10"), VATCategory: "STANDARD"},
			{Description: "B", Quantity: dec("1"), UnitPrice: dec("50"), VATCategory: "STANDARD"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "230.00", res.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "18.63", res.Totals.VATAmount.StringFixed(2))
	assert.Equal(t, "248.63", res.Totals.Total.StringFixed(2))
}

func TestComputeTotalsValidatesLines(t *testing.T) {
	svc := NewAppService(Services{}, nil, zerolog.Nop(), fixedNow)

	_, err := svc.ComputeTotals(context.Background(), ComputeTotalsRequest{
		Items: []LineItemRequest{{Description: "", Quantity: dec("-1"), UnitPrice: dec("10"), VATCategory: "STANDARD"}},
	})
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]bool{}
	for _, f := range ve.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["items[0].description"])
	assert.True(t, fields["items[0].quantity"])
}
