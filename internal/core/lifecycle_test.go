package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteLifecycle(t *testing.T) {
	cases := []struct {
		from  Status
		event Event
		to    Status
		ok    bool
	}{
		{StatusDraft, EventSend, StatusSent, true},
		{StatusSent, EventConfirm, StatusConfirmed, true},
		{StatusDraft, EventCancel, StatusCancelled, true},
		{StatusSent, EventCancel, StatusCancelled, true},
		{StatusDraft, EventConfirm, "", false},
		{StatusConfirmed, EventCancel, "", false},
		{StatusCancelled, EventSend, "", false},
		{StatusConfirmed, EventSend, "", false},
	}
	for _, tc := range cases {
		to, err := QuoteLifecycle.Next(1, tc.from, tc.event)
		if !tc.ok {
			var se *InvalidStateError
			require.True(t, errors.As(err, &se), "%s --%s-->", tc.from, tc.event)
			assert.Equal(t, "quote", se.Entity)
			assert.Equal(t, string(tc.from), se.Status)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.to, to)
	}
}

func TestOrderLifecycle(t *testing.T) {
	assert.True(t, OrderLifecycle.Can(StatusDraft, EventConfirm))
	assert.True(t, OrderLifecycle.Can(StatusConfirmed, EventCancel))
	assert.False(t, OrderLifecycle.Can(StatusCancelled, EventConfirm))
	assert.False(t, OrderLifecycle.Can(StatusConfirmed, EventSend))
	assert.False(t, OrderLifecycle.Known(StatusPaid))
}

func TestInvoiceLifecycle(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusSent, StatusPartial, StatusOverdue} {
		assert.True(t, InvoiceLifecycle.Can(s, EventRemind), "remind from %s", s)
		assert.True(t, InvoiceLifecycle.Can(s, EventPay), "pay from %s", s)
	}
	events := []Event{EventSend, EventConfirm, EventCancel, EventPayPartial, EventPay, EventRemind, EventLapse}
	for _, s := range []Status{StatusPaid, StatusCancelled} {
		for _, ev := range events {
			assert.False(t, InvoiceLifecycle.Can(s, ev), "%s from %s", ev, s)
		}
	}

	assert.True(t, InvoiceLifecycle.Can(StatusSent, EventLapse))
	assert.True(t, InvoiceLifecycle.Can(StatusPartial, EventLapse))
	assert.False(t, InvoiceLifecycle.Can(StatusDraft, EventLapse))

	ev, ok := InvoiceLifecycle.EventTo(StatusDraft, StatusSent)
	assert.True(t, ok)
	assert.Equal(t, EventSend, ev)
	_, ok = InvoiceLifecycle.EventTo(StatusPaid, StatusDraft)
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	s, err := InvoiceLifecycle.ParseStatus("OVERDUE")
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, s)

	_, err = QuoteLifecycle.ParseStatus("PAID")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "status", ve.Fields[0].Field)
}
