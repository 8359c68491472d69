package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "AN-2024-0001", FormatDocumentNumber(KindQuote, 2024, 1))
	assert.Equal(t, "AU-2024-0042", FormatDocumentNumber(KindOrder, 2024, 42))
	assert.Equal(t, "RE-2025-0999", FormatDocumentNumber(KindInvoice, 2025, 999))
	assert.Equal(t, "GS-2024-12345", FormatDocumentNumber(KindCreditNote, 2024, 12345))
	assert.False(t, DocumentKind("RECEIPT").Valid())
}

func TestDerivePaymentStatus(t *testing.T) {
	total := dec("1000")

	assert.Equal(t, StatusPartial, DerivePaymentStatus(total, dec("400"), StatusSent))
	assert.Equal(t, StatusPaid, DerivePaymentStatus(total, dec("1000"), StatusPartial))
	assert.Equal(t, StatusPaid, DerivePaymentStatus(total, dec("1200"), StatusSent))
	assert.Equal(t, StatusPartial, DerivePaymentStatus(total, dec("0.01"), StatusOverdue))
	assert.Equal(t, StatusPaid, DerivePaymentStatus(dec("0"), dec("0"), StatusDraft))
}

func TestOpenAmount(t *testing.T) {
	inv := Invoice{Totals: Totals{Total: dec("1000")}, PaidAmount: dec("400")}
	assert.True(t, inv.OpenAmount().Equal(dec("600")))

	inv.PaidAmount = dec("1100")
	assert.True(t, inv.OpenAmount().Equal(dec("-100")))
}

func TestNextReminderLevel(t *testing.T) {
	level, err := NextReminderLevel(nil)
	require.NoError(t, err)
	assert.Equal(t, ReminderFirst, level)

	level, err = NextReminderLevel([]ReminderLevel{ReminderFirst})
	require.NoError(t, err)
	assert.Equal(t, ReminderSecond, level)

	level, err = NextReminderLevel([]ReminderLevel{ReminderFirst, ReminderThird})
	require.NoError(t, err)
	assert.Equal(t, ReminderSecond, level)

	_, err = NextReminderLevel([]ReminderLevel{ReminderThird, ReminderFirst, ReminderSecond})
	var le *LimitExceededError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, MaxReminders, le.Limit)
}

func TestReminderFee(t *testing.T) {
	assert.True(t, ReminderFee(ReminderFirst).IsZero())
	assert.True(t, ReminderFee(ReminderSecond).Equal(dec("20")))
	assert.True(t, ReminderFee(ReminderThird).Equal(dec("40")))
	assert.True(t, ReminderFee("FOURTH").IsZero())
}

func TestValidateInputFieldPaths(t *testing.T) {
	err := validateInput(PaymentInput{Amount: dec("-5")})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	got := map[string]string{}
	for _, f := range ve.Fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "must be greater than 0", got["amount"])
	assert.Equal(t, "is required", got["method"])

	err = validateInput(OrderInput{})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "items", ve.Fields[0].Field)

	assert.NoError(t, validateInput(PaymentInput{Amount: dec("10"), Method: "bank_transfer"}))
}
