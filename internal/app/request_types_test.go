package app

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-sales/internal/core"
)

func TestParseDate(t *testing.T) {
	d, err := parseDate("issue_date", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("issue_date", "2024-03-15T23:30:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("issue_date", "  ")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("issue_date", "15.03.2024")
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "issue_date", ve.Fields[0].Field)
}

func TestCreateQuoteRequestToInput(t *testing.T) {
	req := CreateQuoteRequest{
		PartyRequest: PartyRequest{CustomerName: "  Muster AG "},
		IssueDate:    "2024-01-10",
		ValidUntil:   "2024-02-10",
		Items: []LineItemRequest{{
			Description: " Beratung ",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(100),
			VATCategory: "standard",
		}},
	}
	in, err := req.toInput()
	require.NoError(t, err)
	assert.Equal(t, "Muster AG", in.CustomerName)
	require.NotNil(t, in.ValidUntil)
	assert.Equal(t, 10, in.ValidUntil.Day())
	require.Len(t, in.Items, 1)
	assert.Equal(t, "Beratung", in.Items[0].Description)
	assert.Equal(t, core.VATStandard, in.Items[0].VATCategory)
}

func TestCreateQuoteRequestRejectsValidUntilBeforeIssue(t *testing.T) {
	_, err := CreateQuoteRequest{IssueDate: "2024-02-10", ValidUntil: "2024-01-10"}.toInput()
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "valid_until", ve.Fields[0].Field)
}

func TestCreateInvoiceRequestOptionalDueDate(t *testing.T) {
	in, err := CreateInvoiceRequest{}.toInput()
	require.NoError(t, err)
	assert.True(t, in.IssueDate.IsZero())
	assert.Nil(t, in.DueDate)

	in, err = CreateInvoiceRequest{IssueDate: "2024-05-01", DueDate: "2024-05-31"}.toInput()
	require.NoError(t, err)
	require.NotNil(t, in.DueDate)
	assert.Equal(t, time.May, in.DueDate.Month())
}

func TestRecordPaymentRequestToInput(t *testing.T) {
	ref := "ESR 123"
	in, err := RecordPaymentRequest{
		Amount:    decimal.RequireFromString("400.00"),
		Method:    " bank_transfer ",
		PaidOn:    "2024-06-01",
		Reference: &ref,
	}.toInput()
	require.NoError(t, err)
	assert.Equal(t, "bank_transfer", in.Method)
	assert.True(t, in.Amount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, &ref, in.Reference)

	_, err = RecordPaymentRequest{PaidOn: "yesterday"}.toInput()
	assert.Error(t, err)
}

func TestParseStatusFilter(t *testing.T) {
	s, err := parseStatusFilter(core.InvoiceLifecycle, "")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = parseStatusFilter(core.InvoiceLifecycle, "overdue")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, core.StatusOverdue, *s)

	_, err = parseStatusFilter(core.QuoteLifecycle, "PAID")
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
