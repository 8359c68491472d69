package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "CHF", true},
		{"CHF", "CHF", true},
		{" eur ", "EUR", true},
		{"EURO", "", false},
		{"FR", "", false},
		{"C1F", "", false},
		{"ÜSD", "", false},
	}
	for _, tc := range cases {
		got, err := normalizeCurrency(tc.in)
		if !tc.ok {
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "input %q", tc.in)
			assert.Equal(t, "currency", ve.Fields[0].Field)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestCreateCompanyRejectsBadCurrencyBeforeInsert(t *testing.T) {
	// No pool: the call must fail validation without touching the database.
	svc := NewCompanyService(nil)

	_, err := svc.CreateCompany(context.Background(), "Muster AG", "EURO")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "currency", ve.Fields[0].Field)

	_, err = svc.CreateCompany(context.Background(), "  ", "CHF")
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Fields[0].Field)
}
