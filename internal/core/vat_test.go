package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(qty, price string, cat VATCategory) LineItemInput {
	return LineItemInput{Description: "item", Quantity: dec(qty), UnitPrice: dec(price), VATCategory: cat}
}

func TestVATRates(t *testing.T) {
	cases := []struct {
		cat  VATCategory
		want string
	}{
		{VATStandard, "8.1"},
		{VATReduced, "2.6"},
		{VATSpecial, "3.8"},
		{VATExempt, "0"},
	}
	for _, tc := range cases {
		vat, err := ComputeVAT(dec("100"), tc.cat)
		require.NoError(t, err)
		assert.True(t, vat.Equal(dec(tc.want)), "%s: got %s", tc.cat, vat)
	}

	_, err := VATRate("LUXURY")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "vat_category", ve.Fields[0].Field)
}

func TestComputeLineTotal(t *testing.T) {
	total, err := ComputeLineTotal(dec("3"), dec("10"), dec("10"))
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("27")))

	total, err = ComputeLineTotal(dec("1.5"), dec("0"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = ComputeLineTotal(decimal.Zero, dec("10"), decimal.Zero)
	assert.Error(t, err)
	_, err = ComputeLineTotal(dec("1"), dec("-1"), decimal.Zero)
	assert.Error(t, err)
	_, err = ComputeLineTotal(dec("1"), dec("1"), dec("100.5"))
	assert.Error(t, err)
}

func TestComputeVATIsLinear(t *testing.T) {
	a, b := dec("123.45"), dec("67.89")
	for _, cat := range []VATCategory{VATStandard, VATReduced, VATSpecial, VATExempt} {
		sum, err := ComputeVAT(a.Add(b), cat)
		require.NoError(t, err)
		va, _ := ComputeVAT(a, cat)
		vb, _ := ComputeVAT(b, cat)
		assert.True(t, sum.Equal(va.Add(vb)), "category %s", cat)
	}
}

func TestComputeDocumentTotalsIsLinear(t *testing.T) {
	base := []LineItemInput{
		line("2", "115", VATStandard),
		line("10", "5.35", VATReduced),
		line("3", "41.20", VATSpecial),
		line("1", "20", VATExempt),
	}
	base[1].DiscountPercent = dec("15")

	scaled := func(k decimal.Decimal) []LineItemInput {
		out := make([]LineItemInput, len(base))
		for i, in := range base {
			in.UnitPrice = in.UnitPrice.Mul(k)
			out[i] = in
		}
		return out
	}

	for _, discount := range []string{"0", "10"} {
		_, want, err := ComputeTotals(base, dec(discount))
		require.NoError(t, err)

		for _, k := range []string{"3", "0.5"} {
			lines, got, err := ComputeTotals(scaled(dec(k)), dec(discount))
			require.NoError(t, err)

			assert.True(t, got.Subtotal.Equal(want.Subtotal.Mul(dec(k))), "discount %s k %s: subtotal %s", discount, k, got.Subtotal)
			assert.True(t, got.Total.Equal(want.Total.Mul(dec(k))), "discount %s k %s: total %s", discount, k, got.Total)

			vat := decimal.Zero
			for _, l := range lines {
				rate, err := VATRate(l.VATCategory)
				require.NoError(t, err)
				vat = vat.Add(l.LineTotal.Mul(rate))
			}
			assert.True(t, got.VATAmount.Equal(vat), "discount %s k %s: vat %s, want %s", discount, k, got.VATAmount, vat)
		}
	}
}

func TestComputeTotalsStandardExample(t *testing.T) {
	lines, totals, err := ComputeTotals([]LineItemInput{line("2", "115", VATStandard)}, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, 1, lines[0].Position)
	assert.True(t, lines[0].LineTotal.Equal(dec("230")))
	assert.True(t, totals.Subtotal.Equal(dec("230")))
	assert.True(t, totals.VATAmount.Equal(dec("18.63")))
	assert.True(t, totals.Total.Equal(dec("248.63")))
	assert.Equal(t, "248.63", totals.Rounded().Total.StringFixed(2))
}

func TestComputeTotalsMixedCategoriesAndDocumentDiscount(t *testing.T) {
	inputs := []LineItemInput{
		line("2", "115", VATStandard),
		line("10", "5", VATReduced),
		line("1", "20", VATExempt),
	}
	lines, totals, err := ComputeTotals(inputs, dec("10"))
	require.NoError(t, err)

	for i, l := range lines {
		assert.Equal(t, i+1, l.Position)
	}
	// 230 + 50 + 20
	assert.True(t, totals.Subtotal.Equal(dec("300")))
	assert.True(t, totals.DiscountAmount.Equal(dec("30")))
	// 18.63 + 1.30 + 0; the document discount does not reduce VAT
	assert.True(t, totals.VATAmount.Equal(dec("19.93")))
	assert.True(t, totals.Total.Equal(dec("289.93")))
}

func TestComputeTotalsKeepsFractionalCents(t *testing.T) {
	_, totals, err := ComputeTotals([]LineItemInput{line("1", "0.10", VATStandard)}, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, totals.VATAmount.Equal(dec("0.0081")))
	assert.Equal(t, "0.01", totals.Rounded().VATAmount.StringFixed(2))
}

func TestComputeTotalsEmpty(t *testing.T) {
	lines, totals, err := ComputeTotals(nil, decimal.Zero)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.True(t, totals.Total.IsZero())
}

func TestComputeTotalsPrefixesFieldPaths(t *testing.T) {
	_, _, err := ComputeTotals([]LineItemInput{
		line("1", "10", VATStandard),
		line("0", "10", VATStandard),
	}, decimal.Zero)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "items[1].quantity", ve.Fields[0].Field)
}

func TestPreviewTotalsValidatesLikeBuilders(t *testing.T) {
	_, _, err := PreviewTotals(TotalsInput{
		DiscountPercent: dec("120"),
		Items:           []LineItemInput{{Quantity: dec("1"), UnitPrice: dec("1"), VATCategory: VATStandard}},
	})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]bool{}
	for _, f := range ve.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["discount_percent"])
	assert.True(t, fields["items[0].description"])
}
