package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Swiss VAT schedule in force since 2024-01-01.
var vatRates = map[VATCategory]decimal.Decimal{
	VATStandard: decimal.RequireFromString("0.081"),
	VATReduced:  decimal.RequireFromString("0.026"),
	VATSpecial:  decimal.RequireFromString("0.038"),
	VATExempt:   decimal.Zero,
}

// VATRate returns the rate for category as a fraction (0.081 for 8.1 %).
func VATRate(category VATCategory) (decimal.Decimal, error) {
	rate, ok := vatRates[category]
	if !ok {
		return decimal.Zero, newValidationError("vat_category", fmt.Sprintf("unknown VAT category %q", category))
	}
	return rate, nil
}

// ComputeLineTotal returns quantity × unitPrice less the line discount.
func ComputeLineTotal(quantity, unitPrice, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if quantity.Sign() <= 0 {
		return decimal.Zero, newValidationError("quantity", "must be greater than 0")
	}
	if unitPrice.Sign() < 0 {
		return decimal.Zero, newValidationError("unit_price", "must be at least 0")
	}
	if discountPercent.Sign() < 0 || discountPercent.GreaterThan(hundred) {
		return decimal.Zero, newValidationError("discount_percent", "must be between 0 and 100")
	}
	subtotal := quantity.Mul(unitPrice)
	discount := subtotal.Mul(discountPercent).Div(hundred)
	return subtotal.Sub(discount), nil
}

// ComputeVAT returns the tax on amount for category. No rounding is applied.
func ComputeVAT(amount decimal.Decimal, category VATCategory) (decimal.Decimal, error) {
	rate, err := VATRate(category)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// PriceLines validates inputs and turns them into line items with contiguous
// 1-based positions, line totals and per-line VAT.
func PriceLines(inputs []LineItemInput) ([]LineItem, error) {
	lines := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		lineTotal, err := ComputeLineTotal(in.Quantity, in.UnitPrice, in.DiscountPercent)
		if err != nil {
			return nil, prefixFields(err, fmt.Sprintf("items[%d].", i))
		}
		vat, err := ComputeVAT(lineTotal, in.VATCategory)
		if err != nil {
			return nil, prefixFields(err, fmt.Sprintf("items[%d].", i))
		}
		lines = append(lines, LineItem{
			Position:        i + 1,
			Description:     in.Description,
			Quantity:        in.Quantity,
			Unit:            in.Unit,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			VATCategory:     in.VATCategory,
			LineTotal:       lineTotal,
			VATAmount:       vat,
		})
	}
	return lines, nil
}

// ComputeDocumentTotals sums priced lines and applies the document discount.
//
// The document discount is taken after line discounts and reduces the net
// subtotal only: VAT stays the sum of per-line VAT on the undiscounted line
// totals.
func ComputeDocumentTotals(lines []LineItem, documentDiscountPercent decimal.Decimal) (Totals, error) {
	if documentDiscountPercent.Sign() < 0 || documentDiscountPercent.GreaterThan(hundred) {
		return Totals{}, newValidationError("discount_percent", "must be between 0 and 100")
	}
	subtotal := decimal.Zero
	vat := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
		vat = vat.Add(l.VATAmount)
	}
	discount := subtotal.Mul(documentDiscountPercent).Div(hundred)
	return Totals{
		Subtotal:        subtotal,
		DiscountPercent: documentDiscountPercent,
		DiscountAmount:  discount,
		VATAmount:       vat,
		Total:           subtotal.Sub(discount).Add(vat),
	}, nil
}

// ComputeTotals prices inputs and totals them in one step.
func ComputeTotals(inputs []LineItemInput, documentDiscountPercent decimal.Decimal) ([]LineItem, Totals, error) {
	lines, err := PriceLines(inputs)
	if err != nil {
		return nil, Totals{}, err
	}
	totals, err := ComputeDocumentTotals(lines, documentDiscountPercent)
	if err != nil {
		return nil, Totals{}, err
	}
	return lines, totals, nil
}

func prefixFields(err error, prefix string) error {
	if ve, ok := err.(*ValidationError); ok {
		out := &ValidationError{Fields: make([]FieldError, len(ve.Fields))}
		for i, f := range ve.Fields {
			out.Fields[i] = FieldError{Field: prefix + f.Field, Message: f.Message}
		}
		return out
	}
	return err
}

// TotalsInput is a set of lines priced without creating a document.
type TotalsInput struct {
	DiscountPercent decimal.Decimal `validate:"gte=0,lte=100"`
	Items           []LineItemInput `validate:"dive"`
}

// PreviewTotals validates in the way the document builders do and prices it.
func PreviewTotals(in TotalsInput) ([]LineItem, Totals, error) {
	if err := validateInput(in); err != nil {
		return nil, Totals{}, err
	}
	return ComputeTotals(in.Items, in.DiscountPercent)
}
