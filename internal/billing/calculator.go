// Package billing holds the invoice computation core: the age calculator,
// the patient code generator and the monetary breakdown rules. Everything in
// here is a pure projection over its inputs; persistence and rendering live
// elsewhere and consume the Breakdown produced here.
package billing

import "github.com/shopspring/decimal"

// TaxRate is the flat ITBIS rate applied to the discounted amount.
var TaxRate = decimal.NewFromFloat(0.05)

// LineInput is one selected service with its quantity.
type LineInput struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Line is a computed invoice line.
type Line struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// Breakdown is the computed monetary result of one invoice: the ordered
// lines plus subtotal, discount, tax and grand total, each rounded to two
// decimal places. Both the preview and the PDF renderer consume the same
// Breakdown and never recompute it.
type Breakdown struct {
	Lines      []Line
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	TaxApplied bool
}

// Calculate turns selected service lines, a discount and a tax flag into a
// Breakdown.
//
// Rules, in order:
//   - line total = unit price x quantity, per line, in input order
//   - subtotal = sum of line totals, accumulated at full precision
//   - pre-tax = subtotal - discount; a discount larger than the subtotal is
//     NOT clamped, the negative amount carries through
//   - tax = 5% of the pre-tax amount when applyTax is set, else zero; tax is
//     always computed on the discounted amount, never the raw subtotal
//   - grand total = pre-tax + tax
//
// Rounding to two decimals happens only on the outputs; intermediate values
// keep full decimal precision so repeated generation never drifts by cents.
func Calculate(lines []LineInput, discount decimal.Decimal, applyTax bool) Breakdown {
	subtotal := decimal.Zero
	computed := make([]Line, 0, len(lines))

	for _, in := range lines {
		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		computed = append(computed, Line{
			Name:      in.Name,
			UnitPrice: in.UnitPrice,
			Quantity:  in.Quantity,
			Total:     lineTotal.Round(2),
		})
	}

	preTax := subtotal.Sub(discount)

	tax := decimal.Zero
	if applyTax {
		tax = preTax.Mul(TaxRate).Round(2)
	}

	return Breakdown{
		Lines:      computed,
		Subtotal:   subtotal.Round(2),
		Discount:   discount.Round(2),
		Tax:        tax,
		Total:      preTax.Add(tax).Round(2),
		TaxApplied: applyTax,
	}
}
