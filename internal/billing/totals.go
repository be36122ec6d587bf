package billing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Totals is the computed money summary of an invoice.
// The zero value is an all-zero summary; BuildTotals is the only way to get anything else.
type Totals struct {
	subtotal  decimal.Decimal
	taxAmount decimal.Decimal
	total     decimal.Decimal
	mode      TaxMode
}

// BuildTotals computes subtotal, tax and total from line items and the invoice tax setting.
func BuildTotals(items []LineItem, tax TaxInfo) Totals {
	subtotal := Subtotal(items)
	mode := ModeFor(items)

	taxAmount := decimal.Zero
	switch mode {
	case PerLine:
		for _, it := range items {
			rate := decimal.Zero
			if it.TaxRate != nil {
				rate = *it.TaxRate
			}
			taxAmount = Add(taxAmount, CalculateTax(it.Amount(), rate))
		}
	default:
		taxAmount = CalculateTax(subtotal, tax.Rate)
	}

	return Totals{
		subtotal:  subtotal,
		taxAmount: taxAmount,
		total:     Add(subtotal, taxAmount),
		mode:      mode,
	}
}

// Subtotal is the sum of the rounded line amounts.
func (t Totals) Subtotal() decimal.Decimal { return t.subtotal }

// TaxAmount is the rounded tax for the applied mode.
func (t Totals) TaxAmount() decimal.Decimal { return t.taxAmount }

// Total is Subtotal plus TaxAmount.
func (t Totals) Total() decimal.Decimal { return t.total }

// Mode is the tax mode the totals were computed with.
func (t Totals) Mode() TaxMode { return t.mode }

// Matches reports whether stored amounts equal these totals.
func (t Totals) Matches(subtotal, taxAmount, total decimal.Decimal) bool {
	return t.subtotal.Equal(subtotal) && t.taxAmount.Equal(taxAmount) && t.total.Equal(total)
}

type totalsJSON struct {
	Subtotal  string `json:"subtotal"`
	TaxAmount string `json:"tax_amount"`
	Total     string `json:"total"`
	TaxMode   string `json:"tax_mode"`
}

// MarshalJSON renders the amounts as fixed two-decimal strings.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(totalsJSON{
		Subtotal:  Format(t.subtotal),
		TaxAmount: Format(t.taxAmount),
		Total:     Format(t.total),
		TaxMode:   t.mode.String(),
	})
}
