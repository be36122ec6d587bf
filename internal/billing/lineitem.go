package billing

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxMode selects how tax is applied to a set of line items.
type TaxMode int

const (
	// InvoiceLevel applies the invoice rate to the subtotal.
	InvoiceLevel TaxMode = iota
	// PerLine taxes each item at its own rate; unrated items are taxed at zero.
	PerLine
)

func (m TaxMode) String() string {
	if m == PerLine {
		return "per_line"
	}
	return "invoice_level"
}

// LineItem is one billable row of an invoice.
type LineItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	// TaxRate is a percentage. Nil means the item has no rate of its own.
	TaxRate *decimal.Decimal
}

// NewLineItem builds a validated line item.
func NewLineItem(description string, quantity int, unitPrice decimal.Decimal, taxRate *decimal.Decimal) (LineItem, error) {
	item := LineItem{
		Description: strings.TrimSpace(description),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,
	}
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// Validate checks the item's fields.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.Description) == "" {
		return invalid("description", "must not be empty")
	}
	if li.Quantity < 1 {
		return invalid("quantity", "must be at least 1, got %d", li.Quantity)
	}
	if li.UnitPrice.IsNegative() {
		return invalid("unit_price", "must not be negative, got %s", li.UnitPrice.String())
	}
	if !FitsScale(li.UnitPrice, Precision) {
		return invalid("unit_price", "must have at most %d decimal places, got %s", Precision, li.UnitPrice.String())
	}
	if li.TaxRate != nil {
		if li.TaxRate.IsNegative() {
			return invalid("tax_rate", "must not be negative, got %s", li.TaxRate.String())
		}
		if !FitsScale(*li.TaxRate, RateScale) {
			return invalid("tax_rate", "must have at most %d decimal places, got %s", RateScale, li.TaxRate.String())
		}
	}
	return nil
}

// Amount is round(quantity * unitPrice).
func (li LineItem) Amount() decimal.Decimal {
	return Multiply(li.UnitPrice, decimal.NewFromInt(int64(li.Quantity)))
}

// HasRate reports whether the item carries its own tax rate.
func (li LineItem) HasRate() bool {
	return li.TaxRate != nil
}

// Subtotal sums the rounded amounts of all items.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = Add(total, it.Amount())
	}
	return total
}

// ModeFor returns PerLine when at least one item carries its own rate.
func ModeFor(items []LineItem) TaxMode {
	for _, it := range items {
		if it.HasRate() {
			return PerLine
		}
	}
	return InvoiceLevel
}

// ValidateItems validates every item and reports failures with their index.
func ValidateItems(items []LineItem) error {
	var errs ValidationErrors
	for i, it := range items {
		err := it.Validate()
		if err == nil {
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		errs = append(errs, invalid(indexed("items", i, ve.Field), "%s", ve.Message))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func indexed(prefix string, i int, field string) string {
	return prefix + "[" + strconv.Itoa(i) + "]." + field
}
