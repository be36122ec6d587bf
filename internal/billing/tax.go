package billing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxType labels the kind of tax printed on an invoice.
type TaxType string

const (
	TaxTypeVAT      TaxType = "vat"
	TaxTypeGST      TaxType = "gst"
	TaxTypeSalesTax TaxType = "sales_tax"
)

// NormalizeTaxType lower-cases the label and maps common spellings.
// Unknown labels are kept as given.
func NormalizeTaxType(s string) TaxType {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "vat":
		return TaxTypeVAT
	case "gst":
		return TaxTypeGST
	case "sales_tax", "sales tax", "salestax":
		return TaxTypeSalesTax
	}
	return TaxType(v)
}

// TaxInfo is the invoice-level tax setting.
type TaxInfo struct {
	Rate decimal.Decimal
	Type TaxType
}

// Validate rejects negative rates and rates finer than RateScale. There is no upper bound.
func (t TaxInfo) Validate() error {
	if t.Rate.IsNegative() {
		return invalid("tax_rate", "must not be negative, got %s", t.Rate.String())
	}
	if !FitsScale(t.Rate, RateScale) {
		return invalid("tax_rate", "must have at most %d decimal places, got %s", RateScale, t.Rate.String())
	}
	return nil
}

// CalculateTax returns round(base * rate / 100).
func CalculateTax(base, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	return Round(base.Mul(rate).Div(hundred))
}

// CountryTaxDefault is an advisory tax preset for a country.
type CountryTaxDefault struct {
	Code string          `json:"code"`
	Name string          `json:"name"`
	Type TaxType         `json:"type"`
	Rate decimal.Decimal `json:"rate"`
}

var countryDefaults = map[string]CountryTaxDefault{
	"AU": {Code: "AU", Name: "Australia", Type: TaxTypeGST, Rate: decimal.NewFromInt(10)},
	"CA": {Code: "CA", Name: "Canada", Type: TaxTypeGST, Rate: decimal.NewFromInt(5)},
	"DE": {Code: "DE", Name: "Germany", Type: TaxTypeVAT, Rate: decimal.NewFromInt(19)},
	"ES": {Code: "ES", Name: "Spain", Type: TaxTypeVAT, Rate: decimal.NewFromInt(21)},
	"FR": {Code: "FR", Name: "France", Type: TaxTypeVAT, Rate: decimal.NewFromInt(20)},
	"GB": {Code: "GB", Name: "United Kingdom", Type: TaxTypeVAT, Rate: decimal.NewFromInt(20)},
	"IE": {Code: "IE", Name: "Ireland", Type: TaxTypeVAT, Rate: decimal.NewFromInt(23)},
	"IN": {Code: "IN", Name: "India", Type: TaxTypeGST, Rate: decimal.NewFromInt(18)},
	"IT": {Code: "IT", Name: "Italy", Type: TaxTypeVAT, Rate: decimal.NewFromInt(22)},
	"NL": {Code: "NL", Name: "Netherlands", Type: TaxTypeVAT, Rate: decimal.NewFromInt(21)},
	"NZ": {Code: "NZ", Name: "New Zealand", Type: TaxTypeGST, Rate: decimal.NewFromInt(15)},
	"SG": {Code: "SG", Name: "Singapore", Type: TaxTypeGST, Rate: decimal.NewFromInt(9)},
	"US": {Code: "US", Name: "United States", Type: TaxTypeSalesTax, Rate: decimal.Zero},
	"VN": {Code: "VN", Name: "Vietnam", Type: TaxTypeVAT, Rate: decimal.NewFromInt(10)},
}

// CountryTax looks up the preset for an ISO 3166-1 alpha-2 code.
func CountryTax(code string) (CountryTaxDefault, bool) {
	d, ok := countryDefaults[strings.ToUpper(strings.TrimSpace(code))]
	return d, ok
}

// CountryTaxTable lists every preset ordered by code.
func CountryTaxTable() []CountryTaxDefault {
	out := make([]CountryTaxDefault, 0, len(countryDefaults))
	for _, d := range countryDefaults {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ResolveTaxInfo returns the explicit setting when given, else the country preset,
// else a zero VAT rate.
func ResolveTaxInfo(explicit *TaxInfo, country string) TaxInfo {
	if explicit != nil {
		return TaxInfo{Rate: explicit.Rate, Type: NormalizeTaxType(string(explicit.Type))}
	}
	if d, ok := CountryTax(country); ok {
		return TaxInfo{Rate: d.Rate, Type: d.Type}
	}
	return TaxInfo{Rate: decimal.Zero, Type: TaxTypeVAT}
}
