package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTax(t *testing.T) {
	testCases := []struct {
		name string
		base string
		rate string
		want string
	}{
		{name: "ten_percent", base: "200", rate: "10", want: "20.00"},
		{name: "zero_rate", base: "200", rate: "0", want: "0.00"},
		{name: "fractional_rate_rounds", base: "99.99", rate: "7.5", want: "7.50"},
		{name: "rate_above_hundred", base: "10", rate: "150", want: "15.00"},
		{name: "zero_base", base: "0", rate: "20", want: "0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assertMoney(t, tc.want, CalculateTax(d(tc.base), d(tc.rate)))
		})
	}
}

func TestTaxInfo_Validate(t *testing.T) {
	assert.NoError(t, TaxInfo{Rate: d("0")}.Validate())
	assert.NoError(t, TaxInfo{Rate: d("250")}.Validate())
	assert.Error(t, TaxInfo{Rate: d("-0.01")}.Validate())
	assert.NoError(t, TaxInfo{Rate: d("8.125")}.Validate())
	assert.Error(t, TaxInfo{Rate: d("8.1255")}.Validate())
}

func TestNormalizeTaxType(t *testing.T) {
	assert.Equal(t, TaxTypeVAT, NormalizeTaxType(""))
	assert.Equal(t, TaxTypeGST, NormalizeTaxType("GST"))
	assert.Equal(t, TaxTypeSalesTax, NormalizeTaxType("Sales Tax"))
	assert.Equal(t, TaxType("hst"), NormalizeTaxType("HST"))
}

func TestCountryTax(t *testing.T) {
	de, ok := CountryTax("de")
	require.True(t, ok)
	assert.Equal(t, "Germany", de.Name)
	assertMoney(t, "19.00", de.Rate)

	_, ok = CountryTax("XX")
	assert.False(t, ok)

	table := CountryTaxTable()
	require.NotEmpty(t, table)
	for i := 1; i < len(table); i++ {
		assert.Less(t, table[i-1].Code, table[i].Code)
	}
}

func TestResolveTaxInfo_ExplicitRateWins(t *testing.T) {
	explicit := &TaxInfo{Rate: d("0"), Type: "vat"}

	got := ResolveTaxInfo(explicit, "GB")
	assertMoney(t, "0.00", got.Rate)

	got = ResolveTaxInfo(nil, "GB")
	assertMoney(t, "20.00", got.Rate)
	assert.Equal(t, TaxTypeVAT, got.Type)

	got = ResolveTaxInfo(nil, "")
	assertMoney(t, "0.00", got.Rate)
}
