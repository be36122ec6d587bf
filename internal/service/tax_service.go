package service

import (
	"strings"

	"invoicehub/internal/billing"
)

// TaxService exposes the advisory per-country tax presets.
type TaxService interface {
	CountryDefaults() []billing.CountryTaxDefault
	CountryDefault(code string) (billing.CountryTaxDefault, error)
}

type taxService struct{}

func NewTaxService() TaxService {
	return &taxService{}
}

func (s *taxService) CountryDefaults() []billing.CountryTaxDefault {
	return billing.CountryTaxTable()
}

func (s *taxService) CountryDefault(code string) (billing.CountryTaxDefault, error) {
	if len(strings.TrimSpace(code)) != 2 {
		return billing.CountryTaxDefault{}, &billing.ValidationError{Field: "country", Message: "must be a two-letter country code"}
	}
	d, ok := billing.CountryTax(code)
	if !ok {
		return billing.CountryTaxDefault{}, ErrNotFound
	}
	return d, nil
}
