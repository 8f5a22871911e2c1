// Package money implements the monetary calculations shared by all
// financial documents: VAT, rounding, retention and margin math.
//
// All functions are pure. Amounts are decimal values, never floats, and
// results with a monetary meaning are rounded to 2 decimal places with
// half-up rounding as required for statutory accounting documents.
package money

import (
	"github.com/shopspring/decimal"
)

// RetentionMaxPercent is the legal cap for the retenue de garantie.
var RetentionMaxPercent = decimal.NewFromInt(5)

// legalVATRates is the closed set of French VAT rates.
var legalVATRates = []decimal.Decimal{
	decimal.NewFromInt(0),
	decimal.RequireFromString("2.1"),
	decimal.RequireFromString("5.5"),
	decimal.NewFromInt(10),
	decimal.NewFromInt(20),
}

var (
	oneHundred = decimal.NewFromInt(100)
	pointFive  = decimal.New(5, -1)
)

// LegalVATRates returns the closed set of accepted VAT rates.
func LegalVATRates() []decimal.Decimal {
	rates := make([]decimal.Decimal, len(legalVATRates))
	copy(rates, legalVATRates)
	return rates
}

// IsLegalVATRate reports whether rate is in the closed set of accepted
// VAT rates.
func IsLegalVATRate(rate decimal.Decimal) bool {
	for _, legal := range legalVATRates {
		if rate.Equal(legal) {
			return true
		}
	}

	return false
}

// RoundHalfUp rounds to 2 decimal places, with ties rounded up.
//
// decimal.Round rounds ties away from zero, which differs from half-up
// for negative amounts. Negative amounts do occur here (regressing
// progress statements), so the rounding is spelled out.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(pointFive).Floor().Shift(-2)
}

// VATAmount returns the VAT for a given net amount and rate in percent.
func VATAmount(ht decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(ht.Mul(rate).Div(oneHundred))
}

// TTC returns the gross amount for a given net amount and VAT rate.
func TTC(ht decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return ht.Add(VATAmount(ht, rate))
}

// Retention returns the retenue de garantie withheld from a gross amount.
func Retention(ttc decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(ttc.Mul(percent).Div(oneHundred))
}

// Breakdown is the full derivation of a billable amount.
type Breakdown struct {
	HT        decimal.Decimal
	VAT       decimal.Decimal
	TTC       decimal.Decimal
	Retention decimal.Decimal
	Net       decimal.Decimal
}

// Compute derives VAT, TTC, retention and net payable from a net amount,
// a VAT rate and a retention rate, both in percent.
func Compute(ht, vatRate, retentionRate decimal.Decimal) Breakdown {
	vat := VATAmount(ht, vatRate)
	ttc := ht.Add(vat)
	retention := Retention(ttc, retentionRate)

	return Breakdown{
		HT:        ht,
		VAT:       vat,
		TTC:       ttc,
		Retention: retention,
		Net:       ttc.Sub(retention),
	}
}

// Percentage returns part as a percentage of whole, rounded half-up to
// 2 decimal places. It returns zero when whole is zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}

	return RoundHalfUp(part.Mul(oneHundred).Div(whole))
}

// ApplyPercent returns amount × percent / 100, rounded half-up.
func ApplyPercent(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(amount.Mul(percent).Div(oneHundred))
}

// SalePrice derives a sale price from a cost and a margin in percent.
// The second return value is false when the cost is zero, as no sale
// price can be derived from an empty cost breakdown.
func SalePrice(cost, marginPercent decimal.Decimal) (decimal.Decimal, bool) {
	if cost.IsZero() {
		return decimal.Zero, false
	}

	return RoundHalfUp(cost.Mul(oneHundred.Add(marginPercent)).Div(oneHundred)), true
}
