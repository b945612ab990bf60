package billing

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// CalculateContribution computes the tax-inclusive amount for one
// billing period starting at asOf.
//
// taxRate is a percentage (7 means 7%). Association membership fees are
// typically untaxed, so callers usually pass decimal.Zero. Negative
// base amounts or tax rates are caller errors and are rejected with
// ErrInvalidAmount.
func CalculateContribution(
	baseAmount decimal.Decimal,
	taxRate decimal.Decimal,
	interval RecurrenceInterval,
	asOf Date,
) (ContributionCalculation, error) {
	if baseAmount.IsNegative() {
		return ContributionCalculation{}, &InvalidAmountError{Field: "base amount", Value: baseAmount}
	}
	if taxRate.IsNegative() {
		return ContributionCalculation{}, &InvalidAmountError{Field: "tax rate", Value: taxRate}
	}

	period, err := InvoicePeriod(asOf, interval)
	if err != nil {
		return ContributionCalculation{}, err
	}

	taxAmount := baseAmount.Mul(taxRate).Div(oneHundred)

	return ContributionCalculation{
		BaseAmount:  baseAmount,
		TaxAmount:   taxAmount,
		TotalAmount: baseAmount.Add(taxAmount),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Interval:    interval,
	}, nil
}
