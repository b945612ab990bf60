package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentTermDays is the fixed payment term: invoices fall due 14 days
// after the invoice date.
const PaymentTermDays = 14

// GenerateInvoiceFromContribution builds a draft invoice for one
// billing period of a member contribution.
//
// The draft carries no invoice number; the store assigns one on insert.
// Payment method is inferred from the mandate status: members with an
// active SEPA mandate are collected by direct debit, everyone else pays
// by bank transfer.
func GenerateInvoiceFromContribution(
	member Member,
	contribution MemberContribution,
	definition ContributionDefinition,
	invoiceDate Date,
) (InvoiceDraft, error) {
	interval := contribution.EffectiveInterval(definition)
	amount := contribution.EffectiveAmount(definition)

	calc, err := CalculateContribution(amount, decimal.Zero, interval, invoiceDate)
	if err != nil {
		return InvoiceDraft{}, err
	}

	method := MethodBankTransfer
	if member.MandateStatus == MandateActive {
		method = MethodSepaDebit
	}

	return InvoiceDraft{
		MemberID:       member.ID,
		ContributionID: contribution.ID,
		InvoiceDate:    invoiceDate,
		DueDate:        invoiceDate.AddDays(PaymentTermDays),
		PeriodStart:    calc.PeriodStart,
		PeriodEnd:      calc.PeriodEnd,
		Amount:         calc.BaseAmount,
		Currency:       definition.Currency,
		TaxRate:        decimal.Zero,
		TaxAmount:      calc.TaxAmount,
		TotalAmount:    calc.TotalAmount,
		PaymentMethod:  method,
		Description: fmt.Sprintf("%s für Zeitraum %s - %s",
			definition.Name, calc.PeriodStart.FormatGerman(), calc.PeriodEnd.FormatGerman()),
		LineItems: []InvoiceLineItem{{
			Description: definition.Name,
			Quantity:    1,
			UnitPrice:   calc.BaseAmount,
			Total:       calc.BaseAmount,
			TaxRate:     decimal.Zero,
		}},
	}, nil
}
