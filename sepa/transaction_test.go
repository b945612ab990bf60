package sepa_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vereinwerk/billing-engine/billing"
	"github.com/vereinwerk/billing-engine/sepa"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func debitableMember() billing.Member {
	date := billing.NewDate(2024, time.June, 1)
	return billing.Member{
		ID:               "member-1",
		MemberNumber:     "M-00001",
		FirstName:        "Max",
		LastName:         "Mustermann",
		IBAN:             "DE89370400440532013000",
		BIC:              "COBADEFFXXX",
		AccountHolder:    "Max Mustermann",
		MandateReference: "MAND-M-00001-X1",
		MandateDate:      &date,
		MandateStatus:    billing.MandateActive,
	}
}

func collectableInvoice() billing.ContributionInvoice {
	return billing.ContributionInvoice{
		ID:            "inv-1",
		InvoiceNumber: "RE-000001",
		MemberID:      "member-1",
		TotalAmount:   decimal.NewFromInt(120),
		PaidAmount:    decimal.Zero,
		Currency:      "EUR",
		Description:   "Mitgliedsbeitrag für Zeitraum 01.01.2025 - 31.12.2025",
		PaymentStatus: billing.PaymentPending,
	}
}

func validTransaction() sepa.DirectDebitTransaction {
	tx, _ := sepa.TransactionFromInvoice(debitableMember(), collectableInvoice())
	return tx
}

// =============================================================================
// TRANSACTION BUILDING
// =============================================================================

func TestTransactionFromInvoice(t *testing.T) {
	tx, err := sepa.TransactionFromInvoice(debitableMember(), collectableInvoice())
	require.NoError(t, err)

	assert.Equal(t, "MAND-M-00001-X1", tx.MandateReference)
	assert.Equal(t, "2024-06-01", tx.MandateDate.String())
	assert.Equal(t, "Max Mustermann", tx.DebtorName)
	assert.Equal(t, "DE89370400440532013000", tx.DebtorIBAN)
	assert.Equal(t, "COBADEFFXXX", tx.DebtorBIC)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, "EUR", tx.Currency)
	assert.Equal(t, "RE-000001", tx.EndToEndID)
	assert.Contains(t, tx.RemittanceInfo, "Mitgliedsbeitrag")
}

func TestTransactionFromInvoice_CollectsOutstandingOnly(t *testing.T) {
	// A partially paid invoice is debited for the remainder, not the total.
	inv := collectableInvoice()
	inv.PaidAmount = decimal.NewFromInt(50)

	tx, err := sepa.TransactionFromInvoice(debitableMember(), inv)
	require.NoError(t, err)
	assert.Equal(t, "70", tx.Amount.String())
}

func TestTransactionFromInvoice_FallbackFields(t *testing.T) {
	// GIVEN: No separate account holder and no invoice description
	// WHEN: Building the transaction
	// THEN: Debtor name falls back to the member name, remittance to
	//       the invoice number

	member := debitableMember()
	member.AccountHolder = ""
	inv := collectableInvoice()
	inv.Description = ""

	tx, err := sepa.TransactionFromInvoice(member, inv)
	require.NoError(t, err)
	assert.Equal(t, "Max Mustermann", tx.DebtorName)
	assert.Equal(t, "Rechnung RE-000001", tx.RemittanceInfo)
}

func TestTransactionFromInvoice_MissingMandate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*billing.Member)
	}{
		{"no iban", func(m *billing.Member) { m.IBAN = "" }},
		{"no reference", func(m *billing.Member) { m.MandateReference = "" }},
		{"no signature date", func(m *billing.Member) { m.MandateDate = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			member := debitableMember()
			tc.mutate(&member)

			_, err := sepa.TransactionFromInvoice(member, collectableInvoice())
			require.Error(t, err)
			assert.ErrorIs(t, err, sepa.ErrMissingMandate)

			var mandateErr *sepa.MissingMandateError
			require.ErrorAs(t, err, &mandateErr)
			assert.Equal(t, billing.MemberID("member-1"), mandateErr.MemberID)
		})
	}
}

// =============================================================================
// VALIDATION - all violations are collected, none aborts the check
// =============================================================================

func TestValidateTransaction_Valid(t *testing.T) {
	result := sepa.ValidateTransaction(validTransaction())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateTransaction_CollectsAllViolations(t *testing.T) {
	// GIVEN: A transaction violating several rules at once
	// WHEN: Validating
	// THEN: Every violation is reported, not just the first

	tx := validTransaction()
	tx.DebtorIBAN = "DE00INVALID"
	tx.Amount = decimal.Zero
	tx.DebtorName = ""
	tx.EndToEndID = strings.Repeat("X", sepa.MaxEndToEndIDLen+1)

	result := sepa.ValidateTransaction(tx)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors, "invalid IBAN")
	assert.Contains(t, result.Errors, "amount must be greater than zero")
	assert.Contains(t, result.Errors, "invalid debtor name")
	assert.Contains(t, result.Errors, "invalid end-to-end ID")
}

func TestValidateTransaction_FieldLimits(t *testing.T) {
	tx := validTransaction()
	tx.MandateReference = strings.Repeat("A", sepa.MaxMandateReferenceLen+1)
	tx.DebtorName = strings.Repeat("B", sepa.MaxDebtorNameLen+1)
	tx.RemittanceInfo = strings.Repeat("C", sepa.MaxRemittanceInfoLen+1)

	result := sepa.ValidateTransaction(tx)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "invalid mandate reference")
	assert.Contains(t, result.Errors, "invalid debtor name")
	assert.Contains(t, result.Errors, "remittance info too long")

	// Exactly at the limit is fine
	tx = validTransaction()
	tx.RemittanceInfo = strings.Repeat("C", sepa.MaxRemittanceInfoLen)
	assert.True(t, sepa.ValidateTransaction(tx).Valid)
}

func TestValidateTransaction_AmountBounds(t *testing.T) {
	tx := validTransaction()
	tx.Amount = decimal.RequireFromString("1000000.00")
	result := sepa.ValidateTransaction(tx)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "amount exceeds maximum allowed")

	tx.Amount = sepa.MaxTransactionAmount
	assert.True(t, sepa.ValidateTransaction(tx).Valid)
}

func TestValidateTransaction_MissingBICAllowed(t *testing.T) {
	// BIC is optional since SEPA IBAN-only; the XML emits NOTPROVIDED.
	tx := validTransaction()
	tx.DebtorBIC = ""
	assert.True(t, sepa.ValidateTransaction(tx).Valid)

	tx.DebtorBIC = "NOT-A-BIC"
	result := sepa.ValidateTransaction(tx)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "invalid BIC format")
}

// =============================================================================
// EXECUTION DATE
// =============================================================================

func TestExecutionDate_LeadTimes(t *testing.T) {
	// GIVEN: A due date of Wednesday 2025-01-15
	// WHEN: Calculating execution dates
	// THEN: First debit leads by 5 days (Fri 10th), recurring by 2 (Mon 13th)

	due := billing.NewDate(2025, time.January, 15)

	first := sepa.ExecutionDate(due, true)
	assert.Equal(t, "2025-01-10", first.String())

	recurring := sepa.ExecutionDate(due, false)
	assert.Equal(t, "2025-01-13", recurring.String())
}

func TestExecutionDate_WalksBackOverWeekend(t *testing.T) {
	// Due Monday 2025-01-13, recurring lead lands on Saturday the 11th,
	// so the date walks back to Friday the 10th.
	due := billing.NewDate(2025, time.January, 13)

	date := sepa.ExecutionDate(due, false)
	assert.Equal(t, "2025-01-10", date.String())
	assert.False(t, date.IsWeekend())
}

// =============================================================================
// BATCH STATISTICS
// =============================================================================

func TestCalculateBatchStatistics(t *testing.T) {
	mk := func(amount string) sepa.DirectDebitTransaction {
		tx := validTransaction()
		tx.Amount = decimal.RequireFromString(amount)
		return tx
	}

	stats := sepa.CalculateBatchStatistics([]sepa.DirectDebitTransaction{
		mk("10.00"), mk("120.00"), mk("50.00"),
	})

	assert.Equal(t, 3, stats.TotalTransactions)
	assert.Equal(t, "180", stats.TotalAmount.String())
	assert.Equal(t, "60", stats.AverageAmount.String())
	assert.Equal(t, "10", stats.MinAmount.String())
	assert.Equal(t, "120", stats.MaxAmount.String())
	assert.Equal(t, "EUR", stats.Currency)
}

func TestCalculateBatchStatistics_Empty(t *testing.T) {
	stats := sepa.CalculateBatchStatistics(nil)
	assert.Equal(t, 0, stats.TotalTransactions)
	assert.True(t, stats.TotalAmount.IsZero())
	assert.True(t, stats.AverageAmount.IsZero())
	assert.Equal(t, "EUR", stats.Currency)
}
