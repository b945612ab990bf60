package sepa

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vereinwerk/billing-engine/billing"
)

// =============================================================================
// TRANSACTION BUILDER
// =============================================================================

// TransactionFromInvoice builds a direct-debit transaction collecting
// the outstanding amount of an invoice from the member's account.
//
// Fails with ErrMissingMandate when IBAN, mandate reference or mandate
// signature date are absent. Completeness is checked here; field-level
// rules (lengths, amount bounds, checksums) are checked separately by
// ValidateTransaction so batch processing can collect a full report.
func TransactionFromInvoice(member billing.Member, invoice billing.ContributionInvoice) (DirectDebitTransaction, error) {
	if member.IBAN == "" || member.MandateReference == "" || member.MandateDate == nil {
		return DirectDebitTransaction{}, &MissingMandateError{MemberID: member.ID}
	}

	debtorName := member.AccountHolder
	if debtorName == "" {
		debtorName = member.FullName()
	}

	remittance := invoice.Description
	if remittance == "" {
		remittance = fmt.Sprintf("Rechnung %s", invoice.InvoiceNumber)
	}

	return DirectDebitTransaction{
		MandateReference: member.MandateReference,
		MandateDate:      *member.MandateDate,
		DebtorName:       debtorName,
		DebtorIBAN:       member.IBAN,
		DebtorBIC:        member.BIC,
		Amount:           invoice.Outstanding(),
		Currency:         invoice.Currency,
		EndToEndID:       invoice.InvoiceNumber,
		RemittanceInfo:   remittance,
	}, nil
}

// =============================================================================
// TRANSACTION VALIDATION - collects all violations, never fails fast
// =============================================================================

// ValidateTransaction checks every pain.008 field rule and returns the
// complete list of violations. A single invalid transaction must not
// abort a whole batch; the caller decides whether to exclude it or halt.
func ValidateTransaction(tx DirectDebitTransaction) ValidationResult {
	var errs []string

	if !ValidateIBAN(tx.DebtorIBAN) {
		errs = append(errs, "invalid IBAN")
	}

	if tx.DebtorBIC != "" && !ValidateBIC(tx.DebtorBIC) {
		errs = append(errs, "invalid BIC format")
	}

	if !tx.Amount.IsPositive() {
		errs = append(errs, "amount must be greater than zero")
	}
	if tx.Amount.GreaterThan(MaxTransactionAmount) {
		errs = append(errs, "amount exceeds maximum allowed")
	}

	if tx.MandateReference == "" || len(tx.MandateReference) > MaxMandateReferenceLen {
		errs = append(errs, "invalid mandate reference")
	}

	if tx.DebtorName == "" || len(tx.DebtorName) > MaxDebtorNameLen {
		errs = append(errs, "invalid debtor name")
	}

	if tx.EndToEndID == "" || len(tx.EndToEndID) > MaxEndToEndIDLen {
		errs = append(errs, "invalid end-to-end ID")
	}

	if len(tx.RemittanceInfo) > MaxRemittanceInfoLen {
		errs = append(errs, "remittance info too long")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// =============================================================================
// EXECUTION DATE
// =============================================================================

// Pre-notification lead times in days before the due date.
const (
	FirstDebitLeadDays     = 5
	RecurringDebitLeadDays = 2
)

// ExecutionDate returns the collection date to instruct for a debit due
// on dueDate: five days ahead for a mandate's first collection, two for
// recurring ones, walked backward over weekends onto a weekday.
func ExecutionDate(dueDate billing.Date, isFirstDebit bool) billing.Date {
	lead := RecurringDebitLeadDays
	if isFirstDebit {
		lead = FirstDebitLeadDays
	}

	date := dueDate.AddDays(-lead)
	for date.IsWeekend() {
		date = date.AddDays(-1)
	}
	return date
}

// =============================================================================
// BATCH STATISTICS
// =============================================================================

// BatchStatistics summarizes a transaction slice for operator review
// before submission.
type BatchStatistics struct {
	TotalTransactions int
	TotalAmount       decimal.Decimal
	AverageAmount     decimal.Decimal
	MinAmount         decimal.Decimal
	MaxAmount         decimal.Decimal
	Currency          string
}

// CalculateBatchStatistics aggregates amounts over the transactions.
// An empty slice yields all-zero statistics.
func CalculateBatchStatistics(txs []DirectDebitTransaction) BatchStatistics {
	stats := BatchStatistics{
		TotalAmount:   decimal.Zero,
		AverageAmount: decimal.Zero,
		MinAmount:     decimal.Zero,
		MaxAmount:     decimal.Zero,
		Currency:      "EUR",
	}
	if len(txs) == 0 {
		return stats
	}

	stats.TotalTransactions = len(txs)
	stats.Currency = txs[0].Currency
	stats.MinAmount = txs[0].Amount
	stats.MaxAmount = txs[0].Amount

	for _, tx := range txs {
		stats.TotalAmount = stats.TotalAmount.Add(tx.Amount)
		if tx.Amount.LessThan(stats.MinAmount) {
			stats.MinAmount = tx.Amount
		}
		if tx.Amount.GreaterThan(stats.MaxAmount) {
			stats.MaxAmount = tx.Amount
		}
	}

	stats.AverageAmount = stats.TotalAmount.Div(decimal.NewFromInt(int64(len(txs))))
	return stats
}
