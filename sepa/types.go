/*
Package sepa implements SEPA direct-debit preparation: mandate and
account validation, transaction building from invoices, execution-date
calculation, and pain.008.001.02 XML generation.

Everything here is pure: the package validates and serializes, it never
talks to a bank or a database. Submitting the generated XML is the
operator's job.
*/
package sepa

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vereinwerk/billing-engine/billing"
)

// =============================================================================
// FIELD LIMITS - ISO 20022 pain.008 constraints
// =============================================================================

// Field length limits from the pain.008.001.02 schema. Enforced by
// ValidateTransaction before XML generation; the XML layer does not
// re-validate.
const (
	MaxMandateReferenceLen = 35
	MaxDebtorNameLen       = 70
	MaxEndToEndIDLen       = 35
	MaxRemittanceInfoLen   = 140
)

// MaxTransactionAmount is the scheme ceiling for a single collection.
var MaxTransactionAmount = decimal.RequireFromString("999999.99")

// =============================================================================
// TRANSACTION / BATCH
// =============================================================================

// DirectDebitTransaction is one instructed debit. Immutable once built.
type DirectDebitTransaction struct {
	MandateReference string
	MandateDate      billing.Date
	DebtorName       string
	DebtorIBAN       string
	DebtorBIC        string // optional; NOTPROVIDED sentinel in XML when empty
	Amount           decimal.Decimal
	Currency         string
	EndToEndID       string
	RemittanceInfo   string
}

// BatchStatus is the submission lifecycle of a batch.
type BatchStatus string

const (
	BatchDraft     BatchStatus = "draft"
	BatchPrepared  BatchStatus = "prepared"
	BatchSubmitted BatchStatus = "submitted"
	BatchExecuted  BatchStatus = "executed"
	BatchFailed    BatchStatus = "failed"
	BatchCancelled BatchStatus = "cancelled"
)

// Batch is a named, dated collection of transactions sharing one
// requested collection date. All transactions of a batch end up in a
// single PmtInf block.
type Batch struct {
	ID                string
	BatchNumber       string
	BatchDate         billing.Date
	ExecutionDate     billing.Date
	Status            BatchStatus
	TotalTransactions int
	TotalAmount       decimal.Decimal
	Currency          string
}

// Config is the creditor identity used in every generated document.
type Config struct {
	CreditorName    string `mapstructure:"creditor_name"`
	CreditorIBAN    string `mapstructure:"creditor_iban"`
	CreditorBIC     string `mapstructure:"creditor_bic"`
	CreditorID      string `mapstructure:"creditor_id"` // Gläubiger-ID
	MessageIDPrefix string `mapstructure:"message_id_prefix"`
}

// ValidationResult collects all rule violations of one transaction.
/// Validation never fails fast: a batch operator needs the complete
// error report per transaction, not just the first problem.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrMissingMandate is returned when a direct-debit transaction is
// attempted for a member without complete mandate data.
var ErrMissingMandate = errors.New("missing sepa mandate data")

// MissingMandateError reports which member lacks mandate data.
type MissingMandateError struct {
	MemberID billing.MemberID
}

func (e *MissingMandateError) Error() string {
	return fmt.Sprintf("member %s does not have a complete sepa mandate", e.MemberID)
}

func (e *MissingMandateError) Unwrap() error { return ErrMissingMandate }
