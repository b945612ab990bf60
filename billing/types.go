/*
Package billing implements contribution billing for a membership
association (Verein): recurring billing periods, invoice generation,
and the dunning ladder for overdue invoices.

KEY CONCEPTS IN THIS FILE (types.go):
  - Member: a billable party, optionally carrying a SEPA mandate
  - ContributionDefinition: a fee plan template (amount + recurrence)
  - MemberContribution: binds a member to a plan, with optional overrides
  - ContributionInvoice: the central billing record and its payment state
  - ContributionReminder: one dunning notice at one escalation level

DESIGN PRINCIPLES:
  1. Purity: every calculation takes its reference date as a parameter;
     nothing in this package reads the system clock or performs I/O.
  2. Precision: all money is decimal.Decimal, never float64.
  3. Drafts: generators return *Draft types without record numbers.
     Numbers (invoice/reminder) come from the store's authoritative
     sequence so they stay unique under concurrent generation.

SEE ALSO:
  - period.go: due-date and billing-period calculation
  - invoice.go: invoice generation from a member contribution
  - dunning.go: overdue state and the reminder ladder
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type DefinitionID string
type ContributionID string
type InvoiceID string
type ReminderID string

// =============================================================================
// ENUMS
// =============================================================================

// MandateStatus is the lifecycle state of a member's SEPA mandate.
type MandateStatus string

const (
	MandatePending MandateStatus = "pending"
	MandateActive  MandateStatus = "active"
	MandateRevoked MandateStatus = "revoked"
	MandateExpired MandateStatus = "expired"
)

// RecurrenceInterval determines how often a contribution is billed.
type RecurrenceInterval string

const (
	IntervalMonthly    RecurrenceInterval = "monthly"
	IntervalQuarterly  RecurrenceInterval = "quarterly"
	IntervalSemiAnnual RecurrenceInterval = "semi_annual"
	IntervalAnnual     RecurrenceInterval = "annual"
	IntervalOneTime    RecurrenceInterval = "one_time"
)

// PaymentStatus is the settlement state of an invoice. It is mutated by
// the payment collaborator (and the dunning sweep for "overdue"), never
// by the calculators in this package.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is how an invoice is expected to be settled.
type PaymentMethod string

const (
	MethodSepaDebit    PaymentMethod = "sepa_debit"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// SendVia is the delivery channel for a reminder.
type SendVia string

const (
	SendViaEmail SendVia = "email"
	SendViaPost  SendVia = "post"
)

// =============================================================================
// MEMBER
// =============================================================================

// Member is a billable party. Only the fields the billing and SEPA
// engines consume are modelled; membership administration (status
// changes, soft deletion) lives outside this module.
type Member struct {
	ID           MemberID
	MemberNumber string
	Salutation   string
	FirstName    string
	LastName     string
	Email        string

	Street      string
	HouseNumber string
	PostalCode  string
	City        string
	Country     string

	MembershipStart Date
	MembershipEnd   *Date

	// SEPA mandate data. A member is only debitable when MandateStatus
	// is active AND IBAN/AccountHolder/MandateReference are all set AND
	// the IBAN passes checksum validation (sepa.IsMandateValid).
	IBAN             string
	BIC              string
	AccountHolder    string
	MandateReference string
	MandateDate      *Date
	MandateStatus    MandateStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns "First Last", the debtor-name fallback when no
// separate account holder is recorded.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// =============================================================================
// CONTRIBUTION PLANS
// =============================================================================

// ContributionDefinition is a fee plan template. Conceptually immutable
// once invoices reference it.
type ContributionDefinition struct {
	ID                 DefinitionID
	Name               string
	Description        string
	Amount             decimal.Decimal
	Currency           string
	RecurrenceInterval RecurrenceInterval
	IsActive           bool
	CreatedAt          time.Time
}

// MemberContribution binds a member to a fee plan, optionally
// overriding amount and interval.
type MemberContribution struct {
	ID             ContributionID
	MemberID       MemberID
	DefinitionID   DefinitionID
	CustomAmount   *decimal.Decimal
	CustomInterval *RecurrenceInterval
	StartDate      Date
	EndDate        *Date
	IsActive       bool

	// AutoGenerateInvoices marks the contribution for the scheduled
	// invoice sweep. NextInvoiceDate is advanced by the store whenever
	// an invoice for the contribution is inserted.
	AutoGenerateInvoices bool
	NextInvoiceDate      Date

	CreatedAt time.Time
}

// EffectiveInterval resolves the billing interval: the member-level
// override wins, then the plan's interval, then annual.
func (c MemberContribution) EffectiveInterval(def ContributionDefinition) RecurrenceInterval {
	if c.CustomInterval != nil {
		return *c.CustomInterval
	}
	if def.RecurrenceInterval != "" {
		return def.RecurrenceInterval
	}
	return IntervalAnnual
}

// EffectiveAmount resolves the billed amount: override wins over plan.
func (c MemberContribution) EffectiveAmount(def ContributionDefinition) decimal.Decimal {
	if c.CustomAmount != nil {
		return *c.CustomAmount
	}
	return def.Amount
}

// =============================================================================
// INVOICE
// =============================================================================

// InvoiceLineItem is one position on an invoice.
type InvoiceLineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// ContributionInvoice is the central billing record.
//
// Invariants:
//   - TotalAmount = Amount + TaxAmount
//   - PaidAmount <= TotalAmount
//   - ReminderLevel only increases, and only via the dunning sweep
//     (store.ApplyReminder).
type ContributionInvoice struct {
	ID             InvoiceID
	InvoiceNumber  string
	MemberID       MemberID
	ContributionID ContributionID

	InvoiceDate Date
	DueDate     Date
	PeriodStart Date
	PeriodEnd   Date

	Amount      decimal.Decimal
	Currency    string
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	PaidAmount    decimal.Decimal
	PaidDate      *Date

	ReminderLevel    int
	LastReminderDate *Date

	Description string
	LineItems   []InvoiceLineItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outstanding returns the unpaid remainder (TotalAmount - PaidAmount).
func (inv ContributionInvoice) Outstanding() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// InvoiceDraft is a generated invoice before persistence. It carries no
// InvoiceNumber: the store assigns one from its sequence on insert so
// numbers stay globally unique under concurrent generation.
type InvoiceDraft struct {
	MemberID       MemberID
	ContributionID ContributionID

	InvoiceDate Date
	DueDate     Date
	PeriodStart Date
	PeriodEnd   Date

	Amount      decimal.Decimal
	Currency    string
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal

	PaymentMethod PaymentMethod
	Description   string
	LineItems     []InvoiceLineItem
}

// =============================================================================
// REMINDER
// =============================================================================

// ContributionReminder is one dunning notice, append-only once created.
type ContributionReminder struct {
	ID             ReminderID
	ReminderNumber string
	InvoiceID      InvoiceID
	MemberID       MemberID

	Level        int
	ReminderDate Date

	OriginalAmount  decimal.Decimal
	ReminderFee     decimal.Decimal
	TotalAmount     decimal.Decimal
	Currency        string
	PaymentDeadline Date

	SentVia     SendVia
	Description string

	CreatedAt time.Time
}

// ReminderDraft is a generated reminder before persistence. The store
// assigns the ReminderNumber and bumps the invoice's reminder level in
// the same database transaction (store.ApplyReminder).
type ReminderDraft struct {
	InvoiceID InvoiceID
	MemberID  MemberID

	Level        int
	ReminderDate Date

	OriginalAmount  decimal.Decimal
	ReminderFee     decimal.Decimal
	TotalAmount     decimal.Decimal
	Currency        string
	PaymentDeadline Date

	SentVia     SendVia
	Description string
}

// =============================================================================
// CALCULATION RESULT
// =============================================================================

// ContributionCalculation is the result of a tax-inclusive contribution
// calculation for one billing period.
type ContributionCalculation struct {
	BaseAmount  decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
	PeriodStart Date
	PeriodEnd   Date
	Interval    RecurrenceInterval
}
