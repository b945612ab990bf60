/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

CONVENTIONS:
  - Dates are ISO strings (2006-01-02)
  - Money is decimal.Decimal, which serializes as a quoted decimal
    string ("120.00"), never a float

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/vereinwerk/billing-engine/billing"
	"github.com/vereinwerk/billing-engine/sepa"
)

// =============================================================================
// MEMBERS
// =============================================================================

// MemberDTO represents a member in API responses. Mandate bank data is
// echoed in display form (grouped IBAN); the raw IBAN never leaves the
// store through this type.
type MemberDTO struct {
	ID               string `json:"id"`
	MemberNumber     string `json:"member_number"`
	Salutation       string `json:"salutation,omitempty"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email,omitempty"`
	Street           string `json:"street,omitempty"`
	HouseNumber      string `json:"house_number,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`
	City             string `json:"city,omitempty"`
	Country          string `json:"country"`
	MembershipStart  string `json:"membership_start"`
	MembershipEnd    string `json:"membership_end,omitempty"`
	IBAN             string `json:"iban,omitempty"`
	BIC              string `json:"bic,omitempty"`
	AccountHolder    string `json:"account_holder,omitempty"`
	MandateReference string `json:"mandate_reference,omitempty"`
	MandateDate      string `json:"mandate_date,omitempty"`
	MandateStatus    string `json:"mandate_status"`
}

// CreateMemberRequest is the request to create a member.
type CreateMemberRequest struct {
	Salutation      string `json:"salutation"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Street          string `json:"street"`
	HouseNumber     string `json:"house_number"`
	PostalCode      string `json:"postal_code"`
	City            string `json:"city"`
	Country         string `json:"country"`
	MembershipStart string `json:"membership_start"`
}

// ActivateMandateRequest records a signed SEPA mandate for a member.
// MandateReference is optional; one is generated when omitted.
type ActivateMandateRequest struct {
	IBAN             string `json:"iban"`
	BIC              string `json:"bic"`
	AccountHolder    string `json:"account_holder"`
	MandateReference string `json:"mandate_reference"`
	MandateDate      string `json:"mandate_date"`
}

// =============================================================================
// CONTRIBUTION PLANS
// =============================================================================

// DefinitionDTO represents a fee plan in API responses.
type DefinitionDTO struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	RecurrenceInterval string          `json:"recurrence_interval"`
	IsActive           bool            `json:"is_active"`
}

// CreateDefinitionRequest is the request to create a fee plan.
type CreateDefinitionRequest struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	RecurrenceInterval string          `json:"recurrence_interval"`
}

// ContributionDTO represents a member-to-plan binding.
type ContributionDTO struct {
	ID              string           `json:"id"`
	MemberID        string           `json:"member_id"`
	DefinitionID    string           `json:"definition_id"`
	CustomAmount    *decimal.Decimal `json:"custom_amount,omitempty"`
	CustomInterval  string           `json:"custom_interval,omitempty"`
	StartDate       string           `json:"start_date"`
	EndDate         string           `json:"end_date,omitempty"`
	IsActive        bool             `json:"is_active"`
	AutoGenerate    bool             `json:"auto_generate"`
	NextInvoiceDate string           `json:"next_invoice_date"`
}

// CreateContributionRequest assigns a fee plan to a member.
type CreateContributionRequest struct {
	MemberID       string           `json:"member_id"`
	DefinitionID   string           `json:"definition_id"`
	CustomAmount   *decimal.Decimal `json:"custom_amount"`
	CustomInterval string           `json:"custom_interval"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
}

// =============================================================================
// INVOICES / PAYMENTS / REMINDERS
// =============================================================================

// InvoiceDTO represents an invoice in API responses.
type InvoiceDTO struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	MemberID      string          `json:"member_id"`
	InvoiceDate   string          `json:"invoice_date"`
	DueDate       string          `json:"due_date"`
	PeriodStart   string          `json:"period_start"`
	PeriodEnd     string          `json:"period_end"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentStatus string          `json:"payment_status"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaidDate      string          `json:"paid_date,omitempty"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	ReminderLevel int             `json:"reminder_level"`
	Description   string          `json:"description,omitempty"`
}

// RecordPaymentRequest applies a payment to an invoice.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// ReminderDTO represents a dunning notice in API responses.
type ReminderDTO struct {
	ID              string          `json:"id"`
	ReminderNumber  string          `json:"reminder_number"`
	InvoiceID       string          `json:"invoice_id"`
	Level           int             `json:"level"`
	ReminderDate    string          `json:"reminder_date"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ReminderFee     decimal.Decimal `json:"reminder_fee"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentDeadline string          `json:"payment_deadline"`
	SentVia         string          `json:"sent_via"`
	Description     string          `json:"description,omitempty"`
}

// =============================================================================
// SWEEPS / STATISTICS
// =============================================================================

// SweepResultDTO reports the outcome of an invoice or dunning run.
type SweepResultDTO struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// StatisticsDTO is the revenue summary across all invoices.
type StatisticsDTO struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	PaidRevenue    decimal.Decimal `json:"paid_revenue"`
	PendingRevenue decimal.Decimal `json:"pending_revenue"`
	OverdueRevenue decimal.Decimal `json:"overdue_revenue"`
	InvoiceCount   int             `json:"invoice_count"`
	PaidCount      int             `json:"paid_count"`
	OverdueCount   int             `json:"overdue_count"`
}

// =============================================================================
// SEPA
// =============================================================================

// BatchDTO represents a direct-debit batch in API responses.
type BatchDTO struct {
	ID                string          `json:"id"`
	BatchNumber       string          `json:"batch_number"`
	BatchDate         string          `json:"batch_date"`
	ExecutionDate     string          `json:"execution_date"`
	Status            string          `json:"status"`
	TotalTransactions int             `json:"total_transactions"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency"`
}

// SkippedInvoiceDTO explains why an invoice was excluded from a batch.
type SkippedInvoiceDTO struct {
	InvoiceID     string   `json:"invoice_id"`
	InvoiceNumber string   `json:"invoice_number"`
	Reasons       []string `json:"reasons"`
}

// CreateBatchRequest optionally pins the requested collection date.
// When omitted, the earliest permissible date is used (today plus the
// recurring lead time, moved forward off weekends).
type CreateBatchRequest struct {
	ExecutionDate string `json:"execution_date"`
}

// CreateBatchResponse returns the created batch together with the
// statistics an operator reviews before submitting the file.
type CreateBatchResponse struct {
	Batch      BatchDTO            `json:"batch"`
	Statistics BatchStatisticsDTO  `json:"statistics"`
	Skipped    []SkippedInvoiceDTO `json:"skipped,omitempty"`
}

// BatchStatisticsDTO summarizes the amounts of a batch.
type BatchStatisticsDTO struct {
	TotalTransactions int             `json:"total_transactions"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	AverageAmount     decimal.Decimal `json:"average_amount"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	Currency          string          `json:"currency"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func optDate(d *billing.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func toMemberDTO(m billing.Member) MemberDTO {
	iban := m.IBAN
	if iban != "" {
		iban = sepa.FormatIBAN(iban)
	}
	return MemberDTO{
		ID:               string(m.ID),
		MemberNumber:     m.MemberNumber,
		Salutation:       m.Salutation,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Street:           m.Street,
		HouseNumber:      m.HouseNumber,
		PostalCode:       m.PostalCode,
		City:             m.City,
		Country:          m.Country,
		MembershipStart:  m.MembershipStart.String(),
		MembershipEnd:    optDate(m.MembershipEnd),
		IBAN:             iban,
		BIC:              m.BIC,
		AccountHolder:    m.AccountHolder,
		MandateReference: m.MandateReference,
		MandateDate:      optDate(m.MandateDate),
		MandateStatus:    string(m.MandateStatus),
	}
}

func toDefinitionDTO(d billing.ContributionDefinition) DefinitionDTO {
	return DefinitionDTO{
		ID:                 string(d.ID),
		Name:               d.Name,
		Description:        d.Description,
		Amount:             d.Amount,
		Currency:           d.Currency,
		RecurrenceInterval: string(d.RecurrenceInterval),
		IsActive:           d.IsActive,
	}
}

func toContributionDTO(c billing.MemberContribution) ContributionDTO {
	dto := ContributionDTO{
		ID:              string(c.ID),
		MemberID:        string(c.MemberID),
		DefinitionID:    string(c.DefinitionID),
		CustomAmount:    c.CustomAmount,
		StartDate:       c.StartDate.String(),
		EndDate:         optDate(c.EndDate),
		IsActive:        c.IsActive,
		AutoGenerate:    c.AutoGenerateInvoices,
		NextInvoiceDate: c.NextInvoiceDate.String(),
	}
	if c.CustomInterval != nil {
		dto.CustomInterval = string(*c.CustomInterval)
	}
	return dto
}

func toInvoiceDTO(inv billing.ContributionInvoice) InvoiceDTO {
	return InvoiceDTO{
		ID:            string(inv.ID),
		InvoiceNumber: inv.InvoiceNumber,
		MemberID:      string(inv.MemberID),
		InvoiceDate:   inv.InvoiceDate.String(),
		DueDate:       inv.DueDate.String(),
		PeriodStart:   inv.PeriodStart.String(),
		PeriodEnd:     inv.PeriodEnd.String(),
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		PaymentMethod: string(inv.PaymentMethod),
		PaymentStatus: string(inv.PaymentStatus),
		PaidAmount:    inv.PaidAmount,
		PaidDate:      optDate(inv.PaidDate),
		Outstanding:   inv.Outstanding(),
		ReminderLevel: inv.ReminderLevel,
		Description:   inv.Description,
	}
}

func toReminderDTO(r billing.ContributionReminder) ReminderDTO {
	return ReminderDTO{
		ID:              string(r.ID),
		ReminderNumber:  r.ReminderNumber,
		InvoiceID:       string(r.InvoiceID),
		Level:           r.Level,
		ReminderDate:    r.ReminderDate.String(),
		OriginalAmount:  r.OriginalAmount,
		ReminderFee:     r.ReminderFee,
		TotalAmount:     r.TotalAmount,
		PaymentDeadline: r.PaymentDeadline.String(),
		SentVia:         string(r.SentVia),
		Description:     r.Description,
	}
}

func toBatchDTO(b sepa.Batch) BatchDTO {
	return BatchDTO{
		ID:                b.ID,
		BatchNumber:       b.BatchNumber,
		BatchDate:         b.BatchDate.String(),
		ExecutionDate:     b.ExecutionDate.String(),
		Status:            string(b.Status),
		TotalTransactions: b.TotalTransactions,
		TotalAmount:       b.TotalAmount,
		Currency:          b.Currency,
	}
}

func toBatchStatisticsDTO(s sepa.BatchStatistics) BatchStatisticsDTO {
	return BatchStatisticsDTO{
		TotalTransactions: s.TotalTransactions,
		TotalAmount:       s.TotalAmount,
		AverageAmount:     s.AverageAmount,
		MinAmount:         s.MinAmount,
		MaxAmount:         s.MaxAmount,
		Currency:          s.Currency,
	}
}
