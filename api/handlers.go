/*
handlers.go - HTTP handler implementations

PURPOSE:
  Implements all API endpoints. Handlers parse and validate requests,
  call the pure calculators in billing/ and sepa/, and persist results
  through the store.

ENDPOINTS:
  Members:
    GET    /api/members                    List all members
    POST   /api/members                    Create member
    GET    /api/members/{id}               Get member details
    POST   /api/members/{id}/mandate       Record a signed SEPA mandate
    GET    /api/members/{id}/contributions List plan bindings
    GET    /api/members/{id}/invoices      List invoices

  Plans:
    GET    /api/definitions                List fee plans
    POST   /api/definitions                Create fee plan
    POST   /api/contributions              Assign plan to member

  Billing:
    POST   /api/billing/run                Generate due invoices
    GET    /api/invoices                   List invoices
    GET    /api/invoices/{id}              Get invoice
    POST   /api/invoices/{id}/payments     Record payment
    GET    /api/invoices/{id}/reminders    List dunning notices
    POST   /api/dunning/run                Run the reminder ladder
    GET    /api/statistics                 Revenue summary

  SEPA:
    POST   /api/sepa/batches               Collect open debits into a batch
    GET    /api/sepa/batches               List batches
    GET    /api/sepa/batches/{id}          Get batch
    GET    /api/sepa/batches/{id}/xml      Download pain.008 document

DESIGN:
  The Handler owns no business logic. Invoice generation, dunning
  decisions and SEPA validation live in their packages; handlers only
  orchestrate. The two sweep methods (runInvoiceSweep, runDunningSweep)
  are shared with the scheduler so manual and scheduled runs behave
  identically.

CLOCK:
  Handler.Now is injectable. Tests pin it to a fixed timestamp; main
  wires time.Now.

SEE ALSO:
  - server.go: Route definitions
  - scheduler.go: Scheduled sweeps
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vereinwerk/billing-engine/billing"
	"github.com/vereinwerk/billing-engine/sepa"
	"github.com/vereinwerk/billing-engine/store/sqlite"
)

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Sepa  sepa.Config

	// Now provides the current time. Injectable for tests.
	Now func() time.Time
}

// NewHandler creates a handler with all dependencies.
func NewHandler(store *sqlite.Store, sepaCfg sepa.Config) *Handler {
	return &Handler{
		Store: store,
		Sepa:  sepaCfg,
		Now:   time.Now,
	}
}

func (h *Handler) today() billing.Date {
	return billing.DateOf(h.Now().UTC())
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MEMBERS
// =============================================================================

// CreateMember handles POST /api/members
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "first_name and last_name are required", nil)
		return
	}

	start := h.today()
	if req.MembershipStart != "" {
		var err error
		start, err = billing.ParseDate(req.MembershipStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid membership_start", err)
			return
		}
	}

	country := req.Country
	if country == "" {
		country = "DE"
	}

	member := billing.Member{
		Salutation:      req.Salutation,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Street:          req.Street,
		HouseNumber:     req.HouseNumber,
		PostalCode:      req.PostalCode,
		City:            req.City,
		Country:         country,
		MembershipStart: start,
		MandateStatus:   billing.MandatePending,
	}

	if err := h.Store.SaveMember(r.Context(), &member); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create member", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMemberDTO(member))
}

// ListMembers handles GET /api/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.ListMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, toMemberDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMember handles GET /api/members/{id}
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := billing.MemberID(chi.URLParam(r, "id"))

	member, err := h.Store.GetMember(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "member not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load member", err)
		return
	}

	writeJSON(w, http.StatusOK, toMemberDTO(*member))
}

// ActivateMandate handles POST /api/members/{id}/mandate
//
// Records a signed SEPA mandate. The IBAN must pass checksum validation
// before anything is stored; a mandate reference is generated when the
// request does not carry one.
func (h *Handler) ActivateMandate(w http.ResponseWriter, r *http.Request) {
	id := billing.MemberID(chi.URLParam(r, "id"))

	var req ActivateMandateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if !sepa.ValidateIBAN(req.IBAN) {
		writeError(w, http.StatusBadRequest, "invalid IBAN", nil)
		return
	}
	if req.BIC != "" && !sepa.ValidateBIC(req.BIC) {
		writeError(w, http.StatusBadRequest, "invalid BIC", nil)
		return
	}
	if req.AccountHolder == "" {
		writeError(w, http.StatusBadRequest, "account_holder is required", nil)
		return
	}

	member, err := h.Store.GetMember(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "member not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load member", err)
		return
	}

	mandateDate := h.today()
	if req.MandateDate != "" {
		mandateDate, err = billing.ParseDate(req.MandateDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid mandate_date", err)
			return
		}
	}

	reference := req.MandateReference
	if reference == "" {
		reference = sepa.GenerateMandateReference(member.MemberNumber, h.Now())
	}

	member.IBAN = sepa.NormalizeIBAN(req.IBAN)
	member.BIC = req.BIC
	member.AccountHolder = req.AccountHolder
	member.MandateReference = reference
	member.MandateDate = &mandateDate
	member.MandateStatus = billing.MandateActive

	if err := h.Store.SaveMember(r.Context(), member); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save mandate", err)
		return
	}

	writeJSON(w, http.StatusOK, toMemberDTO(*member))
}

// =============================================================================
// CONTRIBUTION PLANS
// =============================================================================

// CreateDefinition handles POST /api/definitions
func (h *Handler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req CreateDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must not be negative", nil)
		return
	}

	interval := billing.RecurrenceInterval(req.RecurrenceInterval)
	if _, err := billing.NextDueDate(h.today(), interval); err != nil {
		writeError(w, http.StatusBadRequest, "invalid recurrence_interval", err)
		return
	}

	def := billing.ContributionDefinition{
		Name:               req.Name,
		Description:        req.Description,
		Amount:             req.Amount,
		Currency:           req.Currency,
		RecurrenceInterval: interval,
		IsActive:           true,
	}

	if err := h.Store.SaveDefinition(r.Context(), &def); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create definition", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDefinitionDTO(def))
}

// ListDefinitions handles GET /api/definitions
func (h *Handler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Store.ListDefinitions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list definitions", err)
		return
	}

	dtos := make([]DefinitionDTO, 0, len(defs))
	for _, d := range defs {
		dtos = append(dtos, toDefinitionDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MEMBER CONTRIBUTIONS
// =============================================================================

// CreateContribution handles POST /api/contributions
func (h *Handler) CreateContribution(w http.ResponseWriter, r *http.Request) {
	var req CreateContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	member, err := h.Store.GetMember(r.Context(), billing.MemberID(req.MemberID))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "member not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load member", err)
		return
	}

	if _, err := h.Store.GetDefinition(r.Context(), billing.DefinitionID(req.DefinitionID)); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "definition not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load definition", err)
		return
	}

	start := h.today()
	if req.StartDate != "" {
		start, err = billing.ParseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date", err)
			return
		}
	}

	var end *billing.Date
	if req.EndDate != "" {
		d, err := billing.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date", err)
			return
		}
		end = &d
	}

	var customInterval *billing.RecurrenceInterval
	if req.CustomInterval != "" {
		iv := billing.RecurrenceInterval(req.CustomInterval)
		if _, err := billing.NextDueDate(start, iv); err != nil {
			writeError(w, http.StatusBadRequest, "invalid custom_interval", err)
			return
		}
		customInterval = &iv
	}
	if req.CustomAmount != nil && req.CustomAmount.IsNegative() {
		writeError(w, http.StatusBadRequest, "custom_amount must not be negative", nil)
		return
	}

	contribution := billing.MemberContribution{
		MemberID:             member.ID,
		DefinitionID:         billing.DefinitionID(req.DefinitionID),
		CustomAmount:         req.CustomAmount,
		CustomInterval:       customInterval,
		StartDate:            start,
		EndDate:              end,
		IsActive:             true,
		AutoGenerateInvoices: true,
		NextInvoiceDate:      start,
	}

	if err := h.Store.SaveContribution(r.Context(), &contribution); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create contribution", err)
		return
	}

	writeJSON(w, http.StatusCreated, toContributionDTO(contribution))
}

// ListMemberContributions handles GET /api/members/{id}/contributions
func (h *Handler) ListMemberContributions(w http.ResponseWriter, r *http.Request) {
	id := billing.MemberID(chi.URLParam(r, "id"))

	contributions, err := h.Store.ListContributionsByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contributions", err)
		return
	}

	dtos := make([]ContributionDTO, 0, len(contributions))
	for _, c := range contributions {
		dtos = append(dtos, toContributionDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// INVOICE SWEEP
// =============================================================================

// sweepResult accumulates the outcome of a scheduled or manual run.
type sweepResult struct {
	Processed int
	Skipped   int
	Errors    []string
}

// runInvoiceSweep generates invoices for every contribution whose next
// invoice date has been reached. Shared by the HTTP trigger and the
// scheduler.
//
// Each contribution is billed for the period starting at its
// NextInvoiceDate (not asOf), so a sweep that was down for a week still
// produces the correct periods. The store advances NextInvoiceDate in
// the same transaction as the insert; one-time contributions are
// switched off after their single invoice.
func (h *Handler) runInvoiceSweep(ctx context.Context, asOf billing.Date) sweepResult {
	var result sweepResult

	due, err := h.Store.ListContributionsDue(ctx, asOf)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, c := range due {
		member, err := h.Store.GetMember(ctx, c.MemberID)
		if err != nil {
			result.Errors = append(result.Errors, "contribution "+string(c.ID)+": "+err.Error())
			continue
		}
		def, err := h.Store.GetDefinition(ctx, c.DefinitionID)
		if err != nil {
			result.Errors = append(result.Errors, "contribution "+string(c.ID)+": "+err.Error())
			continue
		}

		draft, err := billing.GenerateInvoiceFromContribution(*member, c, *def, c.NextInvoiceDate)
		if err != nil {
			result.Errors = append(result.Errors, "contribution "+string(c.ID)+": "+err.Error())
			continue
		}

		interval := c.EffectiveInterval(*def)
		var next *billing.Date
		if interval != billing.IntervalOneTime {
			n, err := billing.NextDueDate(c.NextInvoiceDate, interval)
			if err != nil {
				result.Errors = append(result.Errors, "contribution "+string(c.ID)+": "+err.Error())
				continue
			}
			// A contribution past its end date stops generating.
			if c.EndDate == nil || !n.After(*c.EndDate) {
				next = &n
			}
		}

		if _, err := h.Store.InsertInvoice(ctx, draft, next); err != nil {
			result.Errors = append(result.Errors, "contribution "+string(c.ID)+": "+err.Error())
			continue
		}
		result.Processed++
	}

	return result
}

// RunInvoiceSweep handles POST /api/billing/run
func (h *Handler) RunInvoiceSweep(w http.ResponseWriter, r *http.Request) {
	result := h.runInvoiceSweep(r.Context(), h.today())
	log.Printf("[Billing] Invoice sweep: %d generated, %d errors", result.Processed, len(result.Errors))
	writeJSON(w, http.StatusOK, SweepResultDTO{
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Errors:    result.Errors,
	})
}

// =============================================================================
// INVOICES / PAYMENTS
// =============================================================================

// ListInvoices handles GET /api/invoices
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices", err)
		return
	}

	dtos := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		dtos = append(dtos, toInvoiceDTO(inv))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetInvoice handles GET /api/invoices/{id}
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := billing.InvoiceID(chi.URLParam(r, "id"))

	inv, err := h.Store.GetInvoice(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invoice not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load invoice", err)
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv))
}

// ListMemberInvoices handles GET /api/members/{id}/invoices
func (h *Handler) ListMemberInvoices(w http.ResponseWriter, r *http.Request) {
	id := billing.MemberID(chi.URLParam(r, "id"))

	invoices, err := h.Store.ListInvoicesByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices", err)
		return
	}

	dtos := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		dtos = append(dtos, toInvoiceDTO(inv))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordPayment handles POST /api/invoices/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.InvoiceID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be greater than zero", nil)
		return
	}

	date := h.today()
	if req.Date != "" {
		var err error
		date, err = billing.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
	}

	inv, err := h.Store.RecordPayment(r.Context(), id, req.Amount, date)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invoice not found", nil)
		return
	}
	if errors.Is(err, sqlite.ErrOverpayment) {
		writeError(w, http.StatusBadRequest, "payment exceeds outstanding amount", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record payment", err)
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv))
}

// =============================================================================
// DUNNING
// =============================================================================

// runDunningSweep walks all open invoices and applies the reminder
// ladder. Losing a race against a concurrent sweep on a single invoice
// is not an error; the store's monotonic guard simply skips it.
func (h *Handler) runDunningSweep(ctx context.Context, today billing.Date) sweepResult {
	var result sweepResult

	invoices, err := h.Store.ListOpenInvoices(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, inv := range invoices {
		decision := billing.ShouldSendReminder(inv, today)
		if !decision.Send {
			result.Skipped++
			continue
		}

		member, err := h.Store.GetMember(ctx, inv.MemberID)
		if err != nil {
			result.Errors = append(result.Errors, "invoice "+inv.InvoiceNumber+": "+err.Error())
			continue
		}

		draft, err := billing.GenerateReminder(inv, *member, decision.Level, today)
		if err != nil {
			result.Errors = append(result.Errors, "invoice "+inv.InvoiceNumber+": "+err.Error())
			continue
		}

		_, err = h.Store.ApplyReminder(ctx, draft)
		if errors.Is(err, sqlite.ErrReminderAlreadyApplied) {
			result.Skipped++
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, "invoice "+inv.InvoiceNumber+": "+err.Error())
			continue
		}
		result.Processed++
	}

	return result
}

// RunDunningSweep handles POST /api/dunning/run
func (h *Handler) RunDunningSweep(w http.ResponseWriter, r *http.Request) {
	result := h.runDunningSweep(r.Context(), h.today())
	log.Printf("[Dunning] Sweep: %d reminders sent, %d skipped, %d errors",
		result.Processed, result.Skipped, len(result.Errors))
	writeJSON(w, http.StatusOK, SweepResultDTO{
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Errors:    result.Errors,
	})
}

// ListInvoiceReminders handles GET /api/invoices/{id}/reminders
func (h *Handler) ListInvoiceReminders(w http.ResponseWriter, r *http.Request) {
	id := billing.InvoiceID(chi.URLParam(r, "id"))

	reminders, err := h.Store.ListRemindersByInvoice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reminders", err)
		return
	}

	dtos := make([]ReminderDTO, 0, len(reminders))
	for _, rem := range reminders {
		dtos = append(dtos, toReminderDTO(rem))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// STATISTICS
// =============================================================================

// GetStatistics handles GET /api/statistics
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices", err)
		return
	}

	stats := billing.CalculateMembershipStatistics(invoices, h.today())
	writeJSON(w, http.StatusOK, StatisticsDTO{
		TotalRevenue:   stats.TotalRevenue,
		PaidRevenue:    stats.PaidRevenue,
		PendingRevenue: stats.PendingRevenue,
		OverdueRevenue: stats.OverdueRevenue,
		InvoiceCount:   stats.InvoiceCount,
		PaidCount:      stats.PaidCount,
		OverdueCount:   stats.OverdueCount,
	})
}

// =============================================================================
// SEPA BATCHES
// =============================================================================

// CreateSepaBatch handles POST /api/sepa/batches
//
// Collects every open direct-debit invoice into a new batch. Invoices
// with an unusable mandate or failing field validation are skipped and
// reported, never silently dropped; one bad record must not block the
// rest of the collection run.
func (h *Handler) CreateSepaBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	today := h.today()

	executionDate := earliestExecutionDate(today)
	if req.ExecutionDate != "" {
		d, err := billing.ParseDate(req.ExecutionDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid execution_date", err)
			return
		}
		if d.Before(executionDate) {
			writeError(w, http.StatusBadRequest, "execution_date is before the earliest permissible collection date", nil)
			return
		}
		executionDate = d
	}

	invoices, err := h.Store.ListCollectableInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices", err)
		return
	}

	var (
		txs        []sepa.DirectDebitTransaction
		invoiceIDs []billing.InvoiceID
		memberIDs  []billing.MemberID
		skipped    []SkippedInvoiceDTO
	)

	for _, inv := range invoices {
		member, err := h.Store.GetMember(r.Context(), inv.MemberID)
		if err != nil {
			skipped = append(skipped, SkippedInvoiceDTO{
				InvoiceID:     string(inv.ID),
				InvoiceNumber: inv.InvoiceNumber,
				Reasons:       []string{"member not found"},
			})
			continue
		}

		if !sepa.IsMandateValid(*member) {
			skipped = append(skipped, SkippedInvoiceDTO{
				InvoiceID:     string(inv.ID),
				InvoiceNumber: inv.InvoiceNumber,
				Reasons:       []string{"mandate missing or not active"},
			})
			continue
		}

		tx, err := sepa.TransactionFromInvoice(*member, inv)
		if err != nil {
			skipped = append(skipped, SkippedInvoiceDTO{
				InvoiceID:     string(inv.ID),
				InvoiceNumber: inv.InvoiceNumber,
				Reasons:       []string{err.Error()},
			})
			continue
		}

		if result := sepa.ValidateTransaction(tx); !result.Valid {
			skipped = append(skipped, SkippedInvoiceDTO{
				InvoiceID:     string(inv.ID),
				InvoiceNumber: inv.InvoiceNumber,
				Reasons:       result.Errors,
			})
			continue
		}

		txs = append(txs, tx)
		invoiceIDs = append(invoiceIDs, inv.ID)
		memberIDs = append(memberIDs, inv.MemberID)
	}

	if len(txs) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no collectable invoices", nil)
		return
	}

	batch, err := h.Store.CreateBatch(r.Context(), today, executionDate, txs, invoiceIDs, memberIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create batch", err)
		return
	}

	xml := sepa.NewXMLGenerator(h.Sepa).Generate(*batch, txs, h.Now())
	if err := h.Store.StoreBatchXML(r.Context(), batch.ID, xml, h.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store batch xml", err)
		return
	}
	batch.Status = sepa.BatchPrepared

	log.Printf("[SEPA] Batch %s: %d transactions, total %s %s, %d skipped",
		batch.BatchNumber, batch.TotalTransactions, batch.TotalAmount.StringFixed(2), batch.Currency, len(skipped))

	writeJSON(w, http.StatusCreated, CreateBatchResponse{
		Batch:      toBatchDTO(*batch),
		Statistics: toBatchStatisticsDTO(sepa.CalculateBatchStatistics(txs)),
		Skipped:    skipped,
	})
}

// earliestExecutionDate returns the soonest permissible collection
// date: the recurring lead time ahead of today, moved forward onto a
// weekday. This is the forward-looking counterpart to sepa.ExecutionDate,
// which walks backward from a due date.
func earliestExecutionDate(today billing.Date) billing.Date {
	date := today.AddDays(sepa.RecurringDebitLeadDays)
	for date.IsWeekend() {
		date = date.AddDays(1)
	}
	return date
}

// ListBatches handles GET /api/sepa/batches
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Store.ListBatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list batches", err)
		return
	}

	dtos := make([]BatchDTO, 0, len(batches))
	for _, b := range batches {
		dtos = append(dtos, toBatchDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBatch handles GET /api/sepa/batches/{id}
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	batch, err := h.Store.GetBatch(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "batch not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load batch", err)
		return
	}

	writeJSON(w, http.StatusOK, toBatchDTO(*batch))
}

// GetBatchXML handles GET /api/sepa/batches/{id}/xml
//
// Returns the stored pain.008 document verbatim. The file is what the
// operator uploads to the bank, so it is never regenerated here.
func (h *Handler) GetBatchXML(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	xml, err := h.Store.GetBatchXML(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "batch xml not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load batch xml", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
