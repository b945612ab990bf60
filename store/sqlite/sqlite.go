/*
Package sqlite provides the SQLite-backed persistence layer for the
billing engine.

PURPOSE:
  The core packages (billing, sepa) are pure; this package is the
  persistence collaborator that feeds them records and stores their
  results. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  members:                  billable parties incl. SEPA mandate data
  contribution_definitions: fee plan templates
  member_contributions:     member-to-plan bindings with overrides
  contribution_invoices:    billing records and payment state
  contribution_reminders:   append-only dunning notices
  sepa_batches:             direct-debit batches + generated XML
  sepa_transactions:        instructed debits per batch
  number_sequences:         authoritative record-number sequences

INVARIANTS OWNED HERE:
  1. Record numbers (invoice, reminder, batch, transaction) come from
     number_sequences, advanced inside the same database transaction as
     the insert, so they are unique under concurrent generation.
  2. ApplyReminder persists the reminder AND bumps the invoice's
     reminder level in one transaction, guarded by a monotonic WHERE
     clause. Two concurrent dunning sweeps cannot double-send.
  3. RecordPayment caps paid_amount at total_amount.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not
  block the single writer. Use ":memory:" for tests.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vereinwerk/billing-engine/billing"
	"github.com/vereinwerk/billing-engine/sepa"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrOverpayment is returned when a payment would push paid_amount
	// past total_amount.
	ErrOverpayment = errors.New("payment exceeds invoice total")

	// ErrReminderAlreadyApplied is returned when a reminder at the same
	// or a lower level has already been applied to the invoice. This is
	// expected when two dunning sweeps race; the loser ignores it.
	ErrReminderAlreadyApplied = errors.New("reminder level already applied")
)

// =============================================================================
// STORE
// =============================================================================

// Store implements persistence for all billing and SEPA records.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		member_number TEXT NOT NULL UNIQUE,
		salutation TEXT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		street TEXT,
		house_number TEXT,
		postal_code TEXT,
		city TEXT,
		country TEXT NOT NULL DEFAULT 'DE',
		membership_start TEXT NOT NULL,
		membership_end TEXT,
		iban TEXT,
		bic TEXT,
		account_holder TEXT,
		mandate_reference TEXT,
		mandate_date TEXT,
		mandate_status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_members_mandate_status
		ON members(mandate_status);

	CREATE TABLE IF NOT EXISTS contribution_definitions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		recurrence_interval TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS member_contributions (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		definition_id TEXT NOT NULL REFERENCES contribution_definitions(id),
		custom_amount TEXT,
		custom_interval TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		auto_generate BOOLEAN NOT NULL DEFAULT TRUE,
		next_invoice_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contributions_member
		ON member_contributions(member_id);
	-- Hot path of the invoice sweep
	CREATE INDEX IF NOT EXISTS idx_contributions_due
		ON member_contributions(next_invoice_date)
		WHERE is_active AND auto_generate;

	CREATE TABLE IF NOT EXISTS contribution_invoices (
		id TEXT PRIMARY KEY,
		invoice_number TEXT NOT NULL UNIQUE,
		member_id TEXT NOT NULL REFERENCES members(id),
		contribution_id TEXT REFERENCES member_contributions(id),
		invoice_date TEXT NOT NULL,
		due_date TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		tax_rate TEXT NOT NULL DEFAULT '0',
		tax_amount TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL,
		payment_method TEXT,
		payment_status TEXT NOT NULL DEFAULT 'pending',
		paid_amount TEXT NOT NULL DEFAULT '0',
		paid_date TEXT,
		reminder_level INTEGER NOT NULL DEFAULT 0,
		last_reminder_date TEXT,
		description TEXT,
		line_items_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_member
		ON contribution_invoices(member_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_status
		ON contribution_invoices(payment_status);
	CREATE INDEX IF NOT EXISTS idx_invoices_due_date
		ON contribution_invoices(due_date);

	CREATE TABLE IF NOT EXISTS contribution_reminders (
		id TEXT PRIMARY KEY,
		reminder_number TEXT NOT NULL UNIQUE,
		invoice_id TEXT NOT NULL REFERENCES contribution_invoices(id),
		member_id TEXT NOT NULL REFERENCES members(id),
		reminder_level INTEGER NOT NULL,
		reminder_date TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		reminder_fee TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		payment_deadline TEXT NOT NULL,
		sent_via TEXT,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_invoice
		ON contribution_reminders(invoice_id);
	-- One reminder per invoice per level, ever (append-only ladder)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_reminders_invoice_level
		ON contribution_reminders(invoice_id, reminder_level);

	CREATE TABLE IF NOT EXISTS sepa_batches (
		id TEXT PRIMARY KEY,
		batch_number TEXT NOT NULL UNIQUE,
		batch_date TEXT NOT NULL,
		execution_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		total_transactions INTEGER NOT NULL DEFAULT 0,
		total_amount TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT 'EUR',
		xml_file TEXT,
		xml_generated_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sepa_transactions (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES sepa_batches(id),
		invoice_id TEXT REFERENCES contribution_invoices(id),
		member_id TEXT NOT NULL REFERENCES members(id),
		mandate_reference TEXT NOT NULL,
		mandate_date TEXT NOT NULL,
		debtor_name TEXT NOT NULL,
		debtor_iban TEXT NOT NULL,
		debtor_bic TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		end_to_end_id TEXT NOT NULL,
		remittance_info TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sepa_transactions_batch
		ON sepa_transactions(batch_id);

	-- Authoritative record-number sequences
	CREATE TABLE IF NOT EXISTS number_sequences (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// nextNumber advances a named sequence and formats the record number.
// Must run inside the caller's database transaction so an aborted
// insert does not burn visible numbers out of order with commits.
func nextNumber(ctx context.Context, db execer, name, format string) (string, error) {
	_, err := db.ExecContext(ctx, `
		INSERT INTO number_sequences (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
	`, name)
	if err != nil {
		return "", fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}

	var value int64
	err = db.QueryRowContext(ctx, "SELECT value FROM number_sequences WHERE name = ?", name).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	return fmt.Sprintf(format, value), nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullDate(d *billing.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDate(s sql.NullString) *billing.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := billing.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func mustDate(s string) billing.Date {
	d, _ := billing.ParseDate(s)
	return d
}

func mustDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// MEMBERS
// =============================================================================

// SaveMember inserts or updates a member. A missing ID or member number
// is assigned from uuid / the member sequence.
func (s *Store) SaveMember(ctx context.Context, m *billing.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if m.ID == "" {
		m.ID = billing.MemberID(uuid.NewString())
	}
	if m.MemberNumber == "" {
		number, err := nextNumber(ctx, tx, "member", "M-%05d")
		if err != nil {
			return err
		}
		m.MemberNumber = number
	}
	if m.MandateStatus == "" {
		m.MandateStatus = billing.MandatePending
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members
		(id, member_number, salutation, first_name, last_name, email,
		 street, house_number, postal_code, city, country,
		 membership_start, membership_end,
		 iban, bic, account_holder, mandate_reference, mandate_date, mandate_status,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			salutation = excluded.salutation,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			street = excluded.street,
			house_number = excluded.house_number,
			postal_code = excluded.postal_code,
			city = excluded.city,
			country = excluded.country,
			membership_start = excluded.membership_start,
			membership_end = excluded.membership_end,
			iban = excluded.iban,
			bic = excluded.bic,
			account_holder = excluded.account_holder,
			mandate_reference = excluded.mandate_reference,
			mandate_date = excluded.mandate_date,
			mandate_status = excluded.mandate_status,
			updated_at = excluded.updated_at
	`,
		m.ID, m.MemberNumber, m.Salutation, m.FirstName, m.LastName, m.Email,
		m.Street, m.HouseNumber, m.PostalCode, m.City, m.Country,
		m.MembershipStart.String(), nullDate(m.MembershipEnd),
		m.IBAN, m.BIC, m.AccountHolder, m.MandateReference, nullDate(m.MandateDate), m.MandateStatus,
		m.CreatedAt.Format(time.RFC3339), m.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}

	return tx.Commit()
}

const memberColumns = `id, member_number, salutation, first_name, last_name, email,
	street, house_number, postal_code, city, country,
	membership_start, membership_end,
	iban, bic, account_holder, mandate_reference, mandate_date, mandate_status,
	created_at, updated_at`

// GetMember returns a member by ID, or ErrNotFound.
func (s *Store) GetMember(ctx context.Context, id billing.MemberID) (*billing.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	return scanMember(row)
}

// ListMembers returns all members ordered by member number.
func (s *Store) ListMembers(ctx context.Context) ([]billing.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY member_number")
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []billing.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*billing.Member, error) {
	var (
		m                                     billing.Member
		salutation, email                     sql.NullString
		street, houseNumber, postalCode, city sql.NullString
		membershipStart                       string
		membershipEnd                         sql.NullString
		iban, bic, holder, mandateRef         sql.NullString
		mandateDate                           sql.NullString
		createdAt, updatedAt                  string
	)

	err := row.Scan(
		&m.ID, &m.MemberNumber, &salutation, &m.FirstName, &m.LastName, &email,
		&street, &houseNumber, &postalCode, &city, &m.Country,
		&membershipStart, &membershipEnd,
		&iban, &bic, &holder, &mandateRef, &mandateDate, &m.MandateStatus,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.Salutation = salutation.String
	m.Email = email.String
	m.Street = street.String
	m.HouseNumber = houseNumber.String
	m.PostalCode = postalCode.String
	m.City = city.String
	m.MembershipStart = mustDate(membershipStart)
	m.MembershipEnd = scanDate(membershipEnd)
	m.IBAN = iban.String
	m.BIC = bic.String
	m.AccountHolder = holder.String
	m.MandateReference = mandateRef.String
	m.MandateDate = scanDate(mandateDate)
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &m, nil
}

// =============================================================================
// CONTRIBUTION DEFINITIONS
// =============================================================================

// SaveDefinition inserts or updates a fee plan.
func (s *Store) SaveDefinition(ctx context.Context, def *billing.ContributionDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if def.ID == "" {
		def.ID = billing.DefinitionID(uuid.NewString())
	}
	if def.Currency == "" {
		def.Currency = "EUR"
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contribution_definitions
		(id, name, description, amount, currency, recurrence_interval, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			amount = excluded.amount,
			currency = excluded.currency,
			recurrence_interval = excluded.recurrence_interval,
			is_active = excluded.is_active
	`,
		def.ID, def.Name, def.Description, def.Amount.String(), def.Currency,
		def.RecurrenceInterval, def.IsActive, def.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save definition: %w", err)
	}
	return nil
}

// GetDefinition returns a fee plan by ID, or ErrNotFound.
func (s *Store) GetDefinition(ctx context.Context, id billing.DefinitionID) (*billing.ContributionDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		def         billing.ContributionDefinition
		description sql.NullString
		amount      string
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, amount, currency, recurrence_interval, is_active, created_at
		FROM contribution_definitions WHERE id = ?
	`, id).Scan(&def.ID, &def.Name, &description, &amount, &def.Currency,
		&def.RecurrenceInterval, &def.IsActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan definition: %w", err)
	}

	def.Description = description.String
	def.Amount = mustDecimal(amount)
	def.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &def, nil
}

// ListDefinitions returns all fee plans.
func (s *Store) ListDefinitions(ctx context.Context) ([]billing.ContributionDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, amount, currency, recurrence_interval, is_active, created_at
		FROM contribution_definitions ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer rows.Close()

	var defs []billing.ContributionDefinition
	for rows.Next() {
		var (
			def         billing.ContributionDefinition
			description sql.NullString
			amount      string
			createdAt   string
		)
		if err := rows.Scan(&def.ID, &def.Name, &description, &amount, &def.Currency,
			&def.RecurrenceInterval, &def.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		def.Description = description.String
		def.Amount = mustDecimal(amount)
		def.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// =============================================================================
// MEMBER CONTRIBUTIONS
// =============================================================================

// SaveContribution inserts or updates a member-to-plan binding.
// NextInvoiceDate defaults to the start date.
func (s *Store) SaveContribution(ctx context.Context, c *billing.MemberContribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = billing.ContributionID(uuid.NewString())
	}
	if c.NextInvoiceDate.IsZero() {
		c.NextInvoiceDate = c.StartDate
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var customAmount any
	if c.CustomAmount != nil {
		customAmount = c.CustomAmount.String()
	}
	var customInterval any
	if c.CustomInterval != nil {
		customInterval = string(*c.CustomInterval)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO member_contributions
		(id, member_id, definition_id, custom_amount, custom_interval,
		 start_date, end_date, is_active, auto_generate, next_invoice_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			custom_amount = excluded.custom_amount,
			custom_interval = excluded.custom_interval,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			is_active = excluded.is_active,
			auto_generate = excluded.auto_generate,
			next_invoice_date = excluded.next_invoice_date
	`,
		c.ID, c.MemberID, c.DefinitionID, customAmount, customInterval,
		c.StartDate.String(), nullDate(c.EndDate), c.IsActive, c.AutoGenerateInvoices,
		c.NextInvoiceDate.String(), c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save contribution: %w", err)
	}
	return nil
}

const contributionColumns = `id, member_id, definition_id, custom_amount, custom_interval,
	start_date, end_date, is_active, auto_generate, next_invoice_date, created_at`

// GetContribution returns a binding by ID, or ErrNotFound.
func (s *Store) GetContribution(ctx context.Context, id billing.ContributionID) (*billing.MemberContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+contributionColumns+" FROM member_contributions WHERE id = ?", id)
	c, err := scanContribution(row)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListContributionsByMember returns a member's plan bindings.
func (s *Store) ListContributionsByMember(ctx context.Context, memberID billing.MemberID) ([]billing.MemberContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContributions(ctx,
		"SELECT "+contributionColumns+" FROM member_contributions WHERE member_id = ? ORDER BY created_at", memberID)
}

// ListContributionsDue returns active auto-billed contributions whose
// next invoice date is on or before asOf and that have not ended. This
// is the work queue of the invoice sweep.
func (s *Store) ListContributionsDue(ctx context.Context, asOf billing.Date) ([]billing.MemberContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContributions(ctx, `
		SELECT `+contributionColumns+` FROM member_contributions
		WHERE is_active AND auto_generate
		  AND next_invoice_date <= ?
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY next_invoice_date
	`, asOf.String(), asOf.String())
}

func (s *Store) queryContributions(ctx context.Context, query string, args ...any) ([]billing.MemberContribution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributions: %w", err)
	}
	defer rows.Close()

	var contributions []billing.MemberContribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, *c)
	}
	return contributions, rows.Err()
}

func scanContribution(row rowScanner) (*billing.MemberContribution, error) {
	var (
		c               billing.MemberContribution
		customAmount    sql.NullString
		customInterval  sql.NullString
		startDate       string
		endDate         sql.NullString
		nextInvoiceDate string
		createdAt       string
	)

	err := row.Scan(&c.ID, &c.MemberID, &c.DefinitionID, &customAmount, &customInterval,
		&startDate, &endDate, &c.IsActive, &c.AutoGenerateInvoices, &nextInvoiceDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contribution: %w", err)
	}

	if customAmount.Valid {
		amount := mustDecimal(customAmount.String)
		c.CustomAmount = &amount
	}
	if customInterval.Valid && customInterval.String != "" {
		interval := billing.RecurrenceInterval(customInterval.String)
		c.CustomInterval = &interval
	}
	c.StartDate = mustDate(startDate)
	c.EndDate = scanDate(endDate)
	c.NextInvoiceDate = mustDate(nextInvoiceDate)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// =============================================================================
// INVOICES
// =============================================================================

// InsertInvoice persists a draft, assigning ID and invoice number from
// the sequence. In the same transaction the source contribution's next
// invoice date is advanced to next; passing nil instead switches
// auto-generation off (one-time contributions are billed exactly once).
func (s *Store) InsertInvoice(ctx context.Context, draft billing.InvoiceDraft, next *billing.Date) (*billing.ContributionInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	number, err := nextNumber(ctx, tx, "invoice", "RE-%06d")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := billing.ContributionInvoice{
		ID:             billing.InvoiceID(uuid.NewString()),
		InvoiceNumber:  number,
		MemberID:       draft.MemberID,
		ContributionID: draft.ContributionID,
		InvoiceDate:    draft.InvoiceDate,
		DueDate:        draft.DueDate,
		PeriodStart:    draft.PeriodStart,
		PeriodEnd:      draft.PeriodEnd,
		Amount:         draft.Amount,
		Currency:       draft.Currency,
		TaxRate:        draft.TaxRate,
		TaxAmount:      draft.TaxAmount,
		TotalAmount:    draft.TotalAmount,
		PaymentMethod:  draft.PaymentMethod,
		PaymentStatus:  billing.PaymentPending,
		PaidAmount:     decimal.Zero,
		Description:    draft.Description,
		LineItems:      draft.LineItems,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	lineItemsJSON, _ := json.Marshal(inv.LineItems)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contribution_invoices
		(id, invoice_number, member_id, contribution_id, invoice_date, due_date,
		 period_start, period_end, amount, currency, tax_rate, tax_amount, total_amount,
		 payment_method, payment_status, paid_amount, reminder_level,
		 description, line_items_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)
	`,
		inv.ID, inv.InvoiceNumber, inv.MemberID, inv.ContributionID,
		inv.InvoiceDate.String(), inv.DueDate.String(),
		inv.PeriodStart.String(), inv.PeriodEnd.String(),
		inv.Amount.String(), inv.Currency, inv.TaxRate.String(), inv.TaxAmount.String(),
		inv.TotalAmount.String(), inv.PaymentMethod, inv.PaymentStatus, inv.PaidAmount.String(),
		inv.Description, string(lineItemsJSON),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	if inv.ContributionID != "" {
		if next != nil {
			_, err = tx.ExecContext(ctx,
				"UPDATE member_contributions SET next_invoice_date = ? WHERE id = ?",
				next.String(), inv.ContributionID)
		} else {
			_, err = tx.ExecContext(ctx,
				"UPDATE member_contributions SET auto_generate = FALSE WHERE id = ?",
				inv.ContributionID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to advance contribution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &inv, nil
}

const invoiceColumns = `id, invoice_number, member_id, contribution_id, invoice_date, due_date,
	period_start, period_end, amount, currency, tax_rate, tax_amount, total_amount,
	payment_method, payment_status, paid_amount, paid_date, reminder_level, last_reminder_date,
	description, line_items_json, created_at, updated_at`

// GetInvoice returns an invoice by ID, or ErrNotFound.
func (s *Store) GetInvoice(ctx context.Context, id billing.InvoiceID) (*billing.ContributionInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM contribution_invoices WHERE id = ?", id)
	return scanInvoice(row)
}

// ListInvoices returns all invoices, newest first.
func (s *Store) ListInvoices(ctx context.Context) ([]billing.ContributionInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInvoices(ctx,
		"SELECT "+invoiceColumns+" FROM contribution_invoices ORDER BY invoice_number DESC")
}

// ListInvoicesByMember returns a member's invoices, newest first.
func (s *Store) ListInvoicesByMember(ctx context.Context, memberID billing.MemberID) ([]billing.ContributionInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInvoices(ctx,
		"SELECT "+invoiceColumns+" FROM contribution_invoices WHERE member_id = ? ORDER BY invoice_number DESC", memberID)
}

// ListOpenInvoices returns invoices that still have money outstanding
// (pending, partial or overdue). The dunning sweep iterates these.
func (s *Store) ListOpenInvoices(ctx context.Context) ([]billing.ContributionInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInvoices(ctx, `
		SELECT `+invoiceColumns+` FROM contribution_invoices
		WHERE payment_status IN ('pending', 'partial', 'overdue')
		ORDER BY due_date
	`)
}

// ListCollectableInvoices returns open invoices payable by direct
// debit. The SEPA batch builder iterates these.
func (s *Store) ListCollectableInvoices(ctx context.Context) ([]billing.ContributionInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInvoices(ctx, `
		SELECT `+invoiceColumns+` FROM contribution_invoices
		WHERE payment_status IN ('pending', 'partial', 'overdue')
		  AND payment_method = 'sepa_debit'
		ORDER BY due_date
	`)
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]billing.ContributionInvoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []billing.ContributionInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row rowScanner) (*billing.ContributionInvoice, error) {
	var (
		inv                            billing.ContributionInvoice
		contributionID                 sql.NullString
		invoiceDate, dueDate           string
		periodStart, periodEnd         string
		amount, taxRate, taxAmount     string
		totalAmount, paidAmount        string
		paymentMethod                  sql.NullString
		paidDate, lastReminderDate     sql.NullString
		description, lineItemsJSON     sql.NullString
		createdAt, updatedAt           string
	)

	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.MemberID, &contributionID,
		&invoiceDate, &dueDate, &periodStart, &periodEnd,
		&amount, &inv.Currency, &taxRate, &taxAmount, &totalAmount,
		&paymentMethod, &inv.PaymentStatus, &paidAmount, &paidDate,
		&inv.ReminderLevel, &lastReminderDate,
		&description, &lineItemsJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	inv.ContributionID = billing.ContributionID(contributionID.String)
	inv.InvoiceDate = mustDate(invoiceDate)
	inv.DueDate = mustDate(dueDate)
	inv.PeriodStart = mustDate(periodStart)
	inv.PeriodEnd = mustDate(periodEnd)
	inv.Amount = mustDecimal(amount)
	inv.TaxRate = mustDecimal(taxRate)
	inv.TaxAmount = mustDecimal(taxAmount)
	inv.TotalAmount = mustDecimal(totalAmount)
	inv.PaymentMethod = billing.PaymentMethod(paymentMethod.String)
	inv.PaidAmount = mustDecimal(paidAmount)
	inv.PaidDate = scanDate(paidDate)
	inv.LastReminderDate = scanDate(lastReminderDate)
	inv.Description = description.String
	if lineItemsJSON.Valid && lineItemsJSON.String != "" {
		json.Unmarshal([]byte(lineItemsJSON.String), &inv.LineItems)
	}
	inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	inv.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &inv, nil
}

// RecordPayment applies a payment to an invoice on behalf of the
// external payment collaborator. The paid amount is capped at the
// invoice total (ErrOverpayment); full settlement flips the status to
// paid, anything else to partial.
func (s *Store) RecordPayment(ctx context.Context, id billing.InvoiceID, amount decimal.Decimal, date billing.Date) (*billing.ContributionInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount %s", ErrOverpayment, amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM contribution_invoices WHERE id = ?", id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	newPaid := inv.PaidAmount.Add(amount)
	if newPaid.GreaterThan(inv.TotalAmount) {
		return nil, fmt.Errorf("%w: %s paid + %s > total %s",
			ErrOverpayment, inv.PaidAmount, amount, inv.TotalAmount)
	}

	status := billing.PaymentPartial
	var paidDate any
	if newPaid.Equal(inv.TotalAmount) {
		status = billing.PaymentPaid
		paidDate = date.String()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE contribution_invoices
		SET paid_amount = ?, payment_status = ?, paid_date = ?, updated_at = ?
		WHERE id = ?
	`, newPaid.String(), status, paidDate, nowRFC3339(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	inv.PaidAmount = newPaid
	inv.PaymentStatus = status
	if status == billing.PaymentPaid {
		inv.PaidDate = &date
	}
	return inv, nil
}

// =============================================================================
// REMINDERS
// =============================================================================

// ApplyReminder persists a reminder draft and bumps the invoice's
// reminder level in one database transaction.
//
// The UPDATE is guarded by "reminder_level < draft.Level": if another
// sweep already applied this (or a higher) level, no row matches and
// ErrReminderAlreadyApplied is returned without writing anything. This
// is what makes concurrent dunning runs safe.
func (s *Store) ApplyReminder(ctx context.Context, draft billing.ReminderDraft) (*billing.ContributionReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE contribution_invoices
		SET reminder_level = ?, last_reminder_date = ?, updated_at = ?,
		    payment_status = CASE WHEN payment_status IN ('pending', 'partial')
		                          THEN 'overdue' ELSE payment_status END
		WHERE id = ? AND reminder_level < ?
	`, draft.Level, draft.ReminderDate.String(), nowRFC3339(), draft.InvoiceID, draft.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to bump reminder level: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrReminderAlreadyApplied
	}

	number, err := nextNumber(ctx, tx, "reminder", "MA-%06d")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reminder := billing.ContributionReminder{
		ID:              billing.ReminderID(uuid.NewString()),
		ReminderNumber:  number,
		InvoiceID:       draft.InvoiceID,
		MemberID:        draft.MemberID,
		Level:           draft.Level,
		ReminderDate:    draft.ReminderDate,
		OriginalAmount:  draft.OriginalAmount,
		ReminderFee:     draft.ReminderFee,
		TotalAmount:     draft.TotalAmount,
		Currency:        draft.Currency,
		PaymentDeadline: draft.PaymentDeadline,
		SentVia:         draft.SentVia,
		Description:     draft.Description,
		CreatedAt:       now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contribution_reminders
		(id, reminder_number, invoice_id, member_id, reminder_level, reminder_date,
		 original_amount, reminder_fee, total_amount, currency, payment_deadline,
		 sent_via, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reminder.ID, reminder.ReminderNumber, reminder.InvoiceID, reminder.MemberID,
		reminder.Level, reminder.ReminderDate.String(),
		reminder.OriginalAmount.String(), reminder.ReminderFee.String(), reminder.TotalAmount.String(),
		reminder.Currency, reminder.PaymentDeadline.String(),
		reminder.SentVia, reminder.Description, now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &reminder, nil
}

// ListRemindersByInvoice returns an invoice's reminders in level order.
func (s *Store) ListRemindersByInvoice(ctx context.Context, invoiceID billing.InvoiceID) ([]billing.ContributionReminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reminder_number, invoice_id, member_id, reminder_level, reminder_date,
		       original_amount, reminder_fee, total_amount, currency, payment_deadline,
		       sent_via, description, created_at
		FROM contribution_reminders
		WHERE invoice_id = ?
		ORDER BY reminder_level
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []billing.ContributionReminder
	for rows.Next() {
		var (
			r                          billing.ContributionReminder
			reminderDate, deadline     string
			original, fee, total       string
			sentVia, description       sql.NullString
			createdAt                  string
		)
		if err := rows.Scan(&r.ID, &r.ReminderNumber, &r.InvoiceID, &r.MemberID,
			&r.Level, &reminderDate, &original, &fee, &total, &r.Currency,
			&deadline, &sentVia, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		r.ReminderDate = mustDate(reminderDate)
		r.OriginalAmount = mustDecimal(original)
		r.ReminderFee = mustDecimal(fee)
		r.TotalAmount = mustDecimal(total)
		r.PaymentDeadline = mustDate(deadline)
		r.SentVia = billing.SendVia(sentVia.String)
		r.Description = description.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// =============================================================================
// SEPA BATCHES
// =============================================================================

// CreateBatch persists a batch and its transactions atomically,
// assigning the batch number and per-transaction IDs from sequences.
// invoiceIDs runs parallel to txs and links each debit to its invoice.
func (s *Store) CreateBatch(ctx context.Context, batchDate, executionDate billing.Date,
	txs []sepa.DirectDebitTransaction, invoiceIDs []billing.InvoiceID,
	memberIDs []billing.MemberID) (*sepa.Batch, error) {

	if len(txs) != len(invoiceIDs) || len(txs) != len(memberIDs) {
		return nil, fmt.Errorf("transactions, invoice IDs and member IDs must align")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	number, err := nextNumber(ctx, dbTx, "sepa_batch", "SEPA-%06d")
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	currency := "EUR"
	for _, tx := range txs {
		total = total.Add(tx.Amount)
		currency = tx.Currency
	}

	now := time.Now().UTC()
	batch := sepa.Batch{
		ID:                uuid.NewString(),
		BatchNumber:       number,
		BatchDate:         batchDate,
		ExecutionDate:     executionDate,
		Status:            sepa.BatchDraft,
		TotalTransactions: len(txs),
		TotalAmount:       total,
		Currency:          currency,
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO sepa_batches
		(id, batch_number, batch_date, execution_date, status,
		 total_transactions, total_amount, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		batch.ID, batch.BatchNumber, batch.BatchDate.String(), batch.ExecutionDate.String(),
		batch.Status, batch.TotalTransactions, batch.TotalAmount.String(), batch.Currency,
		now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}

	for i, tx := range txs {
		txID, err := nextNumber(ctx, dbTx, "sepa_transaction", "TX-%08d")
		if err != nil {
			return nil, err
		}
		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO sepa_transactions
			(id, batch_id, invoice_id, member_id, mandate_reference, mandate_date,
			 debtor_name, debtor_iban, debtor_bic, amount, currency,
			 end_to_end_id, remittance_info, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			txID, batch.ID, invoiceIDs[i], memberIDs[i],
			tx.MandateReference, tx.MandateDate.String(),
			tx.DebtorName, tx.DebtorIBAN, tx.DebtorBIC,
			tx.Amount.String(), tx.Currency, tx.EndToEndID, tx.RemittanceInfo,
			now.Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sepa transaction: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}
	return &batch, nil
}

const batchColumns = `id, batch_number, batch_date, execution_date, status,
	total_transactions, total_amount, currency`

// GetBatch returns a batch by ID, or ErrNotFound.
func (s *Store) GetBatch(ctx context.Context, id string) (*sepa.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+batchColumns+" FROM sepa_batches WHERE id = ?", id)
	return scanBatch(row)
}

// ListBatches returns all batches, newest first.
func (s *Store) ListBatches(ctx context.Context) ([]sepa.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+batchColumns+" FROM sepa_batches ORDER BY batch_number DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []sepa.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

func scanBatch(row rowScanner) (*sepa.Batch, error) {
	var (
		b                    sepa.Batch
		batchDate, execDate  string
		totalAmount          string
	)
	err := row.Scan(&b.ID, &b.BatchNumber, &batchDate, &execDate, &b.Status,
		&b.TotalTransactions, &totalAmount, &b.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}
	b.BatchDate = mustDate(batchDate)
	b.ExecutionDate = mustDate(execDate)
	b.TotalAmount = mustDecimal(totalAmount)
	return &b, nil
}

// ListBatchTransactions returns the debits of a batch in insert order.
func (s *Store) ListBatchTransactions(ctx context.Context, batchID string) ([]sepa.DirectDebitTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT mandate_reference, mandate_date, debtor_name, debtor_iban, debtor_bic,
		       amount, currency, end_to_end_id, remittance_info
		FROM sepa_transactions
		WHERE batch_id = ?
		ORDER BY id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch transactions: %w", err)
	}
	defer rows.Close()

	var txs []sepa.DirectDebitTransaction
	for rows.Next() {
		var (
			tx            sepa.DirectDebitTransaction
			mandateDate   string
			bic           sql.NullString
			amount        string
			remittance    sql.NullString
		)
		if err := rows.Scan(&tx.MandateReference, &mandateDate, &tx.DebtorName,
			&tx.DebtorIBAN, &bic, &amount, &tx.Currency, &tx.EndToEndID, &remittance); err != nil {
			return nil, fmt.Errorf("failed to scan sepa transaction: %w", err)
		}
		tx.MandateDate = mustDate(mandateDate)
		tx.DebtorBIC = bic.String
		tx.Amount = mustDecimal(amount)
		tx.RemittanceInfo = remittance.String
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// StoreBatchXML attaches the generated document to the batch and marks
// it prepared.
func (s *Store) StoreBatchXML(ctx context.Context, batchID, xml string, generatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE sepa_batches
		SET xml_file = ?, xml_generated_at = ?, status = 'prepared'
		WHERE id = ?
	`, xml, generatedAt.UTC().Format(time.RFC3339), batchID)
	if err != nil {
		return fmt.Errorf("failed to store batch xml: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBatchXML returns the stored document for a batch, or ErrNotFound
// when the batch does not exist or has no XML yet.
func (s *Store) GetBatchXML(ctx context.Context, batchID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var xml sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT xml_file FROM sepa_batches WHERE id = ?", batchID).Scan(&xml)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read batch xml: %w", err)
	}
	if !xml.Valid || xml.String == "" {
		return "", ErrNotFound
	}
	return xml.String, nil
}
