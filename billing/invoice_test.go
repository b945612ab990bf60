package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vereinwerk/billing-engine/billing"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func testMember(mandateActive bool) billing.Member {
	m := billing.Member{
		ID:           "member-1",
		MemberNumber: "M-00001",
		FirstName:    "Max",
		LastName:     "Mustermann",
		Email:        "max@example.org",
		Country:      "DE",
		MandateStatus: billing.MandatePending,
	}
	if mandateActive {
		date := billing.NewDate(2024, time.June, 1)
		m.IBAN = "DE89370400440532013000"
		m.AccountHolder = "Max Mustermann"
		m.MandateReference = "MAND-M-00001-X1"
		m.MandateDate = &date
		m.MandateStatus = billing.MandateActive
	}
	return m
}

func annualDefinition(amount int64) billing.ContributionDefinition {
	return billing.ContributionDefinition{
		ID:                 "def-annual",
		Name:               "Mitgliedsbeitrag",
		Amount:             decimal.NewFromInt(amount),
		Currency:           "EUR",
		RecurrenceInterval: billing.IntervalAnnual,
		IsActive:           true,
	}
}

// =============================================================================
// INVOICE GENERATION
// =============================================================================

func TestGenerateInvoice_AnnualContribution(t *testing.T) {
	// GIVEN: An annual 120.00 EUR contribution starting 2025-01-01
	// WHEN: Generating the invoice for the first period
	// THEN: Period is the calendar year, due date is 14 days out,
	//       total is 120.00 with no tax

	member := testMember(false)
	def := annualDefinition(120)
	contribution := billing.MemberContribution{
		ID:           "contrib-1",
		MemberID:     member.ID,
		DefinitionID: def.ID,
		StartDate:    billing.NewDate(2025, time.January, 1),
		IsActive:     true,
	}

	draft, err := billing.GenerateInvoiceFromContribution(
		member, contribution, def, billing.NewDate(2025, time.January, 1))
	require.NoError(t, err)

	assert.Equal(t, member.ID, draft.MemberID)
	assert.Equal(t, contribution.ID, draft.ContributionID)
	assert.Equal(t, "2025-01-01", draft.InvoiceDate.String())
	assert.Equal(t, "2025-01-15", draft.DueDate.String())
	assert.Equal(t, "2025-01-01", draft.PeriodStart.String())
	assert.Equal(t, "2025-12-31", draft.PeriodEnd.String())
	assert.True(t, draft.TotalAmount.Equal(decimal.NewFromInt(120)))
	assert.True(t, draft.TaxAmount.IsZero())
	assert.Equal(t, "EUR", draft.Currency)
	assert.Contains(t, draft.Description, "Mitgliedsbeitrag")
	assert.Contains(t, draft.Description, "01.01.2025")
	assert.Contains(t, draft.Description, "31.12.2025")

	require.Len(t, draft.LineItems, 1)
	assert.Equal(t, 1, draft.LineItems[0].Quantity)
	assert.True(t, draft.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(120)))
}

func TestGenerateInvoice_PaymentMethodFollowsMandate(t *testing.T) {
	// GIVEN: The same contribution for a member with and without an
	//        active mandate
	// WHEN: Generating invoices
	// THEN: Active mandate collects by direct debit, otherwise bank transfer

	def := annualDefinition(120)
	contribution := billing.MemberContribution{
		ID: "contrib-1", DefinitionID: def.ID,
		StartDate: billing.NewDate(2025, time.January, 1),
	}
	invoiceDate := billing.NewDate(2025, time.January, 1)

	withMandate, err := billing.GenerateInvoiceFromContribution(testMember(true), contribution, def, invoiceDate)
	require.NoError(t, err)
	assert.Equal(t, billing.MethodSepaDebit, withMandate.PaymentMethod)

	withoutMandate, err := billing.GenerateInvoiceFromContribution(testMember(false), contribution, def, invoiceDate)
	require.NoError(t, err)
	assert.Equal(t, billing.MethodBankTransfer, withoutMandate.PaymentMethod)
}

func TestGenerateInvoice_CustomOverridesWin(t *testing.T) {
	// GIVEN: A member-level override of amount (60.00) and interval (monthly)
	//        on an annual 120.00 plan
	// WHEN: Generating the invoice
	// THEN: The override amount and the monthly period apply

	member := testMember(false)
	def := annualDefinition(120)
	custom := decimal.NewFromInt(60)
	monthly := billing.IntervalMonthly
	contribution := billing.MemberContribution{
		ID:             "contrib-1",
		MemberID:       member.ID,
		DefinitionID:   def.ID,
		CustomAmount:   &custom,
		CustomInterval: &monthly,
		StartDate:      billing.NewDate(2025, time.January, 1),
	}

	draft, err := billing.GenerateInvoiceFromContribution(
		member, contribution, def, billing.NewDate(2025, time.January, 1))
	require.NoError(t, err)

	assert.True(t, draft.TotalAmount.Equal(custom))
	assert.Equal(t, "2025-01-31", draft.PeriodEnd.String())
}

func TestGenerateInvoice_DraftCarriesNoNumber(t *testing.T) {
	// Invoice numbers come from the store sequence, never the generator.
	member := testMember(false)
	def := annualDefinition(120)
	contribution := billing.MemberContribution{ID: "contrib-1", DefinitionID: def.ID}

	draft, err := billing.GenerateInvoiceFromContribution(
		member, contribution, def, billing.NewDate(2025, time.January, 1))
	require.NoError(t, err)

	// InvoiceDraft has no number field at all; spot-check the zero
	// invoice built from it is distinguishable from a persisted one.
	inv := billing.ContributionInvoice{TotalAmount: draft.TotalAmount, PaidAmount: decimal.Zero}
	assert.Empty(t, inv.InvoiceNumber)
	assert.True(t, inv.Outstanding().Equal(draft.TotalAmount))
}
