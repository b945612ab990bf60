package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vereinwerk/billing-engine/billing"
)

func openInvoice(due billing.Date, reminderLevel int) billing.ContributionInvoice {
	return billing.ContributionInvoice{
		ID:            "inv-1",
		InvoiceNumber: "RE-000001",
		MemberID:      "member-1",
		DueDate:       due,
		TotalAmount:   decimal.NewFromInt(120),
		PaidAmount:    decimal.Zero,
		Currency:      "EUR",
		PaymentStatus: billing.PaymentPending,
		ReminderLevel: reminderLevel,
	}
}

// =============================================================================
// OVERDUE STATE
// =============================================================================

func TestIsInvoiceOverdue(t *testing.T) {
	due := billing.NewDate(2025, time.January, 1)
	inv := openInvoice(due, 0)

	assert.False(t, billing.IsInvoiceOverdue(inv, due), "not overdue on the due date itself")
	assert.True(t, billing.IsInvoiceOverdue(inv, due.AddDays(1)))

	paid := inv
	paid.PaymentStatus = billing.PaymentPaid
	assert.False(t, billing.IsInvoiceOverdue(paid, due.AddDays(100)), "paid invoices are never overdue")

	cancelled := inv
	cancelled.PaymentStatus = billing.PaymentCancelled
	assert.False(t, billing.IsInvoiceOverdue(cancelled, due.AddDays(100)))
}

func TestDaysOverdue(t *testing.T) {
	due := billing.NewDate(2025, time.January, 1)
	inv := openInvoice(due, 0)

	assert.Equal(t, 0, billing.DaysOverdue(inv, due))
	assert.Equal(t, 24, billing.DaysOverdue(inv, billing.NewDate(2025, time.January, 25)))
}

// =============================================================================
// ESCALATION LADDER
// =============================================================================

func TestDetermineReminderLevel_Thresholds(t *testing.T) {
	cases := []struct {
		days int
		want int
	}{
		{0, 0}, {6, 0},
		{7, 1}, {20, 1},
		{21, 2}, {34, 2},
		{35, 3}, {365, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, billing.DetermineReminderLevel(tc.days), "days=%d", tc.days)
	}
}

func TestReminderFee_PerLevel(t *testing.T) {
	assert.Equal(t, "5", billing.ReminderFee(1).String())
	assert.Equal(t, "10", billing.ReminderFee(2).String())
	assert.Equal(t, "15", billing.ReminderFee(3).String())
	assert.True(t, billing.ReminderFee(0).IsZero())
	assert.True(t, billing.ReminderFee(4).IsZero())
}

func TestShouldSendReminder_EscalatesOverTime(t *testing.T) {
	// GIVEN: An invoice due 2025-01-01, never reminded
	// WHEN: Checking 24 days past due
	// THEN: Level 2 fires directly (level 1 was skipped, the ladder
	//       jumps to whatever the elapsed time demands)

	inv := openInvoice(billing.NewDate(2025, time.January, 1), 0)

	decision := billing.ShouldSendReminder(inv, billing.NewDate(2025, time.January, 25))
	assert.True(t, decision.Send)
	assert.Equal(t, 2, decision.Level)
}

func TestShouldSendReminder_Idempotent(t *testing.T) {
	// GIVEN: The level 2 reminder has already been recorded
	// WHEN: Re-running the sweep on the same day
	// THEN: Nothing fires until the level 3 threshold is reached

	inv := openInvoice(billing.NewDate(2025, time.January, 1), 2)
	jan25 := billing.NewDate(2025, time.January, 25)

	assert.False(t, billing.ShouldSendReminder(inv, jan25).Send)

	// 35 days past due escalates to the final level
	feb5 := billing.NewDate(2025, time.February, 5)
	decision := billing.ShouldSendReminder(inv, feb5)
	assert.True(t, decision.Send)
	assert.Equal(t, 3, decision.Level)

	// Terminal level never fires again
	inv.ReminderLevel = 3
	assert.False(t, billing.ShouldSendReminder(inv, feb5.AddDays(100)).Send)
}

func TestShouldSendReminder_NotYetOverdue(t *testing.T) {
	inv := openInvoice(billing.NewDate(2025, time.January, 1), 0)

	// 6 days past due is below the first threshold
	assert.False(t, billing.ShouldSendReminder(inv, billing.NewDate(2025, time.January, 7)).Send)
	// 7 days fires level 1
	assert.True(t, billing.ShouldSendReminder(inv, billing.NewDate(2025, time.January, 8)).Send)
}

// =============================================================================
// REMINDER GENERATION
// =============================================================================

func TestGenerateReminder_AmountsAndDeadline(t *testing.T) {
	// GIVEN: An invoice with 70.00 outstanding (120 total, 50 paid)
	// WHEN: Generating a level 2 reminder on 2025-01-25
	// THEN: Total is outstanding + 10.00 fee, deadline is 7 days out

	inv := openInvoice(billing.NewDate(2025, time.January, 1), 1)
	inv.PaidAmount = decimal.NewFromInt(50)
	member := testMember(false)

	draft, err := billing.GenerateReminder(inv, member, 2, billing.NewDate(2025, time.January, 25))
	require.NoError(t, err)

	assert.Equal(t, inv.ID, draft.InvoiceID)
	assert.Equal(t, 2, draft.Level)
	assert.Equal(t, "70", draft.OriginalAmount.String())
	assert.Equal(t, "10", draft.ReminderFee.String())
	assert.Equal(t, "80", draft.TotalAmount.String())
	assert.Equal(t, "2025-02-01", draft.PaymentDeadline.String())
	assert.Contains(t, draft.Description, "Zweite Mahnung")
	assert.Contains(t, draft.Description, inv.InvoiceNumber)
}

func TestGenerateReminder_DeliveryChannel(t *testing.T) {
	inv := openInvoice(billing.NewDate(2025, time.January, 1), 0)
	today := billing.NewDate(2025, time.January, 10)

	withEmail := testMember(false)
	draft, err := billing.GenerateReminder(inv, withEmail, 1, today)
	require.NoError(t, err)
	assert.Equal(t, billing.SendViaEmail, draft.SentVia)

	withoutEmail := testMember(false)
	withoutEmail.Email = ""
	draft, err = billing.GenerateReminder(inv, withoutEmail, 1, today)
	require.NoError(t, err)
	assert.Equal(t, billing.SendViaPost, draft.SentVia)
}

func TestGenerateReminder_InvalidLevel_Rejected(t *testing.T) {
	inv := openInvoice(billing.NewDate(2025, time.January, 1), 0)
	member := testMember(false)
	today := billing.NewDate(2025, time.January, 10)

	for _, level := range []int{0, 4, -1} {
		_, err := billing.GenerateReminder(inv, member, level, today)
		assert.ErrorIs(t, err, billing.ErrInvalidReminderLevel, "level=%d", level)
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

func TestCalculateMembershipStatistics(t *testing.T) {
	// GIVEN: One paid (120), one pending (100), one overdue with a
	//        partial payment (120 total, 40 paid)
	// WHEN: Aggregating as of 2025-02-01
	// THEN: Paid counts full total, open ones count outstanding only

	today := billing.NewDate(2025, time.February, 1)

	paid := openInvoice(billing.NewDate(2025, time.January, 1), 0)
	paid.PaymentStatus = billing.PaymentPaid
	paid.PaidAmount = paid.TotalAmount

	pending := openInvoice(billing.NewDate(2025, time.February, 15), 0)
	pending.TotalAmount = decimal.NewFromInt(100)

	overdue := openInvoice(billing.NewDate(2025, time.January, 1), 1)
	overdue.PaidAmount = decimal.NewFromInt(40)

	stats := billing.CalculateMembershipStatistics(
		[]billing.ContributionInvoice{paid, pending, overdue}, today)

	assert.Equal(t, 3, stats.InvoiceCount)
	assert.Equal(t, 1, stats.PaidCount)
	assert.Equal(t, 1, stats.OverdueCount)
	assert.Equal(t, "340", stats.TotalRevenue.String())
	assert.Equal(t, "120", stats.PaidRevenue.String())
	assert.Equal(t, "100", stats.PendingRevenue.String())
	assert.Equal(t, "80", stats.OverdueRevenue.String())
}
