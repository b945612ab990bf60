/*
dunning.go - Overdue state and the reminder escalation ladder

STATE MACHINE:
  current -> overdue (level 0) -> reminded L1 -> reminded L2 -> reminded L3

  The engine holds no state of its own. Every function is a pure
  function of the invoice fields and the reference date, so the sweep
  can be re-run at any time (scheduler, manual trigger, backfill) and
  always reaches the same decision.

ESCALATION POLICY (fixed, not configurable):
  days overdue  < 7    no reminder yet
  [7, 21)              level 1, fee 5.00
  [21, 35)             level 2, fee 10.00
  >= 35                level 3, fee 15.00 (terminal)

  Fees are flat EUR amounts. Multi-currency dunning would need a fee
  table per currency; associations bill in EUR, so the table is not
  parameterized.

CALLER CONTRACT:
  GenerateReminder never mutates the invoice. Persisting the reminder
  and bumping invoice.ReminderLevel must happen atomically in the store
  (store.ApplyReminder), otherwise two concurrent sweeps can send the
  same reminder twice.
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Escalation thresholds in days overdue.
const (
	FirstReminderAfterDays  = 7
	SecondReminderAfterDays = 21
	FinalReminderAfterDays  = 35

	// ReminderPaymentTermDays is the deadline granted by a reminder.
	ReminderPaymentTermDays = 7

	// MaxReminderLevel is the terminal escalation level.
	MaxReminderLevel = 3
)

var reminderFees = map[int]decimal.Decimal{
	1: decimal.NewFromInt(5),
	2: decimal.NewFromInt(10),
	3: decimal.NewFromInt(15),
}

var reminderTitles = map[int]string{
	1: "Erste Zahlungserinnerung",
	2: "Zweite Mahnung",
	3: "Letzte Mahnung vor rechtlichen Schritten",
}

// IsInvoiceOverdue reports whether the invoice is past due as of today.
// Paid and cancelled invoices are never overdue.
func IsInvoiceOverdue(inv ContributionInvoice, today Date) bool {
	if inv.PaymentStatus == PaymentPaid || inv.PaymentStatus == PaymentCancelled {
		return false
	}
	return today.After(inv.DueDate)
}

// DaysOverdue returns how many whole days the invoice is past due,
// or 0 if it is not overdue.
func DaysOverdue(inv ContributionInvoice, today Date) int {
	if !IsInvoiceOverdue(inv, today) {
		return 0
	}
	return today.DaysSince(inv.DueDate)
}

// DetermineReminderLevel maps days overdue to the reminder level that
// should apply. 0 means no reminder yet.
func DetermineReminderLevel(daysOverdue int) int {
	switch {
	case daysOverdue < FirstReminderAfterDays:
		return 0
	case daysOverdue < SecondReminderAfterDays:
		return 1
	case daysOverdue < FinalReminderAfterDays:
		return 2
	default:
		return 3
	}
}

// ReminderFee returns the flat fee for a reminder level. Levels outside
// 1-3 carry no fee.
func ReminderFee(level int) decimal.Decimal {
	if fee, ok := reminderFees[level]; ok {
		return fee
	}
	return decimal.Zero
}

// ReminderDecision is the outcome of ShouldSendReminder.
type ReminderDecision struct {
	Send  bool
	Level int
}

// ShouldSendReminder decides whether a new reminder is due for the
// invoice as of today.
//
// The decision is monotonic and idempotent: once the invoice's
// ReminderLevel has been bumped to the applicable level, re-running the
// sweep at the same elapsed days returns {Send: false}. A level equal
// to or below the recorded one never fires again.
func ShouldSendReminder(inv ContributionInvoice, today Date) ReminderDecision {
	if !IsInvoiceOverdue(inv, today) {
		return ReminderDecision{}
	}

	level := DetermineReminderLevel(DaysOverdue(inv, today))
	if level == 0 || level <= inv.ReminderLevel {
		return ReminderDecision{}
	}
	return ReminderDecision{Send: true, Level: level}
}

// GenerateReminder builds a draft reminder for the invoice at the given
// level. The reminder total is the outstanding invoice amount plus the
// level's fee; the payment deadline is seven days from today. Delivery
// is by email when the member has one, by post otherwise.
//
// The invoice itself is not touched. The caller persists the draft via
// store.ApplyReminder, which also bumps the invoice's reminder level in
// the same transaction.
func GenerateReminder(inv ContributionInvoice, member Member, level int, today Date) (ReminderDraft, error) {
	if level < 1 || level > MaxReminderLevel {
		return ReminderDraft{}, fmt.Errorf("%w: %d", ErrInvalidReminderLevel, level)
	}

	outstanding := inv.Outstanding()
	fee := ReminderFee(level)

	sentVia := SendViaPost
	if member.Email != "" {
		sentVia = SendViaEmail
	}

	return ReminderDraft{
		InvoiceID:       inv.ID,
		MemberID:        member.ID,
		Level:           level,
		ReminderDate:    today,
		OriginalAmount:  outstanding,
		ReminderFee:     fee,
		TotalAmount:     outstanding.Add(fee),
		Currency:        inv.Currency,
		PaymentDeadline: today.AddDays(ReminderPaymentTermDays),
		SentVia:         sentVia,
		Description:     fmt.Sprintf("%s für Rechnung %s", reminderTitles[level], inv.InvoiceNumber),
	}, nil
}
