package billing

import "github.com/shopspring/decimal"

// MembershipStatistics aggregates revenue figures over a set of
// invoices, as of the given day.
type MembershipStatistics struct {
	TotalRevenue   decimal.Decimal
	PaidRevenue    decimal.Decimal
	PendingRevenue decimal.Decimal
	OverdueRevenue decimal.Decimal
	InvoiceCount   int
	PaidCount      int
	OverdueCount   int
}

// CalculateMembershipStatistics walks the invoices once. Paid invoices
// count with their full total; open and overdue invoices count with the
// outstanding remainder only, so partial payments are not double
// counted.
func CalculateMembershipStatistics(invoices []ContributionInvoice, today Date) MembershipStatistics {
	stats := MembershipStatistics{
		TotalRevenue:   decimal.Zero,
		PaidRevenue:    decimal.Zero,
		PendingRevenue: decimal.Zero,
		OverdueRevenue: decimal.Zero,
	}

	for _, inv := range invoices {
		stats.TotalRevenue = stats.TotalRevenue.Add(inv.TotalAmount)
		stats.InvoiceCount++

		switch {
		case inv.PaymentStatus == PaymentPaid:
			stats.PaidRevenue = stats.PaidRevenue.Add(inv.TotalAmount)
			stats.PaidCount++
		case IsInvoiceOverdue(inv, today):
			stats.OverdueRevenue = stats.OverdueRevenue.Add(inv.Outstanding())
			stats.OverdueCount++
		default:
			stats.PendingRevenue = stats.PendingRevenue.Add(inv.Outstanding())
		}
	}

	return stats
}
