package billing

// =============================================================================
// DUE DATE / BILLING PERIOD CALCULATION
// =============================================================================

// NextDueDate returns the start of the next billing cycle for the given
// interval. One-time contributions have no next cycle and return the
// start date unchanged.
func NextDueDate(start Date, interval RecurrenceInterval) (Date, error) {
	switch interval {
	case IntervalMonthly:
		return start.AddMonths(1), nil
	case IntervalQuarterly:
		return start.AddMonths(3), nil
	case IntervalSemiAnnual:
		return start.AddMonths(6), nil
	case IntervalAnnual:
		return start.AddYears(1), nil
	case IntervalOneTime:
		return start, nil
	default:
		return Date{}, &InvalidIntervalError{Interval: interval}
	}
}

// InvoicePeriod returns the billing period starting at start. The
// period ends one day before the next due date, so consecutive periods
// tile without gap or overlap:
//
//	period(N).End.AddDays(1) == period(N+1).Start
//
// For one_time the period collapses (End is the day before Start);
// callers treat a one-off contribution as a single billing event, not a
// date range.
func InvoicePeriod(start Date, interval RecurrenceInterval) (Period, error) {
	next, err := NextDueDate(start, interval)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: start, End: next.AddDays(-1)}, nil
}
