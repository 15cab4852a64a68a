package types

import (
	"time"

	ierr "github.com/openams/openams/internal/errors"
)

// AddBillingPeriod advances a date by one billing interval, anchored to the
// anniversary of the given date. It leverages month-end clamping so that
// Jan 31 + 1 month lands on the last day of February, never March 3.
func AddBillingPeriod(start time.Time, period BillingPeriod) (time.Time, error) {
	months := period.Months()
	if months == 0 {
		return start, ierr.NewError("invalid billing period").
			WithHintf("cannot advance date by billing period %q", period).
			Mark(ierr.ErrValidation)
	}
	return AddClampedDate(start, 0, months, 0), nil
}

// AddClampedDate adds years/months/days to a date, clamping the day-of-month
// to the last valid day of the resulting month. This differs from
// time.AddDate, which normalizes Jan 31 + 1 month to March 3.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// If we move beyond December, it adjusts correctly,
	// for example adding 2 months to November lands on January next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d + days
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}

// CalendarPeriodEnd returns the fixed calendar boundary that closes the
// billing period containing the given date. Calendar-anchored plans expire
// on these boundaries regardless of the purchase date: an annual membership
// bought on Nov 15 is paid through Dec 31 of the same year.
func CalendarPeriodEnd(t time.Time, period BillingPeriod) (time.Time, error) {
	y := t.Year()
	loc := t.Location()

	switch period {
	case BILLING_PERIOD_ANNUAL:
		return time.Date(y, time.December, 31, 0, 0, 0, 0, loc), nil
	case BILLING_PERIOD_HALF_YEAR:
		if t.Month() <= time.June {
			return time.Date(y, time.June, 30, 0, 0, 0, 0, loc), nil
		}
		return time.Date(y, time.December, 31, 0, 0, 0, 0, loc), nil
	case BILLING_PERIOD_QUARTER:
		quarterEndMonth := ((int(t.Month())-1)/3)*3 + 3
		return endOfMonth(y, time.Month(quarterEndMonth), loc), nil
	case BILLING_PERIOD_MONTHLY:
		return endOfMonth(y, t.Month(), loc), nil
	default:
		return t, ierr.NewError("invalid billing period").
			WithHintf("cannot compute calendar boundary for billing period %q", period).
			Mark(ierr.ErrValidation)
	}
}

// NextCalendarPeriodEnd returns the calendar boundary closing the period that
// starts the day after the given boundary date. Used by renewal planning:
// a membership paid through Dec 31 renews through Dec 31 of the next year.
func NextCalendarPeriodEnd(paidThrough time.Time, period BillingPeriod) (time.Time, error) {
	return CalendarPeriodEnd(paidThrough.AddDate(0, 0, 1), period)
}

func endOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	return firstOfNext.AddDate(0, 0, -1)
}

// DaysBetweenInclusive counts calendar days from start through end, counting
// both endpoints. Returns 0 when end precedes start.
func DaysBetweenInclusive(start, end time.Time) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if endDay.Before(startDay) {
		return 0
	}
	return int(endDay.Sub(startDay).Hours()/24) + 1
}

// DaysUntil counts whole calendar days from `from` until `until`, negative
// when `until` is in the past.
func DaysUntil(from, until time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	untilDay := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)
	return int(untilDay.Sub(fromDay).Hours() / 24)
}
