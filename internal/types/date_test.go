package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestAddClampedDate(t *testing.T) {
	testCases := []struct {
		name     string
		start    time.Time
		years    int
		months   int
		days     int
		expected time.Time
	}{
		{
			name:     "jan 31 plus one month clamps to feb 29 in a leap year",
			start:    d(2024, time.January, 31),
			months:   1,
			expected: d(2024, time.February, 29),
		},
		{
			name:     "jan 31 plus one month clamps to feb 28 otherwise",
			start:    d(2025, time.January, 31),
			months:   1,
			expected: d(2025, time.February, 28),
		},
		{
			name:     "mid-month dates are unaffected",
			start:    d(2024, time.March, 15),
			months:   1,
			expected: d(2024, time.April, 15),
		},
		{
			name:     "november plus two months wraps the year",
			start:    d(2024, time.November, 30),
			months:   2,
			expected: d(2025, time.January, 30),
		},
		{
			name:     "aug 31 plus one month clamps to sep 30",
			start:    d(2024, time.August, 31),
			months:   1,
			expected: d(2024, time.September, 30),
		},
		{
			name:     "year increment keeps feb 29 clamped",
			start:    d(2024, time.February, 29),
			years:    1,
			expected: d(2025, time.February, 28),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := AddClampedDate(tc.start, tc.years, tc.months, tc.days)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestAddBillingPeriod(t *testing.T) {
	got, err := AddBillingPeriod(d(2024, time.January, 31), BILLING_PERIOD_MONTHLY)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.February, 29), got)

	got, err = AddBillingPeriod(d(2024, time.November, 15), BILLING_PERIOD_ANNUAL)
	require.NoError(t, err)
	assert.Equal(t, d(2025, time.November, 15), got)

	got, err = AddBillingPeriod(d(2024, time.January, 10), BILLING_PERIOD_QUARTER)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.April, 10), got)

	_, err = AddBillingPeriod(d(2024, time.January, 10), BillingPeriod("WEEKLY"))
	require.Error(t, err)
}

func TestCalendarPeriodEnd(t *testing.T) {
	// An annual calendar-anchored purchase on Nov 15 is paid through Dec 31
	// of the same year, not the following Nov 14.
	got, err := CalendarPeriodEnd(d(2024, time.November, 15), BILLING_PERIOD_ANNUAL)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.December, 31), got)

	got, err = CalendarPeriodEnd(d(2024, time.March, 2), BILLING_PERIOD_HALF_YEAR)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.June, 30), got)

	got, err = CalendarPeriodEnd(d(2024, time.August, 20), BILLING_PERIOD_HALF_YEAR)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.December, 31), got)

	got, err = CalendarPeriodEnd(d(2024, time.May, 10), BILLING_PERIOD_QUARTER)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.June, 30), got)

	got, err = CalendarPeriodEnd(d(2024, time.February, 10), BILLING_PERIOD_MONTHLY)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.February, 29), got)

	_, err = CalendarPeriodEnd(d(2024, time.February, 10), BillingPeriod("WEEKLY"))
	require.Error(t, err)
}

func TestNextCalendarPeriodEnd(t *testing.T) {
	// Paid through a boundary renews through the next boundary
	got, err := NextCalendarPeriodEnd(d(2024, time.December, 31), BILLING_PERIOD_ANNUAL)
	require.NoError(t, err)
	assert.Equal(t, d(2025, time.December, 31), got)

	got, err = NextCalendarPeriodEnd(d(2024, time.June, 30), BILLING_PERIOD_QUARTER)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.September, 30), got)

	got, err = NextCalendarPeriodEnd(d(2024, time.January, 31), BILLING_PERIOD_MONTHLY)
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.February, 29), got)
}

func TestDaysBetweenInclusive(t *testing.T) {
	assert.Equal(t, 30, DaysBetweenInclusive(d(2025, time.June, 1), d(2025, time.June, 30)))
	assert.Equal(t, 1, DaysBetweenInclusive(d(2025, time.June, 1), d(2025, time.June, 1)))
	assert.Equal(t, 0, DaysBetweenInclusive(d(2025, time.June, 2), d(2025, time.June, 1)))
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 11, DaysUntil(d(2024, time.January, 20), d(2024, time.January, 31)))
	assert.Equal(t, 0, DaysUntil(d(2024, time.January, 20), d(2024, time.January, 20)))
	assert.Equal(t, -5, DaysUntil(d(2024, time.January, 20), d(2024, time.January, 15)))
}
