package lifecycle

import (
	"testing"
	"time"

	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeActiveBeforePaidThrough(t *testing.T) {
	policy := PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 90}
	paidThrough := day(2024, time.January, 1)

	result, err := Compute(&paidThrough, policy, day(2023, time.December, 15), types.SubscriptionStateActive)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStateActive, result.Stage)
	assert.False(t, result.PendingSuspension)
	assert.False(t, result.PendingTermination)
}

func TestComputeGraceStage(t *testing.T) {
	// grace=30, suspend=60, terminate=90; paid through Jan 1: the grace
	// window ends Jan 31, Jan 20 sits inside it with 10 days to go.
	policy := PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 90}
	paidThrough := day(2024, time.January, 1)

	result, err := Compute(&paidThrough, policy, day(2024, time.January, 20), types.SubscriptionStateActive)
	require.NoError(t, err)

	assert.Equal(t, types.SubscriptionStateGrace, result.Stage)
	require.NotNil(t, result.GraceEnd)
	assert.Equal(t, day(2024, time.January, 31), *result.GraceEnd)
	require.NotNil(t, result.SuspendEnd)
	assert.Equal(t, day(2024, time.March, 31), *result.SuspendEnd)
	require.NotNil(t, result.TerminateDate)
	assert.Equal(t, day(2024, time.March, 31), *result.TerminateDate)

	assert.Equal(t, 10, result.DaysUntilSuspension)
	assert.Equal(t, 19, result.DaysInGrace)
	assert.False(t, result.PendingSuspension)
}

func TestComputePendingSuspensionPastGraceEnd(t *testing.T) {
	policy := PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 90}
	paidThrough := day(2024, time.January, 1)

	result, err := Compute(&paidThrough, policy, day(2024, time.February, 5), types.SubscriptionStateActive)
	require.NoError(t, err)

	assert.Equal(t, types.SubscriptionStateGrace, result.Stage)
	assert.True(t, result.PendingSuspension)
}

func TestComputeSuspendedPastSuspendEnd(t *testing.T) {
	policy := PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 120}
	paidThrough := day(2024, time.January, 1)

	// Inside the suspension window nothing is pending yet
	result, err := Compute(&paidThrough, policy, day(2024, time.March, 1), types.SubscriptionStateSuspended)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStateSuspended, result.Stage)
	assert.False(t, result.PendingTermination)

	// Past the suspend end the termination scan should pick it up
	result, err = Compute(&paidThrough, policy, day(2024, time.April, 2), types.SubscriptionStateSuspended)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStateSuspended, result.Stage)
	assert.True(t, result.PendingTermination)
}

func TestComputeTerminateOffsetIndependentOfSuspendEnd(t *testing.T) {
	// Inconsistent overrides can place the terminate date before the
	// suspension end; the offsets stay independent.
	policy := PeriodPolicy{GraceDays: 10, SuspendDays: 60, TerminateDays: 20}
	paidThrough := day(2024, time.January, 1)

	result, err := Compute(&paidThrough, policy, day(2024, time.January, 5), types.SubscriptionStateActive)
	require.NoError(t, err)

	require.NotNil(t, result.TerminateDate)
	require.NotNil(t, result.SuspendEnd)
	assert.Equal(t, day(2024, time.January, 21), *result.TerminateDate)
	assert.Equal(t, day(2024, time.March, 11), *result.SuspendEnd)
	assert.True(t, result.TerminateDate.Before(*result.SuspendEnd))
	assert.True(t, policy.TerminatesBeforeSuspensionEnds())
}

func TestComputeNilPaidThrough(t *testing.T) {
	policy := PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 90}

	result, err := Compute(nil, policy, day(2024, time.January, 20), types.SubscriptionStateActive)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStateActive, result.Stage)
	assert.Nil(t, result.GraceEnd)
	assert.Nil(t, result.SuspendEnd)
	assert.Nil(t, result.TerminateDate)
}

func TestComputeTerminalStates(t *testing.T) {
	policy := PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 90}
	paidThrough := day(2024, time.January, 1)

	for _, state := range []types.SubscriptionState{
		types.SubscriptionStateCancelled,
		types.SubscriptionStateExpired,
		types.SubscriptionStateTerminated,
	} {
		result, err := Compute(&paidThrough, policy, day(2024, time.June, 1), state)
		require.NoError(t, err)
		assert.Equal(t, types.SubscriptionStateTerminated, result.Stage, "state %s", state)
		assert.False(t, result.PendingSuspension)
		assert.False(t, result.PendingTermination)
	}
}

func TestComputeRejectsInvalidPolicy(t *testing.T) {
	paidThrough := day(2024, time.January, 1)

	_, err := Compute(&paidThrough, PeriodPolicy{GraceDays: -1, SuspendDays: 60, TerminateDays: 90}, day(2024, time.January, 20), types.SubscriptionStateActive)
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))

	_, err = Compute(&paidThrough, PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 20}, day(2024, time.January, 20), types.SubscriptionStateActive)
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))
}

func TestResolvePrecedence(t *testing.T) {
	defaults := PeriodPolicy{GraceDays: 30, SuspendDays: 60, TerminateDays: 90}

	// No overrides: defaults pass through
	assert.Equal(t, defaults, Resolve(defaults, 0, 0, 0))

	// Positive overrides win field by field
	resolved := Resolve(defaults, 15, 0, 120)
	assert.Equal(t, PeriodPolicy{GraceDays: 15, SuspendDays: 60, TerminateDays: 120}, resolved)

	// Negative overrides are ignored, not applied
	resolved = Resolve(defaults, -5, -5, -5)
	assert.Equal(t, defaults, resolved)
}
