package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

func TestComputeStateNilSubscription(t *testing.T) {
	got := ComputeState(nil, time.Now())
	assert.Equal(t, StatusNone, got.Status)
	assert.True(t, got.HasAccess)
	assert.Equal(t, WarnNone, got.Warning)
}

func TestComputeStateTrialWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		Status:    models.SubscriptionTrial,
		StartedAt: start,
	}

	cases := []struct {
		name      string
		now       time.Time
		status    string
		hasAccess bool
		warning   string
		remaining int
	}{
		{"first day", start.Add(1 * time.Hour), StatusTrial, true, WarnNone, 3},
		{"second day", start.Add(25 * time.Hour), StatusTrial, true, WarnExpiring, 2},
		{"last hour", start.Add(3*24*time.Hour - time.Hour), StatusTrial, true, WarnExpiring, 1},
		{"exactly at end", start.Add(3 * 24 * time.Hour), StatusExpired, false, WarnExpired, 0},
		{"after end", start.Add(4 * 24 * time.Hour), StatusExpired, false, WarnExpired, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeState(sub, tc.now)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.hasAccess, got.HasAccess)
			assert.Equal(t, tc.warning, got.Warning)
			assert.Equal(t, tc.remaining, got.RemainingDays)
		})
	}
}

func TestComputeStateTrialDaysZeroUsesDefault(t *testing.T) {
	// Rows created by the payments consumer carry trial_days = 0; the
	// default window must apply instead of expiring them at started_at.
	start := time.Now().Add(-time.Hour)
	sub := &models.Subscription{
		Status:    models.SubscriptionTrial,
		StartedAt: start,
	}

	got := ComputeState(sub, time.Now())
	require.Equal(t, StatusTrial, got.Status)
	assert.True(t, got.HasAccess)
	assert.Equal(t, start.Add(3*24*time.Hour), TrialEnd(sub))
}

func TestComputeStateTrialUsesLaterStoredEnd(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	storedEnd := start.Add(10 * 24 * time.Hour)
	sub := &models.Subscription{
		Status:    models.SubscriptionTrial,
		StartedAt: start,
		EndsAt:    &storedEnd,
	}

	// Past the computed 3-day end but before the stored end: still in trial.
	got := ComputeState(sub, start.Add(5*24*time.Hour))
	assert.Equal(t, StatusTrial, got.Status)
	assert.True(t, got.HasAccess)
	assert.Equal(t, WarnNone, got.Warning)
	assert.Equal(t, 5, got.RemainingDays)

	got = ComputeState(sub, storedEnd.Add(time.Minute))
	assert.Equal(t, StatusExpired, got.Status)
	assert.False(t, got.HasAccess)
}

func TestComputeStateTrialPlanOverride(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		Status:    models.SubscriptionTrial,
		TrialDays: 14,
		StartedAt: start,
	}

	got := ComputeState(sub, start.Add(7*24*time.Hour))
	require.Equal(t, StatusTrial, got.Status)
	assert.Equal(t, 7, got.RemainingDays)
	assert.Equal(t, WarnNone, got.Warning)
}

func TestComputeStateActive(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)
	sub := &models.Subscription{
		Status:    models.SubscriptionActive,
		StartedAt: start,
		EndsAt:    &end,
	}

	got := ComputeState(sub, start.Add(10*24*time.Hour))
	assert.Equal(t, StatusActive, got.Status)
	assert.True(t, got.HasAccess)
	assert.Equal(t, 20, got.RemainingDays)
	assert.Equal(t, WarnNone, got.Warning)

	got = ComputeState(sub, end.Add(-24*time.Hour))
	assert.Equal(t, WarnExpiring, got.Warning)

	got = ComputeState(sub, end)
	assert.Equal(t, StatusExpired, got.Status)
	assert.False(t, got.HasAccess)
}

func TestComputeStateActiveWithoutEndNeverExpires(t *testing.T) {
	sub := &models.Subscription{
		Status:    models.SubscriptionActive,
		StartedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	got := ComputeState(sub, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, StatusActive, got.Status)
	assert.True(t, got.HasAccess)
}

func TestComputeStateCanceledKeepsPaidPeriod(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)
	sub := &models.Subscription{
		Status:    models.SubscriptionCanceled,
		StartedAt: start,
		EndsAt:    &end,
	}

	got := ComputeState(sub, start.Add(15*24*time.Hour))
	assert.Equal(t, StatusActive, got.Status)
	assert.True(t, got.HasAccess)

	got = ComputeState(sub, end.Add(time.Hour))
	assert.Equal(t, StatusExpired, got.Status)
	assert.False(t, got.HasAccess)
}

func TestComputeStateExpiredAndUnknownStatuses(t *testing.T) {
	for _, status := range []string{models.SubscriptionExpired, "suspended", ""} {
		sub := &models.Subscription{Status: status, StartedAt: time.Now()}
		got := ComputeState(sub, time.Now())
		assert.Equal(t, StatusExpired, got.Status, "status %q", status)
		assert.False(t, got.HasAccess)
		assert.Equal(t, WarnExpired, got.Warning)
	}
}

func TestTrialEnd(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sub := &models.Subscription{Status: models.SubscriptionTrial, StartedAt: start}
	assert.Equal(t, start.Add(3*24*time.Hour), TrialEnd(sub))

	sub.TrialDays = 7
	assert.Equal(t, start.Add(7*24*time.Hour), TrialEnd(sub))

	stored := start.Add(30 * 24 * time.Hour)
	sub.EndsAt = &stored
	assert.Equal(t, stored, TrialEnd(sub))
}
