package subscription

import (
	"math"
	"time"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

const (
	// DefaultTrialDays applies when neither the subscription nor its plan
	// carries an explicit trial length.
	DefaultTrialDays = 3

	// WarningThresholdDays triggers the renewal warning banner.
	WarningThresholdDays = 2
)

// Derived lifecycle statuses. StatusNone means the company has no
// subscription row yet; access is granted so onboarding can finish.
const (
	StatusNone    = "none"
	StatusTrial   = "trial"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Warning levels surfaced to the UI.
const (
	WarnNone     = "none"
	WarnExpiring = "expiring"
	WarnExpired  = "expired"
)

type State struct {
	Status        string     `json:"status"`
	HasAccess     bool       `json:"has_access"`
	RemainingDays int        `json:"remaining_days"`
	Warning       string     `json:"warning"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
}

// ComputeState derives the effective subscription state at the given instant.
// Trial access ends at the later of the stored ends_at and started_at plus
// the trial length. Active subscriptions without an ends_at never expire
// (manual/comped accounts).
func ComputeState(sub *models.Subscription, now time.Time) State {
	if sub == nil {
		return State{Status: StatusNone, HasAccess: true, Warning: WarnNone}
	}

	switch sub.Status {
	case models.SubscriptionTrial:
		end := trialEnd(sub)
		return stateFromDeadline(StatusTrial, end, now)

	case models.SubscriptionActive:
		if sub.EndsAt == nil {
			return State{Status: StatusActive, HasAccess: true, Warning: WarnNone}
		}
		return stateFromDeadline(StatusActive, *sub.EndsAt, now)

	case models.SubscriptionCanceled:
		// Canceled keeps access until the paid period runs out.
		if sub.EndsAt != nil && now.Before(*sub.EndsAt) {
			return stateFromDeadline(StatusActive, *sub.EndsAt, now)
		}
		return expiredState(sub.EndsAt)

	case models.SubscriptionExpired:
		return expiredState(sub.EndsAt)

	default:
		return expiredState(sub.EndsAt)
	}
}

// TrialEnd exposes the trial deadline for the expiry worker.
func TrialEnd(sub *models.Subscription) time.Time {
	return trialEnd(sub)
}

func trialEnd(sub *models.Subscription) time.Time {
	days := sub.TrialDays
	if days <= 0 {
		days = DefaultTrialDays
	}
	end := sub.StartedAt.Add(time.Duration(days) * 24 * time.Hour)
	if sub.EndsAt != nil && sub.EndsAt.After(end) {
		end = *sub.EndsAt
	}
	return end
}

func stateFromDeadline(status string, end time.Time, now time.Time) State {
	if !now.Before(end) {
		return expiredState(&end)
	}

	// Partial days count as a full remaining day, so the expiring warning
	// only fires once at most WarningThresholdDays whole days are left.
	remaining := int(math.Ceil(end.Sub(now).Hours() / 24))
	warning := WarnNone
	if remaining <= WarningThresholdDays {
		warning = WarnExpiring
	}

	endCopy := end
	return State{
		Status:        status,
		HasAccess:     true,
		RemainingDays: remaining,
		Warning:       warning,
		EndsAt:        &endCopy,
	}
}

func expiredState(endsAt *time.Time) State {
	return State{
		Status:    StatusExpired,
		HasAccess: false,
		Warning:   WarnExpired,
		EndsAt:    endsAt,
	}
}
