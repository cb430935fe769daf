package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

const subscriptionColumns = `
	id, company_id, COALESCE(plan_id, '') AS plan_id, status, provider, provider_ref,
	trial_days, started_at, ends_at, canceled_at, created_at, updated_at
`

func (s *Storage) CreateSubscription(ctx context.Context, companyID, planID, provider, providerRef string, trialDays int) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (id, company_id, plan_id, status, provider, provider_ref, trial_days, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING` + subscriptionColumns

	var sub models.Subscription
	err := s.db.QueryRowxContext(ctx, query,
		uuid.New().String(), companyID, nullIfEmpty(planID),
		models.SubscriptionTrial, provider, providerRef, trialDays).
		StructScan(&sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetCompanySubscription returns the most recent subscription for a company,
// or nil when the company has none.
func (s *Storage) GetCompanySubscription(ctx context.Context, companyID string) (*models.Subscription, error) {
	query := `
		SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var sub models.Subscription
	if err := s.db.GetContext(ctx, &sub, query, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Storage) GetSubscriptionByProviderRef(ctx context.Context, provider, providerRef string) (*models.Subscription, error) {
	query := `
		SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE provider = $1 AND provider_ref = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var sub models.Subscription
	if err := s.db.GetContext(ctx, &sub, query, provider, providerRef); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Storage) ActivateSubscription(ctx context.Context, id string, endsAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $1, ends_at = $2, updated_at = NOW()
		WHERE id = $3
	`, models.SubscriptionActive, endsAt, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *Storage) CancelSubscription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $1, canceled_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, models.SubscriptionCanceled, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *Storage) ExpireSubscription(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $1
	`, models.SubscriptionExpired, id)
	return err
}

// ExpireOverdue marks overdue subscriptions as expired, returning the
// affected company ids. A trial lasts until the later of its stored ends_at
// and started_at + trial_days, where trial_days <= 0 falls back to the same
// 3-day default the state derivation uses; canceled subscriptions keep
// access until ends_at. Used by the reconciler worker.
func (s *Storage) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE subscriptions
		SET status = $1, updated_at = NOW()
		WHERE (status = $2 AND GREATEST(
				COALESCE(ends_at, started_at),
				started_at + make_interval(days => GREATEST(trial_days, 3))
			) < $4)
		   OR (status = $3 AND ends_at IS NOT NULL AND ends_at < $4)
		RETURNING company_id
	`, models.SubscriptionExpired, models.SubscriptionTrial, models.SubscriptionCanceled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companyIDs := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		companyIDs = append(companyIDs, id)
	}
	return companyIDs, rows.Err()
}
