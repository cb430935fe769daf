package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrPlanNameTaken = errors.New("plan name already taken")
)

func (s *Storage) CreatePlan(ctx context.Context, input models.CreatePlanInput) (*models.Plan, error) {
	features := []byte("{}")
	if input.Features != nil {
		data, err := json.Marshal(input.Features)
		if err != nil {
			return nil, err
		}
		features = data
	}

	query := `
		INSERT INTO plans (id, name, price_cents, "interval", trial_days, max_users, max_products, features, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, true)
		RETURNING id, name, price_cents, "interval", trial_days, max_users, max_products, features, active, created_at
	`

	var plan models.Plan
	err := s.db.QueryRowxContext(ctx, query,
		uuid.New().String(), input.Name, input.PriceCents, input.Interval,
		input.TrialDays, input.MaxUsers, input.MaxProducts, features).
		StructScan(&plan)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPlanNameTaken
		}
		return nil, err
	}

	return &plan, nil
}

func (s *Storage) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	query := `
		SELECT id, name, price_cents, "interval", trial_days, max_users, max_products, features, active, created_at
		FROM plans
		WHERE id = $1
	`

	var plan models.Plan
	if err := s.db.GetContext(ctx, &plan, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (s *Storage) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	query := `
		SELECT id, name, price_cents, "interval", trial_days, max_users, max_products, features, active, created_at
		FROM plans
	`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY price_cents`

	plans := make([]models.Plan, 0)
	if err := s.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Storage) SetPlanActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE plans SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}
