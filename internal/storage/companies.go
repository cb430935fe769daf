package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrSlugTaken       = errors.New("company slug already taken")
)

func (s *Storage) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	query := `
		SELECT id, name, slug, document, phone, address, logo_url, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	var company models.Company
	if err := s.db.GetContext(ctx, &company, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	return &company, nil
}

func (s *Storage) GetCompanyBySlug(ctx context.Context, slug string) (*models.Company, error) {
	query := `
		SELECT id, name, slug, document, phone, address, logo_url, created_at, updated_at
		FROM companies
		WHERE slug = $1
	`

	var company models.Company
	if err := s.db.GetContext(ctx, &company, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	return &company, nil
}

func (s *Storage) UpdateCompany(ctx context.Context, id string, input models.UpdateCompanyInput) (*models.Company, error) {
	query := `
		UPDATE companies
		SET name = $1, phone = $2, address = $3, logo_url = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING id, name, slug, document, phone, address, logo_url, created_at, updated_at
	`

	var company models.Company
	err := s.db.QueryRowxContext(ctx, query,
		input.Name, input.Phone, input.Address, input.LogoURL, id).
		StructScan(&company)
	if err == sql.ErrNoRows {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}

	return &company, nil
}

// OnboardCompany creates a company, its owner profile and the trial
// subscription in a single transaction.
func (s *Storage) OnboardCompany(ctx context.Context, input models.CreateCompanyInput, ownerName, ownerEmail, ownerPassword string, trialDays int) (*models.Company, *models.User, *models.Subscription, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(ownerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tx.Rollback()

	var company models.Company
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO companies (id, name, slug, document, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, slug, document, phone, address, logo_url, created_at, updated_at
	`, uuid.New().String(), input.Name, input.Slug, input.Document, input.Phone).StructScan(&company)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, nil, ErrSlugTaken
		}
		return nil, nil, nil, err
	}

	var owner models.User
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO users (id, company_id, name, email, role, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, company_id, name, email, role, password_hash, active, created_at
	`, uuid.New().String(), company.ID, ownerName, ownerEmail, models.RoleAdmin, string(hash)).StructScan(&owner)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, nil, ErrEmailTaken
		}
		return nil, nil, nil, err
	}

	now := time.Now()
	endsAt := now.Add(time.Duration(trialDays) * 24 * time.Hour)
	var sub models.Subscription
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (id, company_id, plan_id, status, provider, provider_ref, trial_days, started_at, ends_at)
		VALUES ($1, $2, NULL, $3, $4, '', $5, $6, $7)
		RETURNING id, company_id, COALESCE(plan_id, '') AS plan_id, status, provider, provider_ref,
			trial_days, started_at, ends_at, canceled_at, created_at, updated_at
	`, uuid.New().String(), company.ID, models.SubscriptionTrial, models.ProviderManual, trialDays, now, endsAt).StructScan(&sub)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, err
	}

	return &company, &owner, &sub, nil
}
