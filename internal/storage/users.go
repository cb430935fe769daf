package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, company_id, name, email, role, password_hash, active, created_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, company_id, name, email, role, password_hash, active, created_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (s *Storage) CreateUser(ctx context.Context, companyID string, input models.CreateUserInput, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, company_id, name, email, role, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, company_id, name, email, role, password_hash, active, created_at
	`

	var user models.User
	err := s.db.QueryRowxContext(ctx, query,
		uuid.New().String(), companyID, input.Name, input.Email, input.Role, passwordHash).
		StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &user, nil
}

func (s *Storage) ListCompanyUsers(ctx context.Context, companyID string) ([]models.User, error) {
	query := `
		SELECT id, company_id, name, email, role, password_hash, active, created_at
		FROM users
		WHERE company_id = $1
		ORDER BY created_at
	`

	users := make([]models.User, 0)
	if err := s.db.SelectContext(ctx, &users, query, companyID); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Storage) CountCompanyUsers(ctx context.Context, companyID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE company_id = $1 AND active`, companyID)
	return count, err
}

func (s *Storage) SetUserActive(ctx context.Context, companyID, userID string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET active = $1 WHERE id = $2 AND company_id = $3`,
		active, userID, companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindCompanyAdmin returns the highest-ranked active user of a company, used
// by superadmin impersonation.
func (s *Storage) FindCompanyAdmin(ctx context.Context, companyID string) (*models.User, error) {
	query := `
		SELECT id, company_id, name, email, role, password_hash, active, created_at
		FROM users
		WHERE company_id = $1 AND active AND role = $2
		ORDER BY created_at
		LIMIT 1
	`

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, companyID, models.RoleAdmin); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
