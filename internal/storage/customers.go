package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var ErrCustomerNotFound = errors.New("customer not found")

func (s *Storage) CreateCustomer(ctx context.Context, companyID string, input models.CustomerInput) (*models.Customer, error) {
	query := `
		INSERT INTO customers (id, company_id, name, email, phone, document, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, company_id, name, email, phone, document, address, created_at
	`

	var customer models.Customer
	err := s.db.QueryRowxContext(ctx, query,
		uuid.New().String(), companyID, input.Name, input.Email,
		input.Phone, input.Document, input.Address).
		StructScan(&customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Storage) GetCustomer(ctx context.Context, companyID, id string) (*models.Customer, error) {
	query := `
		SELECT id, company_id, name, email, phone, document, address, created_at
		FROM customers
		WHERE id = $1 AND company_id = $2
	`

	var customer models.Customer
	if err := s.db.GetContext(ctx, &customer, query, id, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Storage) UpdateCustomer(ctx context.Context, companyID, id string, input models.CustomerInput) (*models.Customer, error) {
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, document = $4, address = $5
		WHERE id = $6 AND company_id = $7
		RETURNING id, company_id, name, email, phone, document, address, created_at
	`

	var customer models.Customer
	err := s.db.QueryRowxContext(ctx, query,
		input.Name, input.Email, input.Phone, input.Document, input.Address, id, companyID).
		StructScan(&customer)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Storage) DeleteCustomer(ctx context.Context, companyID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM customers WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (s *Storage) ListCustomers(ctx context.Context, companyID, search string, limit, offset int) ([]models.Customer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, company_id, name, email, phone, document, address, created_at
		FROM customers
		WHERE company_id = $1
			AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%' OR document = $2)
		ORDER BY name
		LIMIT $3 OFFSET $4
	`

	customers := make([]models.Customer, 0)
	if err := s.db.SelectContext(ctx, &customers, query, companyID, search, limit, offset); err != nil {
		return nil, err
	}
	return customers, nil
}
