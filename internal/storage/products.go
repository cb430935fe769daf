package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrSKUTaken         = errors.New("sku already in use")
)

const productColumns = `
	id, company_id, category_id, name, description, sku, barcode, price_cents,
	cost_cents, unit, stock, min_stock, active, created_at, updated_at
`

func (s *Storage) CreateProduct(ctx context.Context, companyID string, input models.ProductInput) (*models.Product, error) {
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	query := `
		INSERT INTO products (id, company_id, category_id, name, description, sku, barcode,
			price_cents, cost_cents, unit, stock, min_stock, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING` + productColumns

	var product models.Product
	err := s.db.QueryRowxContext(ctx, query,
		uuid.New().String(), companyID, input.CategoryID, input.Name, input.Description,
		input.SKU, input.Barcode, input.PriceCents, input.CostCents, input.Unit,
		input.Stock, input.MinStock, active).
		StructScan(&product)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSKUTaken
		}
		return nil, err
	}
	return &product, nil
}

func (s *Storage) GetProduct(ctx context.Context, companyID, id string) (*models.Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM products
		WHERE id = $1 AND company_id = $2
	`

	var product models.Product
	if err := s.db.GetContext(ctx, &product, query, id, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Storage) UpdateProduct(ctx context.Context, companyID, id string, input models.ProductInput) (*models.Product, error) {
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	query := `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, sku = $4, barcode = $5,
			price_cents = $6, cost_cents = $7, unit = $8, stock = $9, min_stock = $10,
			active = $11, updated_at = NOW()
		WHERE id = $12 AND company_id = $13
		RETURNING` + productColumns

	var product models.Product
	err := s.db.QueryRowxContext(ctx, query,
		input.CategoryID, input.Name, input.Description, input.SKU, input.Barcode,
		input.PriceCents, input.CostCents, input.Unit, input.Stock, input.MinStock,
		active, id, companyID).
		StructScan(&product)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSKUTaken
		}
		return nil, err
	}
	return &product, nil
}

func (s *Storage) DeleteProduct(ctx context.Context, companyID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *Storage) ListProducts(ctx context.Context, companyID, search string, limit, offset int) ([]models.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT` + productColumns + `
		FROM products
		WHERE company_id = $1
			AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR sku ILIKE '%' || $2 || '%' OR barcode = $2)
		ORDER BY name
		LIMIT $3 OFFSET $4
	`

	products := make([]models.Product, 0)
	if err := s.db.SelectContext(ctx, &products, query, companyID, search, limit, offset); err != nil {
		return nil, err
	}
	return products, nil
}

// ListActiveProducts returns the public storefront catalog for a company.
func (s *Storage) ListActiveProducts(ctx context.Context, companyID string) ([]models.Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM products
		WHERE company_id = $1 AND active
		ORDER BY name
	`

	products := make([]models.Product, 0)
	if err := s.db.SelectContext(ctx, &products, query, companyID); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Storage) CountProducts(ctx context.Context, companyID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM products WHERE company_id = $1`, companyID)
	return count, err
}

func (s *Storage) AdjustStock(ctx context.Context, companyID, productID string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3
	`, delta, productID, companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *Storage) CreateCategory(ctx context.Context, companyID, name string) (*models.Category, error) {
	query := `
		INSERT INTO categories (id, company_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, name, created_at
	`

	var category models.Category
	err := s.db.QueryRowxContext(ctx, query, uuid.New().String(), companyID, name).
		StructScan(&category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Storage) ListCategories(ctx context.Context, companyID string) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	err := s.db.SelectContext(ctx, &categories, `
		SELECT id, company_id, name, created_at
		FROM categories
		WHERE company_id = $1
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Storage) DeleteCategory(ctx context.Context, companyID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
