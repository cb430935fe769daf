package models

import "time"

type Category struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Product struct {
	ID          string    `json:"id" db:"id"`
	CompanyID   string    `json:"company_id" db:"company_id"`
	CategoryID  *string   `json:"category_id,omitempty" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	SKU         string    `json:"sku" db:"sku"`
	Barcode     string    `json:"barcode" db:"barcode"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	CostCents   int64     `json:"cost_cents" db:"cost_cents"`
	Unit        string    `json:"unit" db:"unit"`
	Stock       int       `json:"stock" db:"stock"`
	MinStock    int       `json:"min_stock" db:"min_stock"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// LowStock reports whether the product is at or below its restock threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

type ProductInput struct {
	CategoryID  *string `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	SKU         string  `json:"sku"`
	Barcode     string  `json:"barcode"`
	PriceCents  int64   `json:"price_cents"`
	CostCents   int64   `json:"cost_cents"`
	Unit        string  `json:"unit"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
	Active      *bool   `json:"active"`
}
