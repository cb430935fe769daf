package models

import "time"

type Order struct {
	ID            string      `json:"id" db:"id"`
	CompanyID     string      `json:"company_id" db:"company_id"`
	CustomerID    *string     `json:"customer_id,omitempty" db:"customer_id"`
	Number        int64       `json:"number" db:"number"`
	Status        string      `json:"status" db:"status"`
	Items         []OrderItem `json:"items" db:"-"`
	DiscountCents int64       `json:"discount_cents" db:"discount_cents"`
	TotalCents    int64       `json:"total_cents" db:"total_cents"`
	DeliveryDate  *time.Time  `json:"delivery_date,omitempty" db:"delivery_date"`
	Notes         string      `json:"notes" db:"notes"`
	CreatedBy     *string     `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

type OrderItem struct {
	ID             string  `json:"id" db:"id"`
	OrderID        string  `json:"order_id" db:"order_id"`
	ProductID      *string `json:"product_id,omitempty" db:"product_id"`
	Description    string  `json:"description" db:"description"`
	Quantity       int     `json:"quantity" db:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents" db:"unit_price_cents"`
	TotalCents     int64   `json:"total_cents" db:"total_cents"`
}

type OrderItemInput struct {
	ProductID      *string `json:"product_id"`
	Description    string  `json:"description"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
}

type CreateOrderInput struct {
	CustomerID    *string          `json:"customer_id"`
	Status        string           `json:"status"`
	Items         []OrderItemInput `json:"items"`
	DiscountCents int64            `json:"discount_cents"`
	DeliveryDate  *time.Time       `json:"delivery_date"`
	Notes         string           `json:"notes"`
}
