package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderConflict = errors.New("order was modified concurrently")
	ErrEmptyOrder    = errors.New("order has no items")
)

const orderColumns = `
	id, company_id, customer_id, number, status, discount_cents, total_cents,
	delivery_date, notes, created_by, created_at, updated_at
`

// CreateOrder inserts the order and its items in one transaction, assigning
// the next per-company order number.
func (s *Storage) CreateOrder(ctx context.Context, companyID, status string, createdBy *string, input models.CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	var total int64
	for _, it := range input.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineTotal := int64(qty) * it.UnitPriceCents
		total += lineTotal
		items = append(items, models.OrderItem{
			ID:             uuid.New().String(),
			ProductID:      it.ProductID,
			Description:    it.Description,
			Quantity:       qty,
			UnitPriceCents: it.UnitPriceCents,
			TotalCents:     lineTotal,
		})
	}
	total -= input.DiscountCents
	if total < 0 {
		total = 0
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var number int64
	if err := tx.GetContext(ctx, &number, `
		SELECT COALESCE(MAX(number), 0) + 1
		FROM orders
		WHERE company_id = $1
	`, companyID); err != nil {
		return nil, err
	}

	var order models.Order
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO orders (id, company_id, customer_id, number, status, discount_cents,
			total_cents, delivery_date, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING`+orderColumns, uuid.New().String(), companyID, input.CustomerID, number,
		status, input.DiscountCents, total, input.DeliveryDate, input.Notes, createdBy).
		StructScan(&order)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, description, quantity, unit_price_cents, total_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, items[i].ID, items[i].OrderID, items[i].ProductID, items[i].Description,
			items[i].Quantity, items[i].UnitPriceCents, items[i].TotalCents)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Items = items
	return &order, nil
}

func (s *Storage) GetOrder(ctx context.Context, companyID, id string) (*models.Order, error) {
	query := `
		SELECT` + orderColumns + `
		FROM orders
		WHERE id = $1 AND company_id = $2
	`

	var order models.Order
	if err := s.db.GetContext(ctx, &order, query, id, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := s.getOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (s *Storage) getOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0)
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, order_id, product_id, description, quantity, unit_price_cents, total_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Storage) ListOrders(ctx context.Context, companyID, status string, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT` + orderColumns + `
		FROM orders
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY number DESC
		LIMIT $3 OFFSET $4
	`

	orders := make([]models.Order, 0)
	if err := s.db.SelectContext(ctx, &orders, query, companyID, status, limit, offset); err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionOrderStatus updates the status only when the stored status still
// matches from; a concurrent transition surfaces as ErrOrderConflict.
func (s *Storage) TransitionOrderStatus(ctx context.Context, companyID, id, from, to string) (*models.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3 AND status = $4
		RETURNING` + orderColumns

	var order models.Order
	err := s.db.QueryRowxContext(ctx, query, to, id, companyID, from).StructScan(&order)
	if err == sql.ErrNoRows {
		if _, getErr := s.GetOrder(ctx, companyID, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrOrderConflict
	}
	if err != nil {
		return nil, err
	}

	items, err := s.getOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// CountOrdersSince supports the dashboard summary.
func (s *Storage) CountOrdersSince(ctx context.Context, companyID string, since time.Time) (int, int64, error) {
	var row struct {
		Count int   `db:"count"`
		Total int64 `db:"total"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS count, COALESCE(SUM(total_cents), 0) AS total
		FROM orders
		WHERE company_id = $1 AND created_at >= $2 AND status <> 'cancelado'
	`, companyID, since)
	if err != nil {
		return 0, 0, err
	}
	return row.Count, row.Total, nil
}
