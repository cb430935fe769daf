package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/orders"
)

const storefrontCacheTTL = 5 * time.Minute

type storefrontCompany struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	LogoURL string `json:"logo_url"`
}

type storefrontProduct struct {
	ID          string  `json:"id"`
	CategoryID  *string `json:"category_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	Unit        string  `json:"unit"`
}

// GetStorefront returns the public profile of a shop.
// @Summary Public storefront
// @Tags storefront
// @Success 200 {object} handlers.storefrontCompany
// @Router /store/{slug} [get]
func (h *Handler) GetStorefront(w http.ResponseWriter, r *http.Request) {
	company, err := h.storage.GetCompanyBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Store not found")
		return
	}

	respondJSON(w, http.StatusOK, storefrontCompany{
		Name:    company.Name,
		Slug:    company.Slug,
		Phone:   company.Phone,
		Address: company.Address,
		LogoURL: company.LogoURL,
	})
}

// GetStorefrontProducts returns the shop's active products. The payload is
// cached in Redis; catalog writes invalidate it.
// @Summary Public storefront catalog
// @Tags storefront
// @Success 200 {array} handlers.storefrontProduct
// @Router /store/{slug}/products [get]
func (h *Handler) GetStorefrontProducts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if cached, err := h.cache.GetCatalog(slug); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	company, err := h.storage.GetCompanyBySlug(r.Context(), slug)
	if err != nil {
		respondError(w, http.StatusNotFound, "Store not found")
		return
	}

	products, err := h.storage.ListActiveProducts(r.Context(), company.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}

	public := make([]storefrontProduct, 0, len(products))
	for _, p := range products {
		public = append(public, storefrontProduct{
			ID:          p.ID,
			CategoryID:  p.CategoryID,
			Name:        p.Name,
			Description: p.Description,
			PriceCents:  p.PriceCents,
			Unit:        p.Unit,
		})
	}

	payload, err := json.Marshal(public)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode catalog")
		return
	}
	if err := h.cache.SetCatalog(slug, payload, storefrontCacheTTL); err != nil {
		log.Printf("WARN Cache catalog for %s: %v", slug, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

type storefrontOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type storefrontOrderRequest struct {
	Customer models.CustomerInput  `json:"customer"`
	Items    []storefrontOrderItem `json:"items"`
	Notes    string                `json:"notes"`
}

// CreateStorefrontOrder creates a quote (orcamento) from the public store.
// Prices always come from the catalog, never from the request.
// @Summary Public storefront order
// @Tags storefront
// @Success 201 {object} map[string]interface{}
// @Router /store/{slug}/orders [post]
func (h *Handler) CreateStorefrontOrder(w http.ResponseWriter, r *http.Request) {
	company, err := h.storage.GetCompanyBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Store not found")
		return
	}

	var req storefrontOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Customer.Name == "" || req.Customer.Phone == "" {
		respondError(w, http.StatusBadRequest, "Customer name and phone required")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "Order needs at least one item")
		return
	}

	items := make([]models.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "Quantities must be positive")
			return
		}
		product, err := h.storage.GetProduct(r.Context(), company.ID, item.ProductID)
		if err != nil || !product.Active {
			respondError(w, http.StatusUnprocessableEntity, "Product not available")
			return
		}
		productID := product.ID
		items = append(items, models.OrderItemInput{
			ProductID:      &productID,
			Description:    product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	customer, err := h.storage.CreateCustomer(r.Context(), company.ID, req.Customer)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record customer")
		return
	}

	order, err := h.storage.CreateOrder(r.Context(), company.ID, orders.StatusOrcamento, nil, models.CreateOrderInput{
		CustomerID: &customer.ID,
		Items:      items,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"order_number": order.Number,
		"status":       order.Status,
		"total_cents":  order.TotalCents,
	})
}
