package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// ListProducts lists the company's products with optional search. Passing
// low_stock=true keeps only products at or below their restock threshold.
// @Summary List products
// @Tags catalog
// @Security BearerAuth
// @Success 200 {array} models.Product
// @Router /v1/products [get]
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	limit, offset := pagination(r)

	products, err := h.storage.ListProducts(r.Context(), companyID, r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	if r.URL.Query().Get("low_stock") == "true" {
		filtered := make([]models.Product, 0, len(products))
		for _, p := range products {
			if p.LowStock() {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	respondJSON(w, http.StatusOK, products)
}

// CreateProduct adds a product to the catalog.
// @Summary Create product
// @Tags catalog
// @Security BearerAuth
// @Success 201 {object} models.Product
// @Router /v1/products [post]
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	var input models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Name == "" {
		respondError(w, http.StatusBadRequest, "Name required")
		return
	}
	if input.PriceCents < 0 || input.CostCents < 0 {
		respondError(w, http.StatusBadRequest, "Prices cannot be negative")
		return
	}

	product, err := h.storage.CreateProduct(r.Context(), companyID, input)
	if err != nil {
		if errors.Is(err, storage.ErrSKUTaken) {
			respondError(w, http.StatusConflict, "SKU already in use")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.invalidateStorefront(r, companyID)
	respondJSON(w, http.StatusCreated, product)
}

// GetProduct returns one product.
// @Summary Get product
// @Tags catalog
// @Security BearerAuth
// @Success 200 {object} models.Product
// @Router /v1/products/{id} [get]
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	product, err := h.storage.GetProduct(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// UpdateProduct replaces a product's fields.
// @Summary Update product
// @Tags catalog
// @Security BearerAuth
// @Success 200 {object} models.Product
// @Router /v1/products/{id} [put]
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	var input models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.storage.UpdateProduct(r.Context(), companyID, chi.URLParam(r, "id"), input)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, storage.ErrSKUTaken):
			respondError(w, http.StatusConflict, "SKU already in use")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	h.invalidateStorefront(r, companyID)
	respondJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product.
// @Summary Delete product
// @Tags catalog
// @Security BearerAuth
// @Success 204
// @Router /v1/products/{id} [delete]
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	if err := h.storage.DeleteProduct(r.Context(), companyID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	h.invalidateStorefront(r, companyID)
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

// AdjustStock applies a stock delta (positive restock, negative sale).
// @Summary Adjust product stock
// @Tags catalog
// @Security BearerAuth
// @Success 200 {object} models.Product
// @Router /v1/products/{id}/stock [post]
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	productID := chi.URLParam(r, "id")

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "Non-zero delta required")
		return
	}

	if err := h.storage.AdjustStock(r.Context(), companyID, productID, req.Delta); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to adjust stock")
		return
	}

	product, err := h.storage.GetProduct(r.Context(), companyID, productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// ListCategories lists the company's categories.
// @Summary List categories
// @Tags catalog
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Router /v1/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	categories, err := h.storage.ListCategories(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	respondJSON(w, http.StatusOK, categories)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory adds a category.
// @Summary Create category
// @Tags catalog
// @Security BearerAuth
// @Success 201 {object} models.Category
// @Router /v1/categories [post]
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name required")
		return
	}

	category, err := h.storage.CreateCategory(r.Context(), companyID, req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

// DeleteCategory removes a category; products keep a null category.
// @Summary Delete category
// @Tags catalog
// @Security BearerAuth
// @Success 204
// @Router /v1/categories/{id} [delete]
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	if err := h.storage.DeleteCategory(r.Context(), companyID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			respondError(w, http.StatusNotFound, "Category not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// invalidateStorefront drops the public catalog cache after a change.
func (h *Handler) invalidateStorefront(r *http.Request, companyID string) {
	company, err := h.storage.GetCompany(r.Context(), companyID)
	if err != nil {
		return
	}
	_ = h.cache.InvalidateCatalog(company.Slug)
}
