package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

// ListCustomers lists the company's customers with optional search.
// @Summary List customers
// @Tags customers
// @Security BearerAuth
// @Success 200 {array} models.Customer
// @Router /v1/customers [get]
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	limit, offset := pagination(r)

	customers, err := h.storage.ListCustomers(r.Context(), companyID, r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list customers")
		return
	}

	respondJSON(w, http.StatusOK, customers)
}

// CreateCustomer adds a customer.
// @Summary Create customer
// @Tags customers
// @Security BearerAuth
// @Success 201 {object} models.Customer
// @Router /v1/customers [post]
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	var input models.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Name == "" {
		respondError(w, http.StatusBadRequest, "Name required")
		return
	}

	customer, err := h.storage.CreateCustomer(r.Context(), companyID, input)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	respondJSON(w, http.StatusCreated, customer)
}

// GetCustomer returns one customer.
// @Summary Get customer
// @Tags customers
// @Security BearerAuth
// @Success 200 {object} models.Customer
// @Router /v1/customers/{id} [get]
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	customer, err := h.storage.GetCustomer(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// UpdateCustomer replaces a customer's fields.
// @Summary Update customer
// @Tags customers
// @Security BearerAuth
// @Success 200 {object} models.Customer
// @Router /v1/customers/{id} [put]
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	var input models.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.storage.UpdateCustomer(r.Context(), companyID, chi.URLParam(r, "id"), input)
	if err != nil {
		if errors.Is(err, storage.ErrCustomerNotFound) {
			respondError(w, http.StatusNotFound, "Customer not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// DeleteCustomer removes a customer.
// @Summary Delete customer
// @Tags customers
// @Security BearerAuth
// @Success 204
// @Router /v1/customers/{id} [delete]
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	if err := h.storage.DeleteCustomer(r.Context(), companyID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, storage.ErrCustomerNotFound) {
			respondError(w, http.StatusNotFound, "Customer not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
