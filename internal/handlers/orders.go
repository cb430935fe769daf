package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/barcode"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/bus"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/orders"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

// ListOrders lists the company's orders, optionally filtered by status.
// @Summary List orders
// @Tags orders
// @Security BearerAuth
// @Success 200 {array} models.Order
// @Router /v1/orders [get]
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	limit, offset := pagination(r)

	status := r.URL.Query().Get("status")
	if status != "" && !orders.IsValidStatus(status) {
		respondError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	list, err := h.storage.ListOrders(r.Context(), companyID, status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// CreateOrder creates an order. New orders start as pendente, or orcamento
// when explicitly requested.
// @Summary Create order
// @Tags orders
// @Security BearerAuth
// @Success 201 {object} models.Order
// @Router /v1/orders [post]
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	userID, _ := auth.UserIDFromContext(r.Context())

	var input models.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := input.Status
	switch status {
	case "":
		status = orders.StatusPendente
	case orders.StatusOrcamento, orders.StatusPendente:
	default:
		respondError(w, http.StatusBadRequest, "Orders start as orcamento or pendente")
		return
	}

	order, err := h.storage.CreateOrder(r.Context(), companyID, status, &userID, input)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyOrder) {
			respondError(w, http.StatusBadRequest, "Order needs at least one item")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GetOrder returns one order with its items.
// @Summary Get order
// @Tags orders
// @Security BearerAuth
// @Success 200 {object} models.Order
// @Router /v1/orders/{id} [get]
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	order, err := h.storage.GetOrder(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

type transitionRequest struct {
	Status string `json:"status"`
}

// TransitionOrder moves an order through the production lifecycle. The
// change is conditional on the current status, so two attendants racing on
// the same order cannot double-apply, and the event is published only after
// the database accepted the transition.
// @Summary Transition order status
// @Tags orders
// @Security BearerAuth
// @Success 200 {object} models.Order
// @Failure 409 {string} string "Order changed concurrently"
// @Router /v1/orders/{id}/status [post]
func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	claims, _ := auth.ClaimsFromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		respondError(w, http.StatusBadRequest, "status required")
		return
	}

	order, err := h.storage.GetOrder(r.Context(), companyID, orderID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := orders.Validate(order.Status, req.Status, claims.Role); err != nil {
		switch {
		case errors.Is(err, orders.ErrUnknownStatus):
			respondError(w, http.StatusBadRequest, "Unknown status")
		case errors.Is(err, orders.ErrReactivationForbidden):
			respondError(w, http.StatusForbidden, "Only admins can reactivate canceled orders")
		default:
			respondError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("Cannot move order from %s to %s", order.Status, req.Status))
		}
		return
	}

	updated, err := h.storage.TransitionOrderStatus(r.Context(), companyID, orderID, order.Status, req.Status)
	if err != nil {
		if errors.Is(err, storage.ErrOrderConflict) {
			respondError(w, http.StatusConflict, "Order changed concurrently, reload and retry")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	h.publishOrderEvent(order, updated, claims.Subject)

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) publishOrderEvent(before, after *models.Order, actorID string) {
	event := models.OrderEvent{
		V:          1,
		TS:         time.Now().UnixMilli(),
		CompanyID:  after.CompanyID,
		OrderID:    after.ID,
		Number:     after.Number,
		FromStatus: before.Status,
		ToStatus:   after.Status,
		ActorID:    actorID,
		TotalCents: after.TotalCents,
	}

	payload, err := msgpack.Marshal(&event)
	if err != nil {
		log.Printf("ERROR Marshal order event: %v", err)
		return
	}

	if _, err := h.js.Publish(bus.OrderSubject(after.CompanyID), payload); err != nil {
		log.Printf("ERROR Publish order event for %s: %v", after.ID, err)
	}
}

// OrderBarcode returns the order's Code 128 barcode as module widths so
// the POS client can render the label locally.
// @Summary Get order barcode
// @Tags orders
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /v1/orders/{id}/barcode [get]
func (h *Handler) OrderBarcode(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	order, err := h.storage.GetOrder(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	code := fmt.Sprintf("PED-%08d", order.Number)
	symbol, err := barcode.Encode(code)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode barcode")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"code":    code,
		"widths":  symbol.Widths(),
		"modules": symbol.Modules(),
	})
}

// OrdersSummary returns today's order count and revenue for the dashboard.
// @Summary Orders summary
// @Tags orders
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /v1/orders/summary [get]
func (h *Handler) OrdersSummary(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, revenue, err := h.storage.CountOrdersSince(r.Context(), companyID, dayStart)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load summary")
		return
	}

	products, err := h.storage.CountProducts(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load summary")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"orders_today":        count,
		"revenue_today_cents": revenue,
		"products":            products,
	})
}
