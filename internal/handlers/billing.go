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

// ListPlans lists active plans available for checkout.
// @Summary List plans
// @Tags billing
// @Security BearerAuth
// @Success 200 {array} models.Plan
// @Router /v1/plans [get]
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.storage.ListPlans(r.Context(), true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list plans")
		return
	}

	respondJSON(w, http.StatusOK, plans)
}

// GetSubscription returns the company's derived subscription state.
// @Summary Get subscription state
// @Tags billing
// @Security BearerAuth
// @Success 200 {object} subscription.State
// @Router /v1/subscription [get]
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	state, err := h.subs.GetState(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load subscription")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

type checkoutRequest struct {
	PlanID     string `json:"plan_id"`
	Provider   string `json:"provider"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// CreateCheckout starts a checkout with the chosen payment provider and
// returns the URL the browser should be sent to. The subscription itself is
// activated later by the provider's webhook.
// @Summary Create checkout
// @Tags billing
// @Security BearerAuth
// @Success 201 {object} map[string]string
// @Router /v1/subscriptions [post]
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		respondError(w, http.StatusBadRequest, "plan_id required")
		return
	}

	plan, err := h.storage.GetPlan(r.Context(), req.PlanID)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "Plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load plan")
		return
	}
	if !plan.Active {
		respondError(w, http.StatusUnprocessableEntity, "Plan is not available")
		return
	}

	var checkoutURL string
	switch req.Provider {
	case models.ProviderStripe:
		session, err := h.stripe.CreateCheckoutSession(companyID, plan, req.SuccessURL, req.CancelURL)
		if err != nil {
			respondError(w, http.StatusBadGateway, "Stripe checkout failed")
			return
		}
		checkoutURL = session.URL
	case models.ProviderCakto:
		checkout, err := h.cakto.CreateCheckout(companyID, plan, req.SuccessURL)
		if err != nil {
			respondError(w, http.StatusBadGateway, "Cakto checkout failed")
			return
		}
		checkoutURL = checkout.CheckoutURL
	case models.ProviderYampi:
		checkout, err := h.yampi.CreateCheckout(companyID, plan)
		if err != nil {
			respondError(w, http.StatusBadGateway, "Yampi checkout failed")
			return
		}
		checkoutURL = checkout.URL
	default:
		respondError(w, http.StatusBadRequest, "Unknown provider")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"checkout_url": checkoutURL})
}

// CreatePlan adds a subscription plan. Superadmin only.
// @Summary Create plan
// @Tags billing
// @Security BearerAuth
// @Success 201 {object} models.Plan
// @Router /v1/admin/plans [post]
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var input models.CreatePlanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Name == "" || input.PriceCents < 0 {
		respondError(w, http.StatusBadRequest, "Name and non-negative price required")
		return
	}
	if input.Interval != "monthly" && input.Interval != "yearly" {
		respondError(w, http.StatusBadRequest, "Interval must be monthly or yearly")
		return
	}

	plan, err := h.storage.CreatePlan(r.Context(), input)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNameTaken) {
			respondError(w, http.StatusConflict, "Plan name already in use")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create plan")
		return
	}

	respondJSON(w, http.StatusCreated, plan)
}

// SetPlanActive toggles a plan's availability. Superadmin only.
// @Summary Set plan active flag
// @Tags billing
// @Security BearerAuth
// @Success 204
// @Router /v1/admin/plans/{id}/active [patch]
func (h *Handler) SetPlanActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.storage.SetPlanActive(r.Context(), chi.URLParam(r, "id"), req.Active); err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "Plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
