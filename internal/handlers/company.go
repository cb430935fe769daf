package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

// GetCompany returns the caller's company.
// @Summary Get company
// @Tags company
// @Security BearerAuth
// @Success 200 {object} models.Company
// @Router /v1/company [get]
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	company, err := h.storage.GetCompany(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Company not found")
		return
	}

	respondJSON(w, http.StatusOK, company)
}

// UpdateCompany updates company profile fields. Admin only.
// @Summary Update company
// @Tags company
// @Security BearerAuth
// @Success 200 {object} models.Company
// @Router /v1/company [put]
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	var input models.UpdateCompanyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	company, err := h.storage.UpdateCompany(r.Context(), companyID, input)
	if err != nil {
		if errors.Is(err, storage.ErrCompanyNotFound) {
			respondError(w, http.StatusNotFound, "Company not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update company")
		return
	}

	respondJSON(w, http.StatusOK, company)
}

// ListCompanyUsers lists the company's users. Admin only.
// @Summary List company users
// @Tags company
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /v1/company/users [get]
func (h *Handler) ListCompanyUsers(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	users, err := h.storage.ListCompanyUsers(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// CreateCompanyUser adds a user to the company. Admins may not mint roles
// above their own.
// @Summary Create company user
// @Tags company
// @Security BearerAuth
// @Success 201 {object} models.User
// @Router /v1/company/users [post]
func (h *Handler) CreateCompanyUser(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	claims, _ := auth.ClaimsFromContext(r.Context())

	var input models.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" {
		respondError(w, http.StatusBadRequest, "Name and email required")
		return
	}
	if len(input.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must have at least 6 characters")
		return
	}

	if input.Role == "" {
		input.Role = models.RoleAtendente
	}
	if models.RoleRank(input.Role) == 0 || models.RoleRank(input.Role) > models.RoleRank(claims.Role) {
		respondError(w, http.StatusForbidden, "Cannot assign this role")
		return
	}

	ok, err := h.canAddUser(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check user limit")
		return
	}
	if !ok {
		respondError(w, http.StatusUnprocessableEntity, "Plan user limit reached")
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user, err := h.storage.CreateUser(r.Context(), companyID, input, hash)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			respondError(w, http.StatusConflict, "Email already in use")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// canAddUser enforces the plan's max_users against the company's active
// users. Companies without a plan (trial, manual) are unlimited.
func (h *Handler) canAddUser(ctx context.Context, companyID string) (bool, error) {
	sub, err := h.storage.GetCompanySubscription(ctx, companyID)
	if err != nil {
		return false, err
	}
	if sub == nil || sub.PlanID == "" {
		return true, nil
	}

	plan, err := h.storage.GetPlan(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			return true, nil
		}
		return false, err
	}

	count, err := h.storage.CountCompanyUsers(ctx, companyID)
	if err != nil {
		return false, err
	}
	return withinUserLimit(plan, count), nil
}

func withinUserLimit(plan *models.Plan, activeUsers int) bool {
	return plan.MaxUsers <= 0 || activeUsers < plan.MaxUsers
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetUserActive activates or deactivates a company user. Admin only.
// @Summary Set user active flag
// @Tags company
// @Security BearerAuth
// @Success 204
// @Router /v1/company/users/{id}/active [patch]
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	userID := chi.URLParam(r, "id")

	callerID, _ := auth.UserIDFromContext(r.Context())
	if userID == callerID {
		respondError(w, http.StatusBadRequest, "Cannot change own active flag")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.storage.SetUserActive(r.Context(), companyID, userID, req.Active); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
