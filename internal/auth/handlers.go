package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/subscription"
)

type Handler struct {
	storage *storage.Storage
	subs    *subscription.Service
}

func NewHandler(store *storage.Storage, subs *subscription.Service) *Handler {
	return &Handler{storage: store, subs: subs}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	CompanyName string `json:"company_name"`
	Slug        string `json:"slug"`
	Document    string `json:"document"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Login authenticates a user and returns a JWT token
// @Summary User login
// @Description Authenticates user with email and password, returns JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Token and user data"
// @Failure 400 {string} string "Invalid request body or missing credentials"
// @Failure 401 {string} string "Invalid credentials"
// @Router /v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password required", http.StatusBadRequest)
		return
	}

	user, err := h.storage.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.Active {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := GenerateToken(user.ID, user.CompanyID, user.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	state, err := h.subs.GetState(r.Context(), user.CompanyID)
	if err != nil {
		http.Error(w, "Failed to load subscription", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token":        token,
		"user":         user,
		"subscription": state,
	})
}

// Signup onboards a new company with its admin user
// @Summary Company signup
// @Description Creates a company, its admin user and a trial subscription
// @Tags auth
// @Accept json
// @Produce json
// @Param signup body signupRequest true "Company and admin data"
// @Success 201 {object} map[string]interface{} "Token, company and user data"
// @Failure 400 {string} string "Invalid request body"
// @Failure 409 {string} string "Slug or email already taken"
// @Router /v1/auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Slug = slugify(req.Slug)
	if req.Slug == "" {
		req.Slug = slugify(req.CompanyName)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.CompanyName == "" || req.Slug == "" || req.Email == "" {
		http.Error(w, "Company name, slug and email required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		http.Error(w, "Password must have at least 6 characters", http.StatusBadRequest)
		return
	}

	company, owner, sub, err := h.storage.OnboardCompany(r.Context(), models.CreateCompanyInput{
		Name:     req.CompanyName,
		Slug:     req.Slug,
		Document: req.Document,
		Phone:    req.Phone,
	}, req.Name, req.Email, req.Password, subscription.DefaultTrialDays)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSlugTaken):
			http.Error(w, "Slug already taken", http.StatusConflict)
		case errors.Is(err, storage.ErrEmailTaken):
			http.Error(w, "Email already in use", http.StatusConflict)
		default:
			http.Error(w, "Failed to create company", http.StatusInternalServerError)
		}
		return
	}

	h.subs.TrackTrial(sub)

	token, err := GenerateToken(owner.ID, company.ID, owner.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"token":        token,
		"company":      company,
		"user":         owner,
		"subscription": subscription.ComputeState(sub, time.Now()),
	})
}

// Logout clears the authentication cookie
// @Summary User logout
// @Description Stateless logout; the client discards the token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool "Success response"
// @Security BearerAuth
// @Router /v1/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

// Me returns the current authenticated user
// @Summary Get current user
// @Description Returns the authenticated user with company and subscription state
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "User data"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "User not found"
// @Security BearerAuth
// @Router /v1/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.storage.GetUser(r.Context(), claims.Subject)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	company, err := h.storage.GetCompany(r.Context(), user.CompanyID)
	if err != nil {
		http.Error(w, "Company not found", http.StatusNotFound)
		return
	}

	state, err := h.subs.GetState(r.Context(), user.CompanyID)
	if err != nil {
		http.Error(w, "Failed to load subscription", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user":         user,
		"company":      company,
		"subscription": state,
		"impersonator": claims.Impersonator,
	})
}

type impersonateRequest struct {
	CompanyID string `json:"company_id"`
}

// Impersonate issues a short-lived token for another company's admin.
// Superadmin only; the original user id is recorded in the token.
func (h *Handler) Impersonate(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req impersonateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CompanyID == "" {
		http.Error(w, "company_id required", http.StatusBadRequest)
		return
	}

	target, err := h.storage.FindCompanyAdmin(r.Context(), req.CompanyID)
	if err != nil {
		http.Error(w, "No admin found for company", http.StatusNotFound)
		return
	}

	token, err := GenerateImpersonationToken(target.ID, target.CompanyID, target.Role, claims.Subject)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token": token,
		"user":  target,
	})
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
