package terminals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/middleware"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

const defaultJWTExpiry = 365 * 24 * time.Hour

type Config struct {
	NATSURLs []string
}

// Store is the slice of the storage layer the terminal handlers touch.
type Store interface {
	CreateRegistrationToken(ctx context.Context, companyID, userID string, input models.CreateRegistrationTokenInput) (*models.CreateRegistrationTokenResponse, error)
	ListRegistrationTokens(ctx context.Context, companyID string) ([]models.RegistrationToken, error)
	RevokeRegistrationToken(ctx context.Context, companyID, tokenID string) error
	ValidateRegistrationToken(ctx context.Context, token, remoteIP string) (*models.RegistrationToken, error)
	IncrementRegistrationTokenUsage(ctx context.Context, tokenID string) error
	CreateTerminal(ctx context.Context, terminal *models.Terminal) error
	GetTerminal(ctx context.Context, companyID, terminalID string) (*models.Terminal, error)
	ListTerminals(ctx context.Context, companyID string) ([]models.Terminal, error)
	DeleteTerminal(ctx context.Context, companyID, terminalID string) error
	StoreTerminalCredentials(ctx context.Context, terminalID, publicKey string, expiresAt time.Time) error
}

type Handler struct {
	storage Store
	issuer  *JWTIssuer
	config  Config
}

func NewHandler(store Store, issuer *JWTIssuer, cfg Config) *Handler {
	return &Handler{storage: store, issuer: issuer, config: cfg}
}

type credentialsResponse struct {
	CredsContent string    `json:"creds_content"`
	NKeySeed     string    `json:"nkey_seed"`
	JWT          string    `json:"jwt"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateRegistrationToken mints an enrollment token for the caller's
// company. The plaintext token appears once, only in this response.
// @Summary Create terminal registration token
// @Tags terminals
// @Security BearerAuth
// @Success 201 {object} models.CreateRegistrationTokenResponse
// @Router /v1/terminals/tokens [post]
func (h *Handler) CreateRegistrationToken(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	userID, _ := auth.UserIDFromContext(r.Context())

	var input models.CreateRegistrationTokenInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.storage.CreateRegistrationToken(r.Context(), companyID, userID, input)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// ListRegistrationTokens lists the company's tokens (prefixes only).
// @Summary List terminal registration tokens
// @Tags terminals
// @Security BearerAuth
// @Success 200 {array} models.RegistrationToken
// @Router /v1/terminals/tokens [get]
func (h *Handler) ListRegistrationTokens(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	tokens, err := h.storage.ListRegistrationTokens(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list tokens")
		return
	}

	respondJSON(w, http.StatusOK, tokens)
}

// RevokeRegistrationToken revokes a token by id.
// @Summary Revoke terminal registration token
// @Tags terminals
// @Security BearerAuth
// @Success 204
// @Router /v1/terminals/tokens/{id} [delete]
func (h *Handler) RevokeRegistrationToken(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	tokenID := chi.URLParam(r, "id")

	if err := h.storage.RevokeRegistrationToken(r.Context(), companyID, tokenID); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			respondError(w, http.StatusNotFound, "Token not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to revoke token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Enroll registers a POS terminal: it validates the registration token,
// verifies the terminal's NKey proof of possession and issues scoped NATS
// credentials.
// @Summary Enroll POS terminal
// @Tags terminals
// @Param request body models.EnrollTerminalRequest true "Enrollment request"
// @Success 201 {object} models.EnrollTerminalResponse
// @Router /v1/terminals/enroll [post]
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		respondError(w, http.StatusInternalServerError, "NATS JWT issuer not configured")
		return
	}

	var req models.EnrollTerminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.PublicKey = strings.TrimSpace(req.PublicKey)
	req.Nonce = strings.TrimSpace(req.Nonce)
	req.Signature = strings.TrimSpace(req.Signature)

	token := strings.TrimSpace(r.Header.Get("X-Registration-Token"))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Missing registration token")
		return
	}

	if req.Name == "" || req.PublicKey == "" || req.Nonce == "" || req.Timestamp == 0 || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if !VerifyNKeySignature(req.PublicKey, req.Nonce, req.Timestamp, req.Signature) {
		respondError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}
	if !isTimestampFresh(req.Timestamp, 5*time.Minute) {
		respondError(w, http.StatusUnauthorized, "Timestamp expired")
		return
	}

	remoteIP := middleware.ClientIP(r)
	rt, err := h.storage.ValidateRegistrationToken(r.Context(), token, remoteIP)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTokenNotFound):
			respondError(w, http.StatusUnauthorized, "Invalid token")
		case errors.Is(err, storage.ErrTokenRevoked):
			respondError(w, http.StatusUnauthorized, "Token revoked")
		case errors.Is(err, storage.ErrTokenExpired):
			respondError(w, http.StatusUnauthorized, "Token expired")
		case errors.Is(err, storage.ErrTokenUsageLimitReached):
			respondError(w, http.StatusUnauthorized, "Token usage limit reached")
		case errors.Is(err, storage.ErrTokenIPNotAllowed):
			respondError(w, http.StatusUnauthorized, "Token ip not allowed")
		default:
			respondError(w, http.StatusInternalServerError, "Token validation failed")
		}
		return
	}

	terminal := &models.Terminal{
		ID:         uuid.New().String(),
		TerminalID: uuid.New().String()[:12],
		CompanyID:  rt.CompanyID,
		Name:       req.Name,
		Status:     "online",
	}
	if err := h.storage.CreateTerminal(r.Context(), terminal); err != nil {
		respondError(w, http.StatusInternalServerError, "Enrollment failed")
		return
	}

	if err := h.storage.IncrementRegistrationTokenUsage(r.Context(), rt.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update token usage")
		return
	}

	jwtToken, expiresAt, err := h.issuer.IssueTerminalJWT(terminal.TerminalID, rt.CompanyID, req.PublicKey, defaultJWTExpiry)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue JWT")
		return
	}

	if err := h.storage.StoreTerminalCredentials(r.Context(), terminal.TerminalID, req.PublicKey, expiresAt); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store credentials")
		return
	}

	respondJSON(w, http.StatusCreated, models.EnrollTerminalResponse{
		TerminalID: terminal.TerminalID,
		CompanyID:  rt.CompanyID,
		JWT:        jwtToken,
		NATSURLs:   h.config.NATSURLs,
		ExpiresAt:  expiresAt.Format(time.RFC3339),
	})
}

// RotateCredentials mints a fresh NKey user keypair and JWT for an enrolled
// terminal. The previous credentials are revoked in the same transaction
// that stores the new ones, so the old .creds stop working immediately.
// @Summary Rotate terminal credentials
// @Tags terminals
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "New credentials"
// @Failure 404 {object} map[string]interface{} "Terminal not found"
// @Router /v1/terminals/{id}/rotate [post]
func (h *Handler) RotateCredentials(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		respondError(w, http.StatusInternalServerError, "NATS JWT issuer not configured")
		return
	}

	companyID, _ := auth.CompanyIDFromContext(r.Context())
	terminalID := chi.URLParam(r, "id")

	terminal, err := h.storage.GetTerminal(r.Context(), companyID, terminalID)
	if err != nil {
		if errors.Is(err, storage.ErrTerminalNotFound) {
			respondError(w, http.StatusNotFound, "Terminal not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load terminal")
		return
	}

	seed, publicKey, err := GenerateUserKeyPair()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate NKey")
		return
	}

	jwtToken, expiresAt, err := h.issuer.IssueTerminalJWT(terminal.TerminalID, companyID, publicKey, defaultJWTExpiry)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue JWT")
		return
	}

	if err := h.storage.StoreTerminalCredentials(r.Context(), terminal.TerminalID, publicKey, expiresAt); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store credentials")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"credentials": credentialsResponse{
			CredsContent: BuildCredsFile(jwtToken, seed),
			NKeySeed:     seed,
			JWT:          jwtToken,
			ExpiresAt:    expiresAt,
		},
		"warning": "Old credentials revoked. Update the terminal immediately.",
	})
}

// ListTerminals lists the company's enrolled terminals.
// @Summary List terminals
// @Tags terminals
// @Security BearerAuth
// @Success 200 {array} models.Terminal
// @Router /v1/terminals [get]
func (h *Handler) ListTerminals(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())

	list, err := h.storage.ListTerminals(r.Context(), companyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list terminals")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// DeleteTerminal removes a terminal from the company.
// @Summary Delete terminal
// @Tags terminals
// @Security BearerAuth
// @Success 204
// @Router /v1/terminals/{id} [delete]
func (h *Handler) DeleteTerminal(w http.ResponseWriter, r *http.Request) {
	companyID, _ := auth.CompanyIDFromContext(r.Context())
	terminalID := chi.URLParam(r, "id")

	if err := h.storage.DeleteTerminal(r.Context(), companyID, terminalID); err != nil {
		if errors.Is(err, storage.ErrTerminalNotFound) {
			respondError(w, http.StatusNotFound, "Terminal not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete terminal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isTimestampFresh(timestampMs int64, maxSkew time.Duration) bool {
	stamp := time.UnixMilli(timestampMs)
	return time.Since(stamp) <= maxSkew && time.Until(stamp) <= maxSkew
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message})
}
