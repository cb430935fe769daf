package terminals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	natsjwt "github.com/nats-io/jwt/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

type stubStore struct {
	terminal *models.Terminal

	storedTerminalID string
	storedPublicKey  string
	storedExpiresAt  time.Time
	storeCalls       int
}

func (s *stubStore) CreateRegistrationToken(context.Context, string, string, models.CreateRegistrationTokenInput) (*models.CreateRegistrationTokenResponse, error) {
	return nil, nil
}

func (s *stubStore) ListRegistrationTokens(context.Context, string) ([]models.RegistrationToken, error) {
	return nil, nil
}

func (s *stubStore) RevokeRegistrationToken(context.Context, string, string) error { return nil }

func (s *stubStore) ValidateRegistrationToken(context.Context, string, string) (*models.RegistrationToken, error) {
	return nil, storage.ErrTokenNotFound
}

func (s *stubStore) IncrementRegistrationTokenUsage(context.Context, string) error { return nil }

func (s *stubStore) CreateTerminal(context.Context, *models.Terminal) error { return nil }

func (s *stubStore) GetTerminal(_ context.Context, companyID, terminalID string) (*models.Terminal, error) {
	if s.terminal == nil || s.terminal.CompanyID != companyID || s.terminal.TerminalID != terminalID {
		return nil, storage.ErrTerminalNotFound
	}
	return s.terminal, nil
}

func (s *stubStore) ListTerminals(context.Context, string) ([]models.Terminal, error) {
	return nil, nil
}

func (s *stubStore) DeleteTerminal(context.Context, string, string) error { return nil }

func (s *stubStore) StoreTerminalCredentials(_ context.Context, terminalID, publicKey string, expiresAt time.Time) error {
	s.storeCalls++
	s.storedTerminalID = terminalID
	s.storedPublicKey = publicKey
	s.storedExpiresAt = expiresAt
	return nil
}

func newRotateRouter(t *testing.T, h *Handler) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/v1/terminals/{id}/rotate", h.RotateCredentials)
	})
	return r
}

func rotateRequest(t *testing.T, companyID, terminalID string) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("user-1", companyID, models.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/terminals/"+terminalID+"/rotate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRotateCredentialsIssuesNewKeyAndRevokesOld(t *testing.T) {
	t.Setenv("JWT_SECRET", "rotate-test-secret")

	store := &stubStore{terminal: &models.Terminal{
		ID:         "row-1",
		TerminalID: "term-000000a",
		CompanyID:  "comp-1",
		Name:       "Balcão 1",
	}}
	handler := NewHandler(store, newAccountIssuer(t), Config{})

	rec := httptest.NewRecorder()
	newRotateRouter(t, handler).ServeHTTP(rec, rotateRequest(t, "comp-1", "term-000000a"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Credentials struct {
			CredsContent string    `json:"creds_content"`
			NKeySeed     string    `json:"nkey_seed"`
			JWT          string    `json:"jwt"`
			ExpiresAt    time.Time `json:"expires_at"`
		} `json:"credentials"`
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Contains(t, resp.Credentials.CredsContent, "-----BEGIN NATS USER JWT-----")
	assert.Contains(t, resp.Credentials.CredsContent, "-----BEGIN USER NKEY SEED-----")
	assert.NotEmpty(t, resp.Warning)

	claims, err := natsjwt.DecodeUserClaims(resp.Credentials.JWT)
	require.NoError(t, err)
	assert.Contains(t, claims.Permissions.Sub.Allow, "erp.comp-1.orders.>")
	assert.Contains(t, claims.Permissions.Pub.Allow, "$KV.TERMINALS.term-000000a")

	// The new public key replaces the old one; the store revokes prior
	// credential rows in the same transaction.
	require.Equal(t, 1, store.storeCalls)
	assert.Equal(t, "term-000000a", store.storedTerminalID)
	assert.Equal(t, claims.Subject, store.storedPublicKey)
	assert.WithinDuration(t, resp.Credentials.ExpiresAt, store.storedExpiresAt, time.Second)
}

func TestRotateCredentialsUnknownTerminal(t *testing.T) {
	t.Setenv("JWT_SECRET", "rotate-test-secret")

	store := &stubStore{}
	handler := NewHandler(store, newAccountIssuer(t), Config{})

	rec := httptest.NewRecorder()
	newRotateRouter(t, handler).ServeHTTP(rec, rotateRequest(t, "comp-1", "term-missing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, store.storeCalls)
}

func TestRotateCredentialsOtherCompanyTerminal(t *testing.T) {
	t.Setenv("JWT_SECRET", "rotate-test-secret")

	store := &stubStore{terminal: &models.Terminal{
		TerminalID: "term-000000a",
		CompanyID:  "comp-2",
	}}
	handler := NewHandler(store, newAccountIssuer(t), Config{})

	rec := httptest.NewRecorder()
	newRotateRouter(t, handler).ServeHTTP(rec, rotateRequest(t, "comp-1", "term-000000a"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, store.storeCalls)
}

func TestRotateCredentialsWithoutIssuer(t *testing.T) {
	t.Setenv("JWT_SECRET", "rotate-test-secret")

	handler := NewHandler(&stubStore{}, nil, Config{})

	rec := httptest.NewRecorder()
	newRotateRouter(t, handler).ServeHTTP(rec, rotateRequest(t, "comp-1", "term-000000a"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
