package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var (
	ErrTokenNotFound          = errors.New("registration token not found")
	ErrTokenRevoked           = errors.New("registration token revoked")
	ErrTokenExpired           = errors.New("registration token expired")
	ErrTokenUsageLimitReached = errors.New("registration token usage limit reached")
	ErrTokenIPNotAllowed      = errors.New("registration token ip not allowed")
	ErrTerminalNotFound       = errors.New("terminal not found")
)

const (
	TokenPrefix       = "gfx_rt_"
	TokenLength       = 32
	tokenPrefixLength = 12
)

type registrationTokenRow struct {
	ID               string
	CompanyID        string
	TokenPrefix      string
	TokenHash        string
	Description      sql.NullString
	AllowedCIDRsJSON []byte
	ExpiresAt        *time.Time
	MaxUses          sql.NullInt64
	UseCount         int
	CreatedBy        sql.NullString
	CreatedAt        time.Time
	LastUsedAt       *time.Time
	RevokedAt        *time.Time
}

func (s *Storage) CreateRegistrationToken(ctx context.Context, companyID, userID string, input models.CreateRegistrationTokenInput) (*models.CreateRegistrationTokenResponse, error) {
	token, prefix, hash, err := GenerateRegistrationToken()
	if err != nil {
		return nil, err
	}

	var allowedCIDRsJSON *string
	if len(input.AllowedCIDRs) > 0 {
		data, err := json.Marshal(input.AllowedCIDRs)
		if err != nil {
			return nil, err
		}
		value := string(data)
		allowedCIDRsJSON = &value
	}

	query := `
		INSERT INTO registration_tokens (
			id, company_id, token_hash, token_prefix, description, allowed_cidrs,
			expires_at, max_uses, use_count, created_by, created_at, last_used_at, revoked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, 0, $9, NOW(), NULL, NULL)
		RETURNING id, company_id, token_prefix, description, allowed_cidrs, expires_at,
			max_uses, use_count, created_by, created_at, last_used_at, revoked_at
	`

	row := registrationTokenRow{}
	err = s.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		companyID,
		hash,
		prefix,
		nullIfEmpty(input.Description),
		allowedCIDRsJSON,
		input.ExpiresAt,
		input.MaxUses,
		nullIfEmpty(userID),
	).Scan(
		&row.ID,
		&row.CompanyID,
		&row.TokenPrefix,
		&row.Description,
		&row.AllowedCIDRsJSON,
		&row.ExpiresAt,
		&row.MaxUses,
		&row.UseCount,
		&row.CreatedBy,
		&row.CreatedAt,
		&row.LastUsedAt,
		&row.RevokedAt,
	)
	if err != nil {
		return nil, err
	}

	rt, err := mapRegistrationTokenRow(row)
	if err != nil {
		return nil, err
	}

	return &models.CreateRegistrationTokenResponse{
		RegistrationToken: rt,
		Token:             token,
	}, nil
}

func (s *Storage) ListRegistrationTokens(ctx context.Context, companyID string) ([]models.RegistrationToken, error) {
	query := `
		SELECT id, company_id, token_prefix, description, allowed_cidrs, expires_at,
			max_uses, use_count, created_by, created_at, last_used_at, revoked_at
		FROM registration_tokens
		WHERE company_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.RegistrationToken, 0)
	for rows.Next() {
		var row registrationTokenRow
		if err := rows.Scan(
			&row.ID,
			&row.CompanyID,
			&row.TokenPrefix,
			&row.Description,
			&row.AllowedCIDRsJSON,
			&row.ExpiresAt,
			&row.MaxUses,
			&row.UseCount,
			&row.CreatedBy,
			&row.CreatedAt,
			&row.LastUsedAt,
			&row.RevokedAt,
		); err != nil {
			return nil, err
		}

		rt, err := mapRegistrationTokenRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ValidateRegistrationToken resolves a presented token by prefix, verifies
// its bcrypt hash and enforces revocation, expiry, usage and CIDR limits.
func (s *Storage) ValidateRegistrationToken(ctx context.Context, token string, remoteIP string) (*models.RegistrationToken, error) {
	if len(token) < tokenPrefixLength {
		return nil, ErrTokenNotFound
	}

	prefix := token[:tokenPrefixLength]
	query := `
		SELECT id, company_id, token_prefix, token_hash, description, allowed_cidrs,
			expires_at, max_uses, use_count, created_by, created_at, last_used_at, revoked_at
		FROM registration_tokens
		WHERE token_prefix = $1
	`

	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row registrationTokenRow
		if err := rows.Scan(
			&row.ID,
			&row.CompanyID,
			&row.TokenPrefix,
			&row.TokenHash,
			&row.Description,
			&row.AllowedCIDRsJSON,
			&row.ExpiresAt,
			&row.MaxUses,
			&row.UseCount,
			&row.CreatedBy,
			&row.CreatedAt,
			&row.LastUsedAt,
			&row.RevokedAt,
		); err != nil {
			return nil, err
		}

		if !ValidateTokenHash(token, row.TokenHash) {
			continue
		}

		if row.RevokedAt != nil {
			return nil, ErrTokenRevoked
		}
		if row.ExpiresAt != nil && row.ExpiresAt.Before(time.Now()) {
			return nil, ErrTokenExpired
		}
		if row.MaxUses.Valid && row.UseCount >= int(row.MaxUses.Int64) {
			return nil, ErrTokenUsageLimitReached
		}

		allowedCIDRs, err := decodeStringArray(row.AllowedCIDRsJSON)
		if err != nil {
			return nil, err
		}
		if len(allowedCIDRs) > 0 && !ipAllowed(remoteIP, allowedCIDRs) {
			return nil, ErrTokenIPNotAllowed
		}

		rt, err := mapRegistrationTokenRow(row)
		if err != nil {
			return nil, err
		}
		return &rt, nil
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nil, ErrTokenNotFound
}

func (s *Storage) IncrementRegistrationTokenUsage(ctx context.Context, tokenID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE registration_tokens
		SET use_count = use_count + 1, last_used_at = NOW()
		WHERE id = $1
	`, tokenID)
	return err
}

func (s *Storage) RevokeRegistrationToken(ctx context.Context, companyID, tokenID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE registration_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND company_id = $2 AND revoked_at IS NULL
	`, tokenID, companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (s *Storage) CreateTerminal(ctx context.Context, terminal *models.Terminal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO terminals (id, terminal_id, company_id, name, status)
		VALUES ($1, $2, $3, $4, $5)
	`, terminal.ID, terminal.TerminalID, terminal.CompanyID, terminal.Name, terminal.Status)
	return err
}

func (s *Storage) GetTerminal(ctx context.Context, companyID, terminalID string) (*models.Terminal, error) {
	query := `
		SELECT id, terminal_id, company_id, name, status, last_seen_at, created_at
		FROM terminals
		WHERE terminal_id = $1 AND company_id = $2
	`

	var terminal models.Terminal
	if err := s.db.GetContext(ctx, &terminal, query, terminalID, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTerminalNotFound
		}
		return nil, err
	}
	return &terminal, nil
}

func (s *Storage) ListTerminals(ctx context.Context, companyID string) ([]models.Terminal, error) {
	terminals := make([]models.Terminal, 0)
	err := s.db.SelectContext(ctx, &terminals, `
		SELECT id, terminal_id, company_id, name, status, last_seen_at, created_at
		FROM terminals
		WHERE company_id = $1
		ORDER BY created_at
	`, companyID)
	if err != nil {
		return nil, err
	}
	return terminals, nil
}

func (s *Storage) MarkTerminalSeen(ctx context.Context, terminalID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE terminals
		SET status = 'online', last_seen_at = $2
		WHERE terminal_id = $1
	`, terminalID, at)
	return err
}

func (s *Storage) MarkTerminalOffline(ctx context.Context, terminalID string, lastSeen time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE terminals
		SET status = 'offline', last_seen_at = $2
		WHERE terminal_id = $1
	`, terminalID, lastSeen)
	return err
}

func (s *Storage) MarkStaleTerminalsOffline(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := s.db.ExecContext(ctx, `
		UPDATE terminals
		SET status = 'offline'
		WHERE status = 'online' AND (last_seen_at IS NULL OR last_seen_at < $1)
	`, cutoff)
	return err
}

func (s *Storage) DeleteTerminal(ctx context.Context, companyID, terminalID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM terminals WHERE terminal_id = $1 AND company_id = $2`, terminalID, companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrTerminalNotFound
	}
	return nil
}

func (s *Storage) StoreTerminalCredentials(ctx context.Context, terminalID, publicKey string, expiresAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE terminal_credentials
		SET revoked_at = NOW()
		WHERE terminal_id = $1 AND revoked_at IS NULL
	`, terminalID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO terminal_credentials (terminal_id, public_key, jwt_expires_at)
		VALUES ($1, $2, $3)
	`, terminalID, publicKey, expiresAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func GenerateRegistrationToken() (token string, prefix string, hash string, err error) {
	bytes := make([]byte, TokenLength)
	if _, err = rand.Read(bytes); err != nil {
		return "", "", "", err
	}

	token = TokenPrefix + hex.EncodeToString(bytes)
	prefix = token[:tokenPrefixLength]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", err
	}

	return token, prefix, string(hashBytes), nil
}

func ValidateTokenHash(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

func mapRegistrationTokenRow(row registrationTokenRow) (models.RegistrationToken, error) {
	allowedCIDRs, err := decodeStringArray(row.AllowedCIDRsJSON)
	if err != nil {
		return models.RegistrationToken{}, err
	}

	var maxUses *int
	if row.MaxUses.Valid {
		value := int(row.MaxUses.Int64)
		maxUses = &value
	}

	rt := models.RegistrationToken{
		ID:           row.ID,
		CompanyID:    row.CompanyID,
		TokenPrefix:  row.TokenPrefix,
		Description:  row.Description.String,
		AllowedCIDRs: allowedCIDRs,
		ExpiresAt:    row.ExpiresAt,
		MaxUses:      maxUses,
		UseCount:     row.UseCount,
		CreatedBy:    row.CreatedBy.String,
		CreatedAt:    row.CreatedAt,
		LastUsedAt:   row.LastUsedAt,
		RevokedAt:    row.RevokedAt,
	}

	return rt, nil
}

func decodeStringArray(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func ipAllowed(remoteIP string, cidrs []string) bool {
	ip := net.ParseIP(remoteIP)
	if ip == nil {
		return false
	}

	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}

	return false
}
