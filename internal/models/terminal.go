package models

import "time"

type Terminal struct {
	ID         string     `json:"id" db:"id"`
	TerminalID string     `json:"terminal_id" db:"terminal_id"`
	CompanyID  string     `json:"company_id" db:"company_id"`
	Name       string     `json:"name" db:"name"`
	Status     string     `json:"status" db:"status"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty" db:"last_seen_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type RegistrationToken struct {
	ID           string     `json:"id" db:"id"`
	CompanyID    string     `json:"company_id" db:"company_id"`
	TokenPrefix  string     `json:"token_prefix" db:"token_prefix"`
	Description  string     `json:"description" db:"description"`
	AllowedCIDRs []string   `json:"allowed_cidrs,omitempty" db:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	MaxUses      *int       `json:"max_uses,omitempty" db:"max_uses"`
	UseCount     int        `json:"use_count" db:"use_count"`
	CreatedBy    string     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

type CreateRegistrationTokenInput struct {
	Description  string     `json:"description"`
	AllowedCIDRs []string   `json:"allowed_cidrs"`
	ExpiresAt    *time.Time `json:"expires_at"`
	MaxUses      *int       `json:"max_uses"`
}

type CreateRegistrationTokenResponse struct {
	RegistrationToken
	Token string `json:"token"`
}

type EnrollTerminalRequest struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
	Nonce     string `json:"nonce"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

type EnrollTerminalResponse struct {
	TerminalID string   `json:"terminal_id"`
	CompanyID  string   `json:"company_id"`
	JWT        string   `json:"jwt"`
	NATSURLs   []string `json:"nats_urls"`
	ExpiresAt  string   `json:"expires_at"`
}
