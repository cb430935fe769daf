package models

import "time"

const (
	SubscriptionTrial    = "trial"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
)

const (
	ProviderStripe = "stripe"
	ProviderCakto  = "cakto"
	ProviderYampi  = "yampi"
	ProviderManual = "manual"
)

type Plan struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	Interval    string    `json:"interval" db:"interval"`
	TrialDays   int       `json:"trial_days" db:"trial_days"`
	MaxUsers    int       `json:"max_users" db:"max_users"`
	MaxProducts int       `json:"max_products" db:"max_products"`
	Features    []byte    `json:"features" db:"features"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreatePlanInput struct {
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Interval    string `json:"interval"`
	TrialDays   int    `json:"trial_days"`
	MaxUsers    int    `json:"max_users"`
	MaxProducts int    `json:"max_products"`
	Features    any    `json:"features"`
}

type Subscription struct {
	ID          string     `json:"id" db:"id"`
	CompanyID   string     `json:"company_id" db:"company_id"`
	PlanID      string     `json:"plan_id" db:"plan_id"`
	Status      string     `json:"status" db:"status"`
	Provider    string     `json:"provider" db:"provider"`
	ProviderRef string     `json:"provider_ref" db:"provider_ref"`
	TrialDays   int        `json:"trial_days" db:"trial_days"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateSubscriptionInput struct {
	PlanID   string `json:"plan_id"`
	Provider string `json:"provider"`
}
