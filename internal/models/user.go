package models

import "time"

// Roles, most privileged first.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleAtendente  = "atendente"
	RoleProducao   = "producao"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	CompanyID    string    `json:"company_id" db:"company_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// RoleRank orders roles for comparison; unknown roles rank lowest.
func RoleRank(role string) int {
	switch role {
	case RoleSuperadmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleAtendente:
		return 1
	case RoleProducao:
		return 1
	default:
		return 0
	}
}
