package orders

import (
	"errors"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

// Order statuses. The names are the canonical values stored in Postgres and
// shown to shop staff; they are kept in Portuguese to match the product.
const (
	StatusOrcamento          = "orcamento"
	StatusPendente           = "pendente"
	StatusEmProducao         = "em_producao"
	StatusPronto             = "pronto"
	StatusAguardandoRetirada = "aguardando_retirada"
	StatusEntregue           = "entregue"
	StatusCancelado          = "cancelado"
)

var (
	ErrUnknownStatus         = errors.New("unknown order status")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrReactivationForbidden = errors.New("reactivating a canceled order requires an admin")
)

// transitions is the full adjacency table. A pair absent from the table is
// rejected; entregue is terminal. cancelado -> pendente is the reactivation
// edge and is additionally role-gated in Validate.
var transitions = map[string][]string{
	StatusOrcamento:          {StatusPendente, StatusCancelado},
	StatusPendente:           {StatusEmProducao, StatusCancelado},
	StatusEmProducao:         {StatusPronto, StatusCancelado},
	StatusPronto:             {StatusAguardandoRetirada, StatusEntregue, StatusCancelado},
	StatusAguardandoRetirada: {StatusEntregue, StatusCancelado},
	StatusEntregue:           {},
	StatusCancelado:          {StatusPendente},
}

// IsValidStatus reports whether s is one of the known order statuses.
func IsValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the edge from -> to exists in the table,
// ignoring role restrictions.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validate checks a requested transition for the given actor role.
func Validate(from, to, role string) error {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return ErrUnknownStatus
	}
	if from == to {
		return ErrInvalidTransition
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	if from == StatusCancelado && to == StatusPendente {
		if models.RoleRank(role) < models.RoleRank(models.RoleAdmin) {
			return ErrReactivationForbidden
		}
	}
	return nil
}

// NextStatuses returns the statuses reachable from the given one for the
// given role. Used by the POS UI to render action buttons.
func NextStatuses(from, role string) []string {
	next := make([]string, 0, len(transitions[from]))
	for _, to := range transitions[from] {
		if Validate(from, to, role) == nil {
			next = append(next, to)
		}
	}
	return next
}
