package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var allStatuses = []string{
	StatusOrcamento,
	StatusPendente,
	StatusEmProducao,
	StatusPronto,
	StatusAguardandoRetirada,
	StatusEntregue,
	StatusCancelado,
}

func TestValidateAllowedEdges(t *testing.T) {
	cases := []struct {
		from, to string
	}{
		{StatusOrcamento, StatusPendente},
		{StatusOrcamento, StatusCancelado},
		{StatusPendente, StatusEmProducao},
		{StatusPendente, StatusCancelado},
		{StatusEmProducao, StatusPronto},
		{StatusEmProducao, StatusCancelado},
		{StatusPronto, StatusAguardandoRetirada},
		{StatusPronto, StatusEntregue},
		{StatusPronto, StatusCancelado},
		{StatusAguardandoRetirada, StatusEntregue},
		{StatusAguardandoRetirada, StatusCancelado},
	}

	for _, tc := range cases {
		assert.NoError(t, Validate(tc.from, tc.to, models.RoleAtendente), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidateRejectsEverythingOutsideTable(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if from == to {
				assert.ErrorIs(t, Validate(from, to, models.RoleSuperadmin), ErrInvalidTransition,
					"self transition %s must be rejected", from)
				continue
			}
			if CanTransition(from, to) {
				continue
			}
			assert.ErrorIs(t, Validate(from, to, models.RoleSuperadmin), ErrInvalidTransition,
				"%s -> %s must be rejected", from, to)
		}
	}
}

func TestEntregueIsTerminal(t *testing.T) {
	for _, to := range allStatuses {
		if to == StatusEntregue {
			continue
		}
		assert.Error(t, Validate(StatusEntregue, to, models.RoleSuperadmin))
	}
}

func TestReactivationRequiresElevatedRole(t *testing.T) {
	require.NoError(t, Validate(StatusCancelado, StatusPendente, models.RoleAdmin))
	require.NoError(t, Validate(StatusCancelado, StatusPendente, models.RoleSuperadmin))

	for _, role := range []string{models.RoleAtendente, models.RoleProducao, "", "visitante"} {
		assert.ErrorIs(t, Validate(StatusCancelado, StatusPendente, role), ErrReactivationForbidden,
			"role %q must not reactivate", role)
	}
}

func TestValidateUnknownStatus(t *testing.T) {
	assert.ErrorIs(t, Validate("rascunho", StatusPendente, models.RoleAdmin), ErrUnknownStatus)
	assert.ErrorIs(t, Validate(StatusPendente, "finalizado", models.RoleAdmin), ErrUnknownStatus)
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{StatusAguardandoRetirada, StatusEntregue, StatusCancelado},
		NextStatuses(StatusPronto, models.RoleAtendente))

	assert.Empty(t, NextStatuses(StatusCancelado, models.RoleAtendente))
	assert.Equal(t, []string{StatusPendente}, NextStatuses(StatusCancelado, models.RoleAdmin))
	assert.Empty(t, NextStatuses(StatusEntregue, models.RoleSuperadmin))
}
