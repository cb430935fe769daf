package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Grafica Rapida", "grafica-rapida"},
		{"  Print & Co.  ", "print-co"},
		{"UPPER", "upper"},
		{"ja-com-hifen", "ja-com-hifen"},
		{"---", ""},
		{"loja123", "loja123"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, slugify(tc.in), "slugify(%q)", tc.in)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("user-1", "comp-1", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "comp-1", claims.CompanyID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Empty(t, claims.Impersonator)
}

func TestImpersonationTokenCarriesOriginalUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateImpersonationToken("admin-2", "comp-2", models.RoleAdmin, "super-1")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, "admin-2", claims.Subject)
	assert.Equal(t, "super-1", claims.Impersonator)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-a")
	token, err := GenerateToken("user-1", "comp-1", models.RoleAtendente)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "secret-b")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3nh4-f0rte")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "s3nh4-f0rte"))
	assert.False(t, CheckPassword(hash, "outra-senha"))
}
