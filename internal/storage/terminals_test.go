package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRegistrationToken(t *testing.T) {
	token, prefix, hash, err := GenerateRegistrationToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token, TokenPrefix))
	assert.Len(t, token, len(TokenPrefix)+TokenLength*2)
	assert.Equal(t, token[:tokenPrefixLength], prefix)

	assert.True(t, ValidateTokenHash(token, hash))
	assert.False(t, ValidateTokenHash(token+"x", hash))
	assert.False(t, ValidateTokenHash("", hash))
}

func TestGenerateRegistrationTokenIsUnique(t *testing.T) {
	a, _, _, err := GenerateRegistrationToken()
	require.NoError(t, err)
	b, _, _, err := GenerateRegistrationToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestIPAllowed(t *testing.T) {
	cidrs := []string{"10.0.0.0/8", "192.168.1.0/24"}

	assert.True(t, ipAllowed("10.1.2.3", cidrs))
	assert.True(t, ipAllowed("192.168.1.40", cidrs))
	assert.False(t, ipAllowed("192.168.2.1", cidrs))
	assert.False(t, ipAllowed("8.8.8.8", cidrs))
	assert.False(t, ipAllowed("not-an-ip", cidrs))
	assert.False(t, ipAllowed("10.1.2.3", []string{"bogus"}))
}

func TestDecodeStringArray(t *testing.T) {
	out, err := decodeStringArray([]byte(`["10.0.0.0/8","192.168.1.0/24"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.0/24"}, out)

	out, err = decodeStringArray(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = decodeStringArray([]byte(`{"not":"an array"}`))
	assert.Error(t, err)
}
