package terminals

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	natsjwt "github.com/nats-io/jwt/v2"
	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountIssuer(t *testing.T) *JWTIssuer {
	t.Helper()

	account, err := nkeys.CreateAccount()
	require.NoError(t, err)

	seed, err := account.Seed()
	require.NoError(t, err)
	pub, err := account.PublicKey()
	require.NoError(t, err)

	issuer, err := NewJWTIssuer(string(seed), pub)
	require.NoError(t, err)
	return issuer
}

func TestGenerateUserKeyPair(t *testing.T) {
	seed, pub, err := GenerateUserKeyPair()
	require.NoError(t, err)

	assert.True(t, nkeys.IsValidPublicUserKey(pub))

	kp, err := nkeys.FromSeed([]byte(seed))
	require.NoError(t, err)
	derived, err := kp.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, derived)
}

func TestIssueTerminalJWTScopesPermissions(t *testing.T) {
	issuer := newAccountIssuer(t)

	_, pub, err := GenerateUserKeyPair()
	require.NoError(t, err)

	token, expiresAt, err := issuer.IssueTerminalJWT("term-000000a", "comp-1", pub, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := natsjwt.DecodeUserClaims(token)
	require.NoError(t, err)

	assert.Equal(t, pub, claims.Subject)
	assert.Contains(t, claims.Permissions.Sub.Allow, "erp.comp-1.orders.>")
	assert.Contains(t, claims.Permissions.Sub.Allow, "_INBOX.>")
	assert.Contains(t, claims.Permissions.Pub.Allow, "$KV.TERMINALS.term-000000a")
	assert.NotContains(t, claims.Permissions.Sub.Allow, "erp.comp-2.orders.>")
}

func TestIssueTerminalJWTRejectsBadPublicKey(t *testing.T) {
	issuer := newAccountIssuer(t)

	_, _, err := issuer.IssueTerminalJWT("term-1", "comp-1", "not-a-key", time.Hour)
	assert.Error(t, err)
}

func TestVerifyNKeySignature(t *testing.T) {
	kp, err := nkeys.CreateUser()
	require.NoError(t, err)
	pub, err := kp.PublicKey()
	require.NoError(t, err)

	nonceBytes := make([]byte, 16)
	_, err = rand.Read(nonceBytes)
	require.NoError(t, err)
	nonce := hex.EncodeToString(nonceBytes)
	timestamp := time.Now().UnixMilli()

	sig, err := kp.Sign([]byte(fmt.Sprintf("%s:%d", nonce, timestamp)))
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(sig)

	assert.True(t, VerifyNKeySignature(pub, nonce, timestamp, encoded))
	assert.False(t, VerifyNKeySignature(pub, "other-nonce", timestamp, encoded))
	assert.False(t, VerifyNKeySignature(pub, nonce, timestamp+1, encoded))
	assert.False(t, VerifyNKeySignature(pub, nonce, 0, encoded))
	assert.False(t, VerifyNKeySignature("", nonce, timestamp, encoded))
	assert.False(t, VerifyNKeySignature(pub, nonce, timestamp, "!!not-base64!!"))
}

func TestBuildCredsFile(t *testing.T) {
	creds := BuildCredsFile("the-jwt", "the-seed")

	assert.Contains(t, creds, "-----BEGIN NATS USER JWT-----\nthe-jwt\n-----END NATS USER JWT-----")
	assert.Contains(t, creds, "-----BEGIN USER NKEY SEED-----\nthe-seed\n-----END USER NKEY SEED-----")
}
