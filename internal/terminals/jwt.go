package terminals

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/nats-io/jwt/v2"
	"github.com/nats-io/nkeys"
)

// JWTIssuer signs NATS user JWTs for enrolled POS terminals. Permissions
// are scoped to the terminal's company so one tenant can never see
// another tenant's order traffic.
type JWTIssuer struct {
	signingKey   nkeys.KeyPair
	accountPubID string
}

func NewJWTIssuer(signingKeySeed, accountPubKey string) (*JWTIssuer, error) {
	kp, err := nkeys.FromSeed([]byte(signingKeySeed))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS signing key seed: %w", err)
	}

	if accountPubKey == "" {
		return nil, fmt.Errorf("missing NATS terminals account public key")
	}

	return &JWTIssuer{
		signingKey:   kp,
		accountPubID: accountPubKey,
	}, nil
}

func GenerateUserKeyPair() (seed string, publicKey string, err error) {
	kp, err := nkeys.CreateUser()
	if err != nil {
		return "", "", err
	}

	seedBytes, err := kp.Seed()
	if err != nil {
		return "", "", err
	}

	publicKey, err = kp.PublicKey()
	if err != nil {
		return "", "", err
	}

	return string(seedBytes), publicKey, nil
}

func (ji *JWTIssuer) IssueTerminalJWT(terminalID, companyID, publicKey string, expiresIn time.Duration) (string, time.Time, error) {
	if !nkeys.IsValidPublicUserKey(publicKey) {
		return "", time.Time{}, fmt.Errorf("invalid terminal public key")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)

	claims := jwt.NewUserClaims(publicKey)
	claims.IssuedAt = now.Unix()
	claims.Expires = expiresAt.Unix()
	claims.IssuerAccount = ji.accountPubID

	// Receive order updates for the terminal's own company only
	claims.Permissions.Sub.Allow.Add("erp." + companyID + ".orders.>")
	// Publish the terminal's heartbeat KV entry
	claims.Permissions.Pub.Allow.Add("$KV.TERMINALS." + terminalID)
	// KV stream info lookup (required by nats.go KeyValue binding)
	claims.Permissions.Pub.Allow.Add("$JS.API.STREAM.INFO.KV_TERMINALS")
	// Inbox for request-reply
	claims.Permissions.Sub.Allow.Add("_INBOX.>")

	encoded, err := claims.Encode(ji.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode jwt: %w", err)
	}

	return encoded, expiresAt, nil
}

// BuildCredsFile formats JWT and NKey seed into NATS .creds file format.
func BuildCredsFile(jwtToken, nkeySeed string) string {
	return `-----BEGIN NATS USER JWT-----
` + jwtToken + `
-----END NATS USER JWT-----

-----BEGIN USER NKEY SEED-----
` + nkeySeed + `
-----END USER NKEY SEED-----
`
}

// VerifyNKeySignature verifies a terminal-signed payload (nonce + timestamp)
// using its NKey public key.
func VerifyNKeySignature(publicKey, nonce string, timestamp int64, signature string) bool {
	if publicKey == "" || nonce == "" || signature == "" || timestamp == 0 {
		return false
	}

	signedData := fmt.Sprintf("%s:%d", nonce, timestamp)

	pubKey, err := nkeys.FromPublicKey(publicKey)
	if err != nil {
		return false
	}

	sigBytes, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	return pubKey.Verify([]byte(signedData), sigBytes) == nil
}
