package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripeHeader(secret string, body []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()

	require.NoError(t, VerifyStripeSignature(secret, stripeHeader(secret, body, now), body, now))
}

func TestVerifyStripeSignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := stripeHeader("whsec_other", body, now)

	assert.ErrorIs(t, VerifyStripeSignature("whsec_test", header, body, now), ErrBadSignature)
}

func TestVerifyStripeSignatureRejectsTamperedBody(t *testing.T) {
	secret := "whsec_test"
	now := time.Now()
	header := stripeHeader(secret, []byte(`{"id":"evt_1"}`), now)

	assert.ErrorIs(t, VerifyStripeSignature(secret, header, []byte(`{"id":"evt_2"}`), now), ErrBadSignature)
}

func TestVerifyStripeSignatureRejectsStaleTimestamp(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1"}`)
	signed := time.Now().Add(-10 * time.Minute)
	header := stripeHeader(secret, body, signed)

	assert.ErrorIs(t, VerifyStripeSignature(secret, header, body, time.Now()), ErrStaleWebhook)
}

func TestVerifyStripeSignatureRejectsMalformedHeader(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()

	assert.ErrorIs(t, VerifyStripeSignature("whsec_test", "", body, now), ErrBadSignature)
	assert.ErrorIs(t, VerifyStripeSignature("whsec_test", "t=abc,v1=00", body, now), ErrBadSignature)
	assert.ErrorIs(t, VerifyStripeSignature("whsec_test", "v1=deadbeef", body, now), ErrBadSignature)
	assert.ErrorIs(t, VerifyStripeSignature("", stripeHeader("s", body, now), body, now), ErrBadSignature)
}

func TestVerifyStripeSignatureAcceptsAnyMatchingV1(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	good := stripeHeader(secret, body, now)

	// Stripe sends multiple v1 entries during secret rotation.
	header := good + ",v1=0000000000000000000000000000000000000000000000000000000000000000"
	assert.NoError(t, VerifyStripeSignature(secret, header, body, now))
}

func TestVerifyCaktoSecret(t *testing.T) {
	assert.NoError(t, VerifyCaktoSecret("s3cret", "s3cret"))
	assert.ErrorIs(t, VerifyCaktoSecret("s3cret", "wrong"), ErrBadSignature)
	assert.ErrorIs(t, VerifyCaktoSecret("", "anything"), ErrBadSignature)
	assert.ErrorIs(t, VerifyCaktoSecret("s3cret", ""), ErrBadSignature)
}

func TestVerifyYampiSignature(t *testing.T) {
	secret := "yampi_secret"
	body := []byte(`{"event":"order.paid"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	header := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	require.NoError(t, VerifyYampiSignature(secret, header, body))
	assert.ErrorIs(t, VerifyYampiSignature(secret, header, []byte(`{"event":"order.refused"}`)), ErrBadSignature)
	assert.ErrorIs(t, VerifyYampiSignature("other", header, body), ErrBadSignature)
	assert.ErrorIs(t, VerifyYampiSignature(secret, "", body), ErrBadSignature)
}

func TestSplitExternalRef(t *testing.T) {
	company, plan := splitExternalRef("comp-1:plan-2")
	assert.Equal(t, "comp-1", company)
	assert.Equal(t, "plan-2", plan)

	company, plan = splitExternalRef("comp-only")
	assert.Equal(t, "comp-only", company)
	assert.Empty(t, plan)
}
