package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/bus"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

type stubRecorder struct {
	calls       int
	lastEventID string
	err         error
}

func (s *stubRecorder) RecordPaymentEvent(_ context.Context, _, eventID, _ string, _ []byte) error {
	s.calls++
	s.lastEventID = eventID
	return s.err
}

type stubPublisher struct {
	subjects []string
}

func (s *stubPublisher) Publish(subj string, _ []byte, _ ...nats.PubOpt) (*nats.PubAck, error) {
	s.subjects = append(s.subjects, subj)
	return &nats.PubAck{}, nil
}

func newStripeWebhookHandler(secret string) (*WebhookHandler, *stubRecorder, *stubPublisher) {
	recorder := &stubRecorder{}
	publisher := &stubPublisher{}
	h := NewWebhookHandler(recorder, publisher,
		&StripeClient{webhookSecret: secret},
		&CaktoClient{webhookSecret: "cakto-secret"},
		&YampiClient{webhookSecret: "yampi-secret"},
	)
	return h, recorder, publisher
}

func TestHandleStripeBadSignatureNeverPublishes(t *testing.T) {
	h, recorder, publisher := newStripeWebhookHandler("whsec_test")

	body := `{"id":"evt_1","type":"checkout.session.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", stripeHeader("whsec_wrong", []byte(body), time.Now()))
	rec := httptest.NewRecorder()

	h.HandleStripe(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, recorder.calls)
	assert.Empty(t, publisher.subjects)
}

func TestHandleStripeAcceptsAndPublishesOnce(t *testing.T) {
	h, recorder, publisher := newStripeWebhookHandler("whsec_test")

	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","subscription":"sub_1","metadata":{"company_id":"comp-1","plan_id":"plan-1"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", stripeHeader("whsec_test", []byte(body), time.Now()))
	rec := httptest.NewRecorder()

	h.HandleStripe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, "evt_1", recorder.lastEventID)
	require.Len(t, publisher.subjects, 1)
	assert.Equal(t, bus.PaymentSubject(models.ProviderStripe), publisher.subjects[0])
}

func TestHandleStripeDuplicateEventIsIdempotent(t *testing.T) {
	h, recorder, publisher := newStripeWebhookHandler("whsec_test")
	recorder.err = storage.ErrDuplicateEvent

	body := `{"id":"evt_1","type":"checkout.session.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", stripeHeader("whsec_test", []byte(body), time.Now()))
	rec := httptest.NewRecorder()

	h.HandleStripe(rec, req)

	// Redelivered events answer 200 so the provider stops retrying, but
	// nothing reaches the bus a second time.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, publisher.subjects)
}

func TestHandleStripeInvalidPayload(t *testing.T) {
	h, recorder, publisher := newStripeWebhookHandler("whsec_test")

	body := `{"type":"checkout.session.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", stripeHeader("whsec_test", []byte(body), time.Now()))
	rec := httptest.NewRecorder()

	h.HandleStripe(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, recorder.calls)
	assert.Empty(t, publisher.subjects)
}

func TestHandleCaktoBadSecretNeverPublishes(t *testing.T) {
	h, recorder, publisher := newStripeWebhookHandler("whsec_test")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/cakto", strings.NewReader(`{"id":"evt_2","event":"payment.approved"}`))
	req.Header.Set("X-Cakto-Secret", "wrong")
	rec := httptest.NewRecorder()

	h.HandleCakto(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, recorder.calls)
	assert.Empty(t, publisher.subjects)
}

func TestHandleCaktoAcceptsAndPublishes(t *testing.T) {
	h, recorder, publisher := newStripeWebhookHandler("whsec_test")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/cakto",
		strings.NewReader(`{"id":"evt_2","event":"payment.approved","data":{"checkout_id":"chk_1","external_ref":"comp-1:plan-1","amount_cents":4990}}`))
	req.Header.Set("X-Cakto-Secret", "cakto-secret")
	rec := httptest.NewRecorder()

	h.HandleCakto(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "evt_2", recorder.lastEventID)
	require.Len(t, publisher.subjects, 1)
	assert.Equal(t, bus.PaymentSubject(models.ProviderCakto), publisher.subjects[0])
}
