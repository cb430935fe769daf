package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/bus"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

const maxWebhookBody = 1 << 20 // 1MB

// eventRecorder persists accepted webhook events; storage.Storage enforces
// the unique event id there.
type eventRecorder interface {
	RecordPaymentEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error
}

// eventPublisher is the JetStream publish surface the handler needs.
type eventPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// WebhookHandler verifies provider webhooks, records them and publishes a
// normalized PaymentEvent to JetStream. Applying the subscription change is
// the payments consumer's job; the handler answers quickly so providers do
// not retry.
type WebhookHandler struct {
	storage eventRecorder
	js      eventPublisher
	stripe  *StripeClient
	cakto   *CaktoClient
	yampi   *YampiClient
}

func NewWebhookHandler(store eventRecorder, js eventPublisher, stripe *StripeClient, cakto *CaktoClient, yampi *YampiClient) *WebhookHandler {
	return &WebhookHandler{storage: store, js: js, stripe: stripe, cakto: cakto, yampi: yampi}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			ClientReferenceID string            `json:"client_reference_id"`
			Subscription      string            `json:"subscription"`
			AmountTotal       int64             `json:"amount_total"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.stripe.VerifySignature(r.Header.Get("Stripe-Signature"), body, time.Now()); err != nil {
		log.Printf("WARN Stripe webhook rejected: %v", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil || event.ID == "" {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	providerRef := event.Data.Object.Subscription
	if providerRef == "" {
		providerRef = event.Data.Object.ID
	}

	h.accept(w, r, models.PaymentEvent{
		EventID:     event.ID,
		Provider:    models.ProviderStripe,
		Type:        event.Type,
		ProviderRef: providerRef,
		CompanyID:   firstNonEmpty(event.Data.Object.Metadata["company_id"], event.Data.Object.ClientReferenceID),
		PlanID:      event.Data.Object.Metadata["plan_id"],
		AmountCents: event.Data.Object.AmountTotal,
	}, body)
}

type caktoEvent struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	Data  struct {
		CheckoutID  string `json:"checkout_id"`
		ExternalRef string `json:"external_ref"`
		AmountCents int64  `json:"amount_cents"`
	} `json:"data"`
}

func (h *WebhookHandler) HandleCakto(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.cakto.VerifySecret(r.Header.Get("X-Cakto-Secret")); err != nil {
		log.Printf("WARN Cakto webhook rejected: %v", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	var event caktoEvent
	if err := json.Unmarshal(body, &event); err != nil || event.ID == "" {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	companyID, planID := splitExternalRef(event.Data.ExternalRef)

	h.accept(w, r, models.PaymentEvent{
		EventID:     event.ID,
		Provider:    models.ProviderCakto,
		Type:        event.Event,
		ProviderRef: event.Data.CheckoutID,
		CompanyID:   companyID,
		PlanID:      planID,
		AmountCents: event.Data.AmountCents,
	}, body)
}

type yampiEvent struct {
	ID       string `json:"id"`
	Event    string `json:"event"`
	Resource struct {
		CheckoutID  string `json:"checkout_id"`
		Reference   string `json:"reference"`
		AmountCents int64  `json:"amount_cents"`
	} `json:"resource"`
}

func (h *WebhookHandler) HandleYampi(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.yampi.VerifySignature(r.Header.Get("X-Yampi-Hmac-SHA256"), body); err != nil {
		log.Printf("WARN Yampi webhook rejected: %v", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	var event yampiEvent
	if err := json.Unmarshal(body, &event); err != nil || event.ID == "" {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	companyID, planID := splitExternalRef(event.Resource.Reference)

	h.accept(w, r, models.PaymentEvent{
		EventID:     event.ID,
		Provider:    models.ProviderYampi,
		Type:        event.Event,
		ProviderRef: event.Resource.CheckoutID,
		CompanyID:   companyID,
		PlanID:      planID,
		AmountCents: event.Resource.AmountCents,
	}, body)
}

func (h *WebhookHandler) accept(w http.ResponseWriter, r *http.Request, event models.PaymentEvent, body []byte) {
	event.V = 1
	event.TS = time.Now().UnixMilli()
	event.RawJSON = body

	err := h.storage.RecordPaymentEvent(r.Context(), event.Provider, event.EventID, event.Type, body)
	if errors.Is(err, storage.ErrDuplicateEvent) {
		// Redelivery; already accepted.
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		log.Printf("ERROR Record payment event %s/%s: %v", event.Provider, event.EventID, err)
		http.Error(w, "Failed to record event", http.StatusInternalServerError)
		return
	}

	payload, err := msgpack.Marshal(&event)
	if err != nil {
		http.Error(w, "Failed to encode event", http.StatusInternalServerError)
		return
	}

	if _, err := h.js.Publish(bus.PaymentSubject(event.Provider), payload); err != nil {
		log.Printf("ERROR Publish payment event %s/%s: %v", event.Provider, event.EventID, err)
		http.Error(w, "Failed to publish event", http.StatusInternalServerError)
		return
	}

	log.Printf("INFO Payment event accepted: provider=%s id=%s type=%s", event.Provider, event.EventID, event.Type)
	w.WriteHeader(http.StatusOK)
}

func splitExternalRef(ref string) (companyID, planID string) {
	companyID, planID, _ = strings.Cut(ref, ":")
	return companyID, planID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
