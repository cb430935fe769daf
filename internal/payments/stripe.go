package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

var (
	ErrBadSignature = errors.New("webhook signature verification failed")
	ErrStaleWebhook = errors.New("webhook timestamp outside tolerance")
)

const stripeSignatureTolerance = 5 * time.Minute

type StripeClient struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewStripeClient() *StripeClient {
	return &StripeClient{
		secretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		baseURL:       "https://api.stripe.com/v1",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *StripeClient) Name() string { return models.ProviderStripe }

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession creates a Stripe Checkout session for a plan. The
// company id travels in client_reference_id and metadata so the webhook can
// route the event back to the tenant.
func (c *StripeClient) CreateCheckoutSession(companyID string, plan *models.Plan, successURL, cancelURL string) (*CheckoutSession, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is not configured")
	}

	interval := "month"
	if plan.Interval == "yearly" {
		interval = "year"
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("client_reference_id", companyID)
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("metadata[company_id]", companyID)
	form.Set("metadata[plan_id]", plan.ID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "brl")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(plan.PriceCents, 10))
	form.Set("line_items[0][price_data][recurring][interval]", interval)
	form.Set("line_items[0][price_data][product_data][name]", plan.Name)

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/checkout/sessions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(body))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode stripe response: %w", err)
	}
	return &session, nil
}

// VerifySignature checks the Stripe-Signature header (t=...,v1=... scheme)
// against the raw body.
func (c *StripeClient) VerifySignature(header string, body []byte, now time.Time) error {
	return VerifyStripeSignature(c.webhookSecret, header, body, now)
}

// VerifyStripeSignature implements Stripe's webhook signing scheme: the
// signed payload is "<t>.<body>", HMAC-SHA256 with the endpoint secret,
// hex-encoded in one or more v1 entries.
func VerifyStripeSignature(secret, header string, body []byte, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: no webhook secret configured", ErrBadSignature)
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			sigs = append(sigs, value)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return ErrBadSignature
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	age := now.Sub(time.Unix(tsInt, 0))
	if age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return ErrStaleWebhook
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return ErrBadSignature
}
