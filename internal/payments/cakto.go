package payments

import (
	"bytes"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

type CaktoClient struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewCaktoClient() *CaktoClient {
	baseURL := os.Getenv("CAKTO_API_URL")
	if baseURL == "" {
		baseURL = "https://api.cakto.com.br/v1"
	}
	return &CaktoClient{
		apiKey:        os.Getenv("CAKTO_API_KEY"),
		webhookSecret: os.Getenv("CAKTO_WEBHOOK_SECRET"),
		baseURL:       baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *CaktoClient) Name() string { return models.ProviderCakto }

type caktoCheckoutRequest struct {
	OfferName   string `json:"offer_name"`
	AmountCents int64  `json:"amount_cents"`
	Interval    string `json:"interval"`
	ExternalRef string `json:"external_ref"`
	SuccessURL  string `json:"success_url"`
}

type CaktoCheckout struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

func (c *CaktoClient) CreateCheckout(companyID string, plan *models.Plan, successURL string) (*CaktoCheckout, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("CAKTO_API_KEY is not configured")
	}

	reqBody, err := json.Marshal(caktoCheckoutRequest{
		OfferName:   plan.Name,
		AmountCents: plan.PriceCents,
		Interval:    plan.Interval,
		ExternalRef: companyID + ":" + plan.ID,
		SuccessURL:  successURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/checkouts", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cakto request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cakto error %d: %s", resp.StatusCode, string(body))
	}

	var checkout CaktoCheckout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("decode cakto response: %w", err)
	}
	return &checkout, nil
}

// VerifySecret checks the shared-secret header Cakto sends with webhooks.
func (c *CaktoClient) VerifySecret(header string) error {
	return VerifyCaktoSecret(c.webhookSecret, header)
}

func VerifyCaktoSecret(secret, header string) error {
	if secret == "" || header == "" {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(secret), []byte(header)) {
		return ErrBadSignature
	}
	return nil
}
