package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

type YampiClient struct {
	token         string
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewYampiClient() *YampiClient {
	baseURL := os.Getenv("YAMPI_API_URL")
	if baseURL == "" {
		baseURL = "https://api.dooki.com.br/v2"
	}
	return &YampiClient{
		token:         os.Getenv("YAMPI_TOKEN"),
		secretKey:     os.Getenv("YAMPI_SECRET_KEY"),
		webhookSecret: os.Getenv("YAMPI_WEBHOOK_SECRET"),
		baseURL:       baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *YampiClient) Name() string { return models.ProviderYampi }

type yampiCheckoutRequest struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
}

type YampiCheckout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *YampiClient) CreateCheckout(companyID string, plan *models.Plan) (*YampiCheckout, error) {
	if c.token == "" || c.secretKey == "" {
		return nil, fmt.Errorf("YAMPI_TOKEN and YAMPI_SECRET_KEY are not configured")
	}

	reqBody, err := json.Marshal(yampiCheckoutRequest{
		Name:        plan.Name,
		AmountCents: plan.PriceCents,
		Reference:   companyID + ":" + plan.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/checkouts", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Token", c.token)
	req.Header.Set("User-Secret-Key", c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yampi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yampi error %d: %s", resp.StatusCode, string(body))
	}

	var checkout YampiCheckout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("decode yampi response: %w", err)
	}
	return &checkout, nil
}

// VerifySignature checks the X-Yampi-Hmac-SHA256 header: base64 of the
// body's HMAC-SHA256 with the webhook secret.
func (c *YampiClient) VerifySignature(header string, body []byte) error {
	return VerifyYampiSignature(c.webhookSecret, header, body)
}

func VerifyYampiSignature(secret, header string, body []byte) error {
	if secret == "" || header == "" {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(header)) {
		return ErrBadSignature
	}
	return nil
}
