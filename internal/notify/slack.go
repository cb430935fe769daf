package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

type SlackClient struct {
	webhookURL string
	client     *http.Client
}

type SlackMessage struct {
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Type   string  `json:"type"`
	Text   *Text   `json:"text,omitempty"`
	Fields []*Text `json:"fields,omitempty"`
}

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func NewSlackClient() *SlackClient {
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	return &SlackClient{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

// NotifyOrderStatus posts order transitions to the shop's ops channel.
func (c *SlackClient) NotifyOrderStatus(companyName string, event *models.OrderEvent) error {
	if c.webhookURL == "" {
		fmt.Println("No SLACK_WEBHOOK_URL configured, skipping notification")
		return nil
	}

	emoji := "🖨️"
	if event.ToStatus == "cancelado" {
		emoji = "🚫"
	} else if event.ToStatus == "entregue" {
		emoji = "✅"
	}

	message := SlackMessage{
		Blocks: []Block{
			{
				Type: "header",
				Text: &Text{
					Type:  "plain_text",
					Text:  fmt.Sprintf("%s Pedido #%d: %s → %s", emoji, event.Number, event.FromStatus, event.ToStatus),
					Emoji: true,
				},
			},
			{
				Type: "section",
				Fields: []*Text{
					{Type: "mrkdwn", Text: "*Empresa:*\n" + companyName},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Total:*\nR$ %d,%02d", event.TotalCents/100, event.TotalCents%100)},
				},
			},
		},
	}

	return c.sendMessage(message)
}

// NotifyPaymentFailure alerts on webhook events the consumer could not apply.
func (c *SlackClient) NotifyPaymentFailure(provider, eventID, reason string) error {
	if c.webhookURL == "" {
		return nil
	}

	message := SlackMessage{
		Blocks: []Block{
			{
				Type: "section",
				Text: &Text{
					Type: "mrkdwn",
					Text: fmt.Sprintf("⚠️ *Payment event failed*\nProvider: %s\nEvent: %s\nReason: %s", provider, eventID, reason),
				},
			},
		},
	}

	return c.sendMessage(message)
}

func (c *SlackClient) sendMessage(message SlackMessage) error {
	reqBody, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.client.Post(c.webhookURL, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("post error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack error: %s", string(body))
	}

	return nil
}
