package ingest

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/notify"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/subscription"
)

// PaymentsConsumer applies normalized provider events to subscriptions.
// Webhook handlers only verify and publish; this consumer is the single
// writer for payment-driven subscription changes.
type PaymentsConsumer struct {
	js      nats.JetStreamContext
	storage *storage.Storage
	subs    *subscription.Service
	slack   *notify.SlackClient
	sub     *nats.Subscription
}

func NewPaymentsConsumer(js nats.JetStreamContext, store *storage.Storage, subs *subscription.Service, slack *notify.SlackClient) *PaymentsConsumer {
	return &PaymentsConsumer{js: js, storage: store, subs: subs, slack: slack}
}

// Start begins consuming payment events from JetStream.
func (c *PaymentsConsumer) Start(ctx context.Context) error {
	sub, err := c.js.PullSubscribe(
		"erp.billing.payments.>",
		"payments-processor",
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
		nats.MaxAckPending(1000),
	)
	if err != nil {
		return err
	}
	c.sub = sub

	go c.consumeLoop(ctx)
	log.Println("INFO Payments consumer started")
	return nil
}

func (c *PaymentsConsumer) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := c.sub.Fetch(16, nats.MaxWait(5*time.Second))
		if err != nil {
			if err != nats.ErrTimeout {
				log.Printf("WARN Payments fetch error: %v", err)
			}
			continue
		}

		for _, msg := range msgs {
			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("WARN Payment process error: %v", err)
				msg.NakWithDelay(5 * time.Second)
				continue
			}
			msg.Ack()
		}
	}
}

func (c *PaymentsConsumer) processMessage(ctx context.Context, msg *nats.Msg) error {
	var event models.PaymentEvent
	if err := msgpack.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("ERROR Payment event unmarshal error (terminating): %v", err)
		msg.Term()
		return nil
	}

	log.Printf("INFO Payment event: provider=%s id=%s type=%s company=%s",
		event.Provider, event.EventID, event.Type, event.CompanyID)

	if err := c.apply(ctx, &event); err != nil {
		_ = c.storage.MarkPaymentEventFailed(ctx, event.Provider, event.EventID, err.Error())
		if slackErr := c.slack.NotifyPaymentFailure(event.Provider, event.EventID, err.Error()); slackErr != nil {
			log.Printf("WARN Slack notification error: %v", slackErr)
		}
		return err
	}

	return c.storage.MarkPaymentEventProcessed(ctx, event.Provider, event.EventID)
}

func (c *PaymentsConsumer) apply(ctx context.Context, event *models.PaymentEvent) error {
	switch classify(event.Type) {
	case outcomeActivated:
		return c.activate(ctx, event)
	case outcomeCanceled:
		return c.cancel(ctx, event)
	default:
		// Informational events (invoice.created and the like) are recorded
		// but do not change the subscription.
		log.Printf("INFO Payment event ignored: type=%s", event.Type)
		return nil
	}
}

func (c *PaymentsConsumer) activate(ctx context.Context, event *models.PaymentEvent) error {
	sub, err := c.resolveSubscription(ctx, event)
	if err != nil {
		return err
	}

	period := 30 * 24 * time.Hour
	if sub.PlanID != "" {
		if plan, err := c.storage.GetPlan(ctx, sub.PlanID); err == nil && plan.Interval == "yearly" {
			period = 365 * 24 * time.Hour
		}
	}

	if err := c.storage.ActivateSubscription(ctx, sub.ID, time.Now().Add(period)); err != nil {
		return err
	}

	c.subs.Invalidate(sub.CompanyID)
	log.Printf("INFO Subscription activated: company=%s provider=%s", sub.CompanyID, event.Provider)
	return nil
}

func (c *PaymentsConsumer) cancel(ctx context.Context, event *models.PaymentEvent) error {
	sub, err := c.resolveSubscription(ctx, event)
	if err != nil {
		return err
	}

	if err := c.storage.CancelSubscription(ctx, sub.ID); err != nil {
		return err
	}

	c.subs.Invalidate(sub.CompanyID)
	log.Printf("INFO Subscription canceled: company=%s provider=%s", sub.CompanyID, event.Provider)
	return nil
}

// resolveSubscription finds the subscription an event refers to: by provider
// reference first, then by the company carried in the event metadata.
func (c *PaymentsConsumer) resolveSubscription(ctx context.Context, event *models.PaymentEvent) (*models.Subscription, error) {
	if event.ProviderRef != "" {
		sub, err := c.storage.GetSubscriptionByProviderRef(ctx, event.Provider, event.ProviderRef)
		if err == nil {
			return sub, nil
		}
		if err != storage.ErrSubscriptionNotFound {
			return nil, err
		}
	}

	if event.CompanyID == "" {
		return nil, storage.ErrSubscriptionNotFound
	}

	sub, err := c.storage.GetCompanySubscription(ctx, event.CompanyID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return c.storage.CreateSubscription(ctx, event.CompanyID, event.PlanID, event.Provider, event.ProviderRef, 0)
	}
	return sub, nil
}

type outcome int

const (
	outcomeIgnored outcome = iota
	outcomeActivated
	outcomeCanceled
)

func classify(eventType string) outcome {
	t := strings.ToLower(eventType)
	switch {
	case strings.Contains(t, "completed"),
		strings.Contains(t, "approved"),
		strings.Contains(t, "paid"),
		strings.Contains(t, "payment_succeeded"):
		return outcomeActivated
	case strings.Contains(t, "canceled"),
		strings.Contains(t, "cancelled"),
		strings.Contains(t, "deleted"),
		strings.Contains(t, "refund"),
		strings.Contains(t, "chargeback"):
		return outcomeCanceled
	default:
		return outcomeIgnored
	}
}

// Stop gracefully stops the consumer.
func (c *PaymentsConsumer) Stop() error {
	if c.sub != nil {
		return c.sub.Drain()
	}
	return nil
}
