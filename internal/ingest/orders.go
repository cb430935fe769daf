package ingest

import (
	"context"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/hub"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/notify"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

// OrdersConsumer fans order status changes out to connected terminals and
// to the shop's Slack channel.
type OrdersConsumer struct {
	js      nats.JetStreamContext
	storage *storage.Storage
	hub     *hub.Hub
	slack   *notify.SlackClient
	sub     *nats.Subscription
}

func NewOrdersConsumer(js nats.JetStreamContext, store *storage.Storage, h *hub.Hub, slack *notify.SlackClient) *OrdersConsumer {
	return &OrdersConsumer{js: js, storage: store, hub: h, slack: slack}
}

// Start begins consuming order events from JetStream.
func (c *OrdersConsumer) Start(ctx context.Context) error {
	sub, err := c.js.PullSubscribe(
		"erp.*.orders.>",
		"orders-fanout",
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
	log.Println("INFO Orders consumer started")
	return nil
}

func (c *OrdersConsumer) consumeLoop(ctx context.Context) {
	fetchSize := 64
	minFetch := 8
	maxFetch := 512
	fullCount := 0
	emptyCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := c.sub.Fetch(fetchSize, nats.MaxWait(5*time.Second))
		if err != nil {
			if err != nats.ErrTimeout {
				log.Printf("WARN Orders fetch error: %v", err)
			}
			emptyCount++
			fullCount = 0
			if emptyCount >= 3 && fetchSize > minFetch {
				fetchSize /= 2
				if fetchSize < minFetch {
					fetchSize = minFetch
				}
				emptyCount = 0
			}
			continue
		}

		if len(msgs) == 0 {
			emptyCount++
			fullCount = 0
			if emptyCount >= 3 && fetchSize > minFetch {
				fetchSize /= 2
				if fetchSize < minFetch {
					fetchSize = minFetch
				}
				emptyCount = 0
			}
			continue
		}

		if len(msgs) == fetchSize {
			fullCount++
			emptyCount = 0
			if fullCount >= 3 && fetchSize < maxFetch {
				fetchSize *= 2
				if fetchSize > maxFetch {
					fetchSize = maxFetch
				}
				fullCount = 0
			}
		} else {
			fullCount = 0
			emptyCount = 0
		}

		for _, msg := range msgs {
			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("WARN Order event process error: %v", err)
				msg.NakWithDelay(5 * time.Second)
				continue
			}
			msg.Ack()
		}
	}
}

func (c *OrdersConsumer) processMessage(ctx context.Context, msg *nats.Msg) error {
	var event models.OrderEvent
	if err := msgpack.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("ERROR Order event unmarshal error (terminating): %v", err)
		msg.Term()
		return nil
	}

	log.Printf("INFO Order event: company=%s order=%s %s -> %s terminals=%d",
		event.CompanyID, event.OrderID, event.FromStatus, event.ToStatus,
		c.hub.Count(event.CompanyID))

	c.hub.Broadcast(event.CompanyID, &event)

	companyName := event.CompanyID
	if company, err := c.storage.GetCompany(ctx, event.CompanyID); err == nil {
		companyName = company.Name
	}

	if err := c.slack.NotifyOrderStatus(companyName, &event); err != nil {
		log.Printf("WARN Slack notification error: %v", err)
	}

	return nil
}

// Stop gracefully stops the consumer.
func (c *OrdersConsumer) Stop() error {
	if c.sub != nil {
		return c.sub.Drain()
	}
	return nil
}
