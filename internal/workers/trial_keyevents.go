package workers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/cache"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/subscription"
)

const trialKeyPrefix = "erp:sub:trial:"

// StartTrialKeyeventWorker subscribes to Redis key expiration events so
// trials flip to expired the moment their deadline key drops.
// Returns true when subscription is active.
func StartTrialKeyeventWorker(ctx context.Context, cacheClient cache.Client, store *storage.Storage) bool {
	pubsub, err := cacheClient.SubscribeExpired()
	if err != nil {
		log.Printf("WARN Redis keyevent subscribe failed: %v", err)
		return false
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || msg == nil {
					return
				}
				handleExpired(ctx, cacheClient, store, msg)
			}
		}
	}()

	log.Println("INFO Trial keyevent worker started")
	return true
}

func handleExpired(ctx context.Context, cacheClient cache.Client, store *storage.Storage, msg *redis.Message) {
	if msg == nil {
		return
	}
	key := msg.Payload
	if !strings.HasPrefix(key, trialKeyPrefix) {
		return
	}
	companyID := strings.TrimPrefix(key, trialKeyPrefix)

	sub, err := store.GetCompanySubscription(ctx, companyID)
	if err != nil {
		log.Printf("WARN Trial expiry lookup failed for %s: %v", companyID, err)
		return
	}
	if sub == nil || sub.Status != models.SubscriptionTrial {
		return
	}

	// The key can expire early if Redis was flushed; only expire once the
	// trial window has actually closed.
	if time.Now().Before(subscription.TrialEnd(sub)) {
		return
	}

	if err := store.ExpireSubscription(ctx, sub.ID); err != nil {
		log.Printf("WARN Expire subscription failed for %s: %v", companyID, err)
		return
	}

	if err := cacheClient.InvalidateSubscription(companyID); err != nil {
		log.Printf("WARN Invalidate subscription cache failed for %s: %v", companyID, err)
	}
	log.Printf("INFO Trial expired: company=%s", companyID)
}
