package workers

import (
	"context"
	"log"
	"time"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/cache"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

// StartExpiryReconciler periodically expires overdue trials and canceled
// subscriptions. Keyspace notifications can be missed across restarts, so
// the ticker is the source of truth.
func StartExpiryReconciler(ctx context.Context, cacheClient cache.Client, store *storage.Storage) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reconcileOnce(ctx, cacheClient, store)
			}
		}
	}()
	log.Println("INFO Subscription expiry reconciler started")
}

func reconcileOnce(ctx context.Context, cacheClient cache.Client, store *storage.Storage) {
	companyIDs, err := store.ExpireOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("WARN Expiry reconciler error: %v", err)
		return
	}

	for _, companyID := range companyIDs {
		if err := cacheClient.InvalidateSubscription(companyID); err != nil {
			log.Printf("WARN Expiry reconciler cache invalidate error for %s: %v", companyID, err)
		}
		log.Printf("INFO Subscription expired: company=%s", companyID)
	}
}
