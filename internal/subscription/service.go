package subscription

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/cache"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
)

const stateCacheTTL = 60 * time.Second

// Service derives subscription state with a short Redis cache in front of
// Postgres. Webhook processing invalidates the cache on any change.
type Service struct {
	storage *storage.Storage
	cache   cache.Client
}

func NewService(store *storage.Storage, cacheClient cache.Client) *Service {
	return &Service{storage: store, cache: cacheClient}
}

func (s *Service) GetState(ctx context.Context, companyID string) (State, error) {
	if data, err := s.cache.GetSubscriptionState(companyID); err == nil && len(data) > 0 {
		var state State
		if err := json.Unmarshal(data, &state); err == nil {
			return state, nil
		}
	}

	sub, err := s.storage.GetCompanySubscription(ctx, companyID)
	if err != nil {
		return State{}, err
	}

	state := ComputeState(sub, time.Now())
	if data, err := json.Marshal(state); err == nil {
		if err := s.cache.SetSubscriptionState(companyID, data, stateCacheTTL); err != nil {
			log.Printf("WARN Subscription state cache write failed for %s: %v", companyID, err)
		}
	}
	return state, nil
}

// TrackTrial arms the Redis key whose expiry notifies the trial worker.
// The reconciler catches trials whose key was lost.
func (s *Service) TrackTrial(sub *models.Subscription) {
	if sub == nil || sub.Status != models.SubscriptionTrial {
		return
	}
	ttl := time.Until(TrialEnd(sub))
	if ttl <= 0 {
		return
	}
	if err := s.cache.SetTrialDeadline(sub.CompanyID, ttl); err != nil {
		log.Printf("WARN Trial deadline key write failed for %s: %v", sub.CompanyID, err)
	}
}

func (s *Service) Invalidate(companyID string) {
	if err := s.cache.InvalidateSubscription(companyID); err != nil {
		log.Printf("WARN Subscription state cache invalidation failed for %s: %v", companyID, err)
	}
}
