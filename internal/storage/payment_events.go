package storage

import (
	"context"
	"errors"
)

var ErrDuplicateEvent = errors.New("payment event already recorded")

// RecordPaymentEvent persists a verified webhook event before it is published
// to the bus. The (provider, event_id) unique index makes redelivered
// webhooks idempotent.
func (s *Storage) RecordPaymentEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_events (provider, event_id, type, payload, status)
		VALUES ($1, $2, $3, $4, 'received')
	`, provider, eventID, eventType, payload)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (s *Storage) MarkPaymentEventProcessed(ctx context.Context, provider, eventID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE payment_events
		SET status = 'processed', processed_at = NOW()
		WHERE provider = $1 AND event_id = $2
	`, provider, eventID)
	return err
}

func (s *Storage) MarkPaymentEventFailed(ctx context.Context, provider, eventID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE payment_events
		SET status = 'failed', error = $3, processed_at = NOW()
		WHERE provider = $1 AND event_id = $2
	`, provider, eventID, reason)
	return err
}
