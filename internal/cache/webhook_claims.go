package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/travelease/ticketing-backend/internal/models"
)

const keyPrefix = "webhook:"

// WebhookClaimStore records which payment deliveries have been taken for processing.
// A delivery is identified three ways (gateway reference, internal booking reference
// and the pair) so a retry matching any of them is recognised.
type WebhookClaimStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewWebhookClaimStore creates a claim store whose keys expire after ttl
func NewWebhookClaimStore(client redis.Cmdable, ttl time.Duration) *WebhookClaimStore {
	return &WebhookClaimStore{client: client, ttl: ttl}
}

// ClaimKeys returns the dedup keys for a delivery
func ClaimKeys(gatewayRef, bookingRef string) []string {
	return []string{
		keyPrefix + "gateway:" + gatewayRef,
		keyPrefix + "booking:" + bookingRef,
		keyPrefix + "combined:" + gatewayRef + ":" + bookingRef,
	}
}

// IsClaimed reports whether any of the delivery's keys is present
func (s *WebhookClaimStore) IsClaimed(ctx context.Context, gatewayRef, bookingRef string) (bool, error) {
	n, err := s.client.Exists(ctx, ClaimKeys(gatewayRef, bookingRef)...).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check webhook claim: %w", err)
	}
	return n > 0, nil
}

// Claim writes all three keys atomically. Claims are never retracted; they expire.
func (s *WebhookClaimStore) Claim(ctx context.Context, gatewayRef, bookingRef string, at time.Time) error {
	payload, err := json.Marshal(models.WebhookClaim{
		Processed:        true,
		Timestamp:        at.UTC(),
		GatewayReference: gatewayRef,
		BookingReference: bookingRef,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook claim: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, key := range ClaimKeys(gatewayRef, bookingRef) {
		pipe.Set(ctx, key, string(payload), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store webhook claim: %w", err)
	}
	return nil
}

// Get returns the claim stored for a gateway reference, or nil when there is none
func (s *WebhookClaimStore) Get(ctx context.Context, gatewayRef string) (*models.WebhookClaim, error) {
	raw, err := s.client.Get(ctx, keyPrefix+"gateway:"+gatewayRef).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook claim: %w", err)
	}

	var claim models.WebhookClaim
	if err := json.Unmarshal([]byte(raw), &claim); err != nil {
		return nil, fmt.Errorf("failed to decode webhook claim: %w", err)
	}
	return &claim, nil
}
