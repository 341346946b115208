// Package redis provides a Redis-backed durable slot, for deployments
// that already run a Redis instance.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Slot implements slot.Slot over a Redis string value per key.
type Slot struct {
	client *redis.Client
}

// NewSlot creates a Redis-backed slot.
func NewSlot(client *redis.Client) *Slot {
	return &Slot{client: client}
}

// Get returns the stored value for the key, reporting absence without error.
func (s *Slot) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores the value under the key with no expiry, replacing any prior
// value.
func (s *Slot) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}
