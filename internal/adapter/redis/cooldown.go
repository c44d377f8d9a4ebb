package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore implements port.CooldownStore over Redis. Arming and
// checking happen in one SET NX EX round trip, so two concurrent presses
// cannot both pass.
type CooldownStore struct {
	client *redis.Client
}

// NewCooldownStore returns a new store instance.
func NewCooldownStore(client *redis.Client) *CooldownStore {
	return &CooldownStore{client: client}
}

// CheckAndSet returns true while the cooldown for the action is armed.
// Otherwise it arms the cooldown for ttl and returns false.
func (s *CooldownStore) CheckAndSet(ctx context.Context, userID, action string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("cooldown:%s:%s", action, userID)
	set, err := s.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
