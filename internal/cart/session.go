package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"selfservice-kiosk/internal/domain"

	"github.com/redis/go-redis/v9"
)

const sessionKey = "kiosk:session:cart"

// RedisSession keeps the active cart in Redis for the session TTL.
type RedisSession struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSession(client *redis.Client, ttl time.Duration) *RedisSession {
	return &RedisSession{Client: client, TTL: ttl}
}

func (s *RedisSession) Save(ctx context.Context, cart domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, sessionKey, payload, s.TTL).Err()
}

func (s *RedisSession) Load(ctx context.Context) (*domain.Cart, error) {
	raw, err := s.Client.Get(ctx, sessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *RedisSession) Clear(ctx context.Context) error {
	return s.Client.Del(ctx, sessionKey).Err()
}

var _ SessionStore = (*RedisSession)(nil)
