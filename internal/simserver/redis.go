package simserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

const keyPrefix = "portfolio:"

// Compile-time check to ensure RedisStore implements PortfolioStore
var _ PortfolioStore = (*RedisStore)(nil)

// RedisStore keeps one JSON document per viewer under portfolio:<email>.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, email string) (tradeapi.Portfolio, error) {
	raw, err := r.client.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewPortfolio(), nil
	}
	if err != nil {
		return tradeapi.Portfolio{}, fmt.Errorf("failed to load portfolio: %w", err)
	}

	var p tradeapi.Portfolio
	if err := json.Unmarshal(raw, &p); err != nil {
		return tradeapi.Portfolio{}, fmt.Errorf("failed to decode portfolio: %w", err)
	}
	if p.Holdings == nil {
		p.Holdings = []tradeapi.Holding{}
	}
	return p, nil
}

func (r *RedisStore) Save(ctx context.Context, email string, p tradeapi.Portfolio) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode portfolio: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+email, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
