package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/pkg/common"

	"github.com/redis/go-redis/v9"
)

// NewMarketStressCacheRepository creates a Redis-backed cache of the latest result.
func NewMarketStressCacheRepository(redisClient *redis.Client, ttl time.Duration) MarketStressCacheRepository {
	return &marketStressCacheRepository{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

type marketStressCacheRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// SetLatest stores the latest result under a fixed key.
func (r *marketStressCacheRepository) SetLatest(ctx context.Context, result dto.MarketStressResponse) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal market stress result: %w", err)
	}
	return r.redisClient.Set(ctx, common.RedisKeyMarketStressLatest, payload, r.ttl).Err()
}
