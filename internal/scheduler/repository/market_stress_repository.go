package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/scheduler/dto"
	"golang-market-stress/pkg/common"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MarketStressRepository reads pipeline results for the API.
type MarketStressRepository interface {
	FindLatestRun(ctx context.Context) (*entity.MarketStressRun, error)
	FindRecentRuns(ctx context.Context, limit int) ([]entity.MarketStressRun, error)
	FindRecentNews(ctx context.Context, limit int) ([]entity.NewsSentiment, error)
	GetCachedLatest(ctx context.Context) (*dto.MarketStressResponse, error)
}

// NewMarketStressRepository creates a new MarketStressRepository.
func NewMarketStressRepository(db *gorm.DB, redisClient *redis.Client) MarketStressRepository {
	return &marketStressRepository{db: db, redisClient: redisClient}
}

type marketStressRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// FindLatestRun returns the most recent successful run, or nil when there is none.
func (r *marketStressRepository) FindLatestRun(ctx context.Context) (*entity.MarketStressRun, error) {
	var run entity.MarketStressRun
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.RunStatusDone).
		Order("completed_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindRecentRuns returns the latest runs, newest first.
func (r *marketStressRepository) FindRecentRuns(ctx context.Context, limit int) ([]entity.MarketStressRun, error) {
	var runs []entity.MarketStressRun
	if err := r.db.WithContext(ctx).Omit("report").Order("completed_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// FindRecentNews returns the newest classified news first.
func (r *marketStressRepository) FindRecentNews(ctx context.Context, limit int) ([]entity.NewsSentiment, error) {
	var news []entity.NewsSentiment
	err := r.db.WithContext(ctx).
		Order("published_at DESC NULLS LAST").
		Order("id DESC").
		Limit(limit).
		Find(&news).Error
	if err != nil {
		return nil, err
	}
	return news, nil
}

// GetCachedLatest reads the result the executor cached in Redis, or nil.
func (r *marketStressRepository) GetCachedLatest(ctx context.Context) (*dto.MarketStressResponse, error) {
	payload, err := r.redisClient.Get(ctx, common.RedisKeyMarketStressLatest).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result dto.MarketStressResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached market stress result: %w", err)
	}
	return &result, nil
}
