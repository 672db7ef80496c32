package service

import (
	"context"
	"errors"
	"time"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/scheduler/dto"
	"golang-market-stress/internal/scheduler/repository"
	"golang-market-stress/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const (
	latestCacheKey = "market_stress_latest"
	defaultLimit   = 20
	maxLimit       = 200
)

// ErrNoResult is returned when no run has produced a result yet.
var ErrNoResult = errors.New("no market stress result available yet")

// MarketStressService answers read queries about pipeline results.
type MarketStressService interface {
	GetLatest(ctx context.Context) (*dto.MarketStressResponse, error)
	GetRuns(ctx context.Context, limit int) ([]dto.RunHistoryResponse, error)
	GetNews(ctx context.Context, limit int) ([]dto.NewsSentimentResponse, error)
}

// NewMarketStressService creates a new MarketStressService.
func NewMarketStressService(repo repository.MarketStressRepository, log *logger.Logger, cacheTTL time.Duration) MarketStressService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &marketStressService{
		repo:          repo,
		logger:        log,
		inmemoryCache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

type marketStressService struct {
	repo          repository.MarketStressRepository
	logger        *logger.Logger
	inmemoryCache *cache.Cache
}

// GetLatest looks in the in-process cache, then Redis, then run history.
func (s *marketStressService) GetLatest(ctx context.Context) (*dto.MarketStressResponse, error) {
	if cached, ok := s.inmemoryCache.Get(latestCacheKey); ok {
		if result, ok := cached.(*dto.MarketStressResponse); ok {
			return result, nil
		}
	}

	result, err := s.repo.GetCachedLatest(ctx)
	if err != nil {
		s.logger.Warn("Failed to read cached market stress result", logger.ErrorField(err))
	}

	if result == nil {
		run, err := s.repo.FindLatestRun(ctx)
		if err != nil {
			s.logger.Error("Failed to find latest run", logger.ErrorField(err))
			return nil, err
		}
		if run == nil {
			return nil, ErrNoResult
		}
		result = &dto.MarketStressResponse{
			MarketState:   string(run.MarketState),
			PositiveRatio: run.PositiveRatio,
			NegativeRatio: run.NegativeRatio,
			TotalRecords:  run.TotalRecords,
			ComputedAt:    run.CompletedAt,
		}
	}

	s.inmemoryCache.SetDefault(latestCacheKey, result)
	return result, nil
}

// GetRuns returns the run history, newest first.
func (s *marketStressService) GetRuns(ctx context.Context, limit int) ([]dto.RunHistoryResponse, error) {
	runs, err := s.repo.FindRecentRuns(ctx, clampLimit(limit))
	if err != nil {
		s.logger.Error("Failed to find runs", logger.ErrorField(err))
		return nil, err
	}

	responses := make([]dto.RunHistoryResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, mapToRunHistoryResponse(&runs[i]))
	}
	return responses, nil
}

// GetNews returns the newest classified news.
func (s *marketStressService) GetNews(ctx context.Context, limit int) ([]dto.NewsSentimentResponse, error) {
	news, err := s.repo.FindRecentNews(ctx, clampLimit(limit))
	if err != nil {
		s.logger.Error("Failed to find news", logger.ErrorField(err))
		return nil, err
	}

	responses := make([]dto.NewsSentimentResponse, 0, len(news))
	for _, n := range news {
		responses = append(responses, dto.NewsSentimentResponse{
			ID:          n.ID,
			Title:       n.Title,
			Summary:     n.Summary,
			URL:         n.URL,
			PublishedAt: n.PublishedAt,
			SourceName:  n.SourceName,
			Sentiment:   string(n.Sentiment),
		})
	}
	return responses, nil
}

func mapToRunHistoryResponse(run *entity.MarketStressRun) dto.RunHistoryResponse {
	failedTitles := []string(run.FailedTitles)
	if failedTitles == nil {
		failedTitles = []string{}
	}
	return dto.RunHistoryResponse{
		ID:            run.ID,
		Status:        string(run.Status),
		FailedStage:   run.FailedStage,
		MarketState:   string(run.MarketState),
		PositiveRatio: run.PositiveRatio,
		NegativeRatio: run.NegativeRatio,
		TotalRecords:  run.TotalRecords,
		FreshRecords:  run.FreshRecords,
		WrittenRows:   run.WrittenRows,
		FailedTitles:  failedTitles,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
		Duration:      run.DurationMs,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
