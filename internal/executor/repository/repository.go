package repository

import (
	"context"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/dto"
)

// NewsSourceRepository fetches candidate news items for a query.
type NewsSourceRepository interface {
	Fetch(ctx context.Context, query dto.NewsQuery) ([]dto.NewsItem, error)
}

// SentimentClassifierRepository returns the raw classifier answer for one news item.
type SentimentClassifierRepository interface {
	Classify(ctx context.Context, title, description string) (string, error)
}

// NewsSentimentRepository is the durable store of classified news.
type NewsSentimentRepository interface {
	Ping(ctx context.Context) error
	AllTitles(ctx context.Context) (map[string]struct{}, error)
	AllRecords(ctx context.Context) ([]dto.ClassifiedRecord, error)
	InsertBatch(ctx context.Context, rows []entity.NewsSentiment) (dto.WriteResult, error)
}

// MarketStressRunRepository stores the history of pipeline runs.
type MarketStressRunRepository interface {
	Create(ctx context.Context, run *entity.MarketStressRun) error
}

// MarketStressCacheRepository keeps the latest result where the API can read it cheaply.
type MarketStressCacheRepository interface {
	SetLatest(ctx context.Context, result dto.MarketStressResponse) error
}
