package repository

import (
	"context"
	"fmt"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewNewsSentimentRepository creates a new instance of NewsSentimentRepository.
func NewNewsSentimentRepository(db *gorm.DB, log *logger.Logger) NewsSentimentRepository {
	return &newsSentimentRepository{
		db:     db,
		logger: log,
	}
}

type newsSentimentRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// Ping checks that a connection to the store can be established.
func (r *newsSentimentRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// AllTitles returns every persisted title.
func (r *newsSentimentRepository) AllTitles(ctx context.Context) (map[string]struct{}, error) {
	var titles []string
	if err := r.db.WithContext(ctx).Model(&entity.NewsSentiment{}).Pluck("title", &titles).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to load titles: %v", ErrStoreUnavailable, err)
	}

	known := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		known[title] = struct{}{}
	}
	return known, nil
}

// AllRecords returns every persisted classification. Rows whose stored label is
// not positive/negative are skipped with a warning.
func (r *newsSentimentRepository) AllRecords(ctx context.Context) ([]dto.ClassifiedRecord, error) {
	var rows []entity.NewsSentiment
	err := r.db.WithContext(ctx).
		Select("title", "summary", "sentiment").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load records: %v", ErrStoreUnavailable, err)
	}

	records := make([]dto.ClassifiedRecord, 0, len(rows))
	for _, row := range rows {
		sentiment, ok := entity.ParseSentiment(string(row.Sentiment))
		if !ok {
			r.logger.Warn("Skipping stored news with unknown sentiment",
				logger.StringField("title", row.Title),
				logger.StringField("sentiment", string(row.Sentiment)),
			)
			continue
		}
		records = append(records, dto.ClassifiedRecord{
			Title:     row.Title,
			Summary:   row.Summary,
			Sentiment: sentiment,
		})
	}
	return records, nil
}

// InsertBatch inserts rows one at a time so a bad row does not discard the
// rows already written. Titles that already exist are reported as skipped.
// The whole batch fails only when the store cannot be reached.
func (r *newsSentimentRepository) InsertBatch(ctx context.Context, rows []entity.NewsSentiment) (dto.WriteResult, error) {
	result := dto.WriteResult{
		Succeeded: []string{},
		Failed:    []dto.RowFailure{},
	}
	if len(rows) == 0 {
		return result, nil
	}

	if err := r.Ping(ctx); err != nil {
		return result, err
	}

	for i := range rows {
		row := rows[i]
		tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title"}},
			DoNothing: true,
		}).Create(&row)

		if tx.Error != nil {
			r.logger.Error("Failed to insert news sentiment", logger.ErrorField(tx.Error), logger.StringField("title", row.Title))
			result.Failed = append(result.Failed, dto.RowFailure{
				Title: row.Title,
				Error: fmt.Errorf("%w: %v", ErrWrite, tx.Error).Error(),
			})
			continue
		}
		if tx.RowsAffected == 0 {
			result.Skipped = append(result.Skipped, row.Title)
			continue
		}
		result.Succeeded = append(result.Succeeded, row.Title)
	}

	return result, nil
}
