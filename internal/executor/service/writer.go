package service

import (
	"context"
	"fmt"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/internal/executor/repository"
)

// WriteNew persists exactly the fresh records, joining each with the metadata of
// the news item it came from by title. Records without metadata are reported as
// failed rows instead of being written with empty source fields.
func WriteNew(ctx context.Context, writer repository.NewsSentimentRepository, fresh []dto.ClassifiedRecord, metadataByTitle map[string]dto.NewsItem) (dto.WriteResult, error) {
	rows := make([]entity.NewsSentiment, 0, len(fresh))
	var orphans []dto.RowFailure

	for _, record := range fresh {
		item, ok := metadataByTitle[record.Title]
		if !ok {
			orphans = append(orphans, dto.RowFailure{
				Title: record.Title,
				Error: fmt.Errorf("%w: no source metadata for title", repository.ErrWrite).Error(),
			})
			continue
		}
		rows = append(rows, entity.NewsSentiment{
			Title:       record.Title,
			Summary:     record.Summary,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
			SourceName:  item.SourceName,
			Sentiment:   record.Sentiment,
		})
	}

	result, err := writer.InsertBatch(ctx, rows)
	result.Failed = append(result.Failed, orphans...)
	return result, err
}
