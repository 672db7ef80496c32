package service

import (
	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/dto"
)

// Aggregate scores fresh and historical records together. The market is
// optimistic only when the positive ratio is strictly greater than the negative
// one, so a tie is stressed. With no records at all it returns the neutral
// result: stressed with both ratios at zero.
func Aggregate(fresh, historical []dto.ClassifiedRecord) dto.AggregateResult {
	result := dto.AggregateResult{MarketState: entity.MarketStateStressed}

	count := func(records []dto.ClassifiedRecord) {
		for _, record := range records {
			switch record.Sentiment {
			case entity.SentimentPositive:
				result.Positive++
			case entity.SentimentNegative:
				result.Negative++
			}
		}
	}
	count(fresh)
	count(historical)

	result.Total = result.Positive + result.Negative
	if result.Total == 0 {
		return result
	}

	result.PositiveRatio = float64(result.Positive) / float64(result.Total)
	result.NegativeRatio = float64(result.Negative) / float64(result.Total)
	if result.PositiveRatio > result.NegativeRatio {
		result.MarketState = entity.MarketStateOptimistic
	}
	return result
}
