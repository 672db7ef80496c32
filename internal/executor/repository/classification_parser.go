package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/dto"
)

const codeFence = "```"

// ParseClassification extracts the classified records from a raw classifier answer.
// The answer is a JSON array (or a single object), either bare or wrapped in a
// fenced code block. Every element needs a title and a positive/negative label;
// otherwise the whole answer is rejected with ErrParse.
func ParseClassification(raw string) ([]dto.ClassifiedRecord, error) {
	payload := extractJSONPayload(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParse)
	}

	var items []dto.ClassificationPayload
	switch payload[0] {
	case '[':
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	case '{':
		var item dto.ClassificationPayload
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		items = append(items, item)
	default:
		return nil, fmt.Errorf("%w: response is not JSON", ErrParse)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no classified items in response", ErrParse)
	}

	records := make([]dto.ClassifiedRecord, 0, len(items))
	for i, item := range items {
		title := item.TitleValue()
		if strings.TrimSpace(title) == "" {
			return nil, fmt.Errorf("%w: item %d has no title", ErrParse, i)
		}
		sentiment, ok := entity.ParseSentiment(item.SentimentValue())
		if !ok {
			return nil, fmt.Errorf("%w: item %d has unknown sentiment %q", ErrParse, i, item.SentimentValue())
		}
		records = append(records, dto.ClassifiedRecord{
			Title:     title,
			Summary:   item.SummaryValue(),
			Sentiment: sentiment,
		})
	}

	return records, nil
}

// extractJSONPayload returns the interior of the first fenced block, or the
// trimmed text when no complete fence is present.
func extractJSONPayload(raw string) string {
	start := strings.Index(raw, codeFence)
	if start == -1 {
		return strings.TrimSpace(raw)
	}

	body := raw[start+len(codeFence):]
	end := strings.Index(body, codeFence)
	if end == -1 {
		return strings.TrimSpace(raw)
	}
	body = body[:end]

	// Drop the info string ("json", "JSON", ...) on the opening fence line.
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		if info := strings.TrimSpace(body[:nl]); info != "" && !strings.ContainsAny(info, "[{") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimSpace(body)
		if start := strings.IndexAny(body, "[{"); start > 0 {
			body = body[start:]
		}
	}

	return strings.TrimSpace(body)
}
