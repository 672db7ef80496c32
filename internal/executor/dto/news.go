package dto

import (
	"time"

	"golang-market-stress/internal/entity"
)

// NewsQuery is the search the news source runs on every pipeline run.
type NewsQuery struct {
	Topic      string
	Language   string
	Country    string
	MaxResults int
}

// NewsItem is a candidate article returned by a news source.
type NewsItem struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SourceName  string     `json:"source_name"`
}

// ClassifiedRecord is a title with the summary and label the classifier assigned.
// Fresh records come from this run; historical ones are read back from storage.
type ClassifiedRecord struct {
	Title     string           `json:"title"`
	Summary   string           `json:"summary"`
	Sentiment entity.Sentiment `json:"sentiment"`
}

// RowFailure is a row the writer could not persist.
type RowFailure struct {
	Title string `json:"title"`
	Error string `json:"error"`
}

// WriteResult reports a batch insert row by row.
type WriteResult struct {
	Succeeded []string     `json:"succeeded"`
	Skipped   []string     `json:"skipped,omitempty"`
	Failed    []RowFailure `json:"failed"`
}
