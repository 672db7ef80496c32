package dto

import (
	"time"
)

// MarketStressResponse is the latest market stress result.
type MarketStressResponse struct {
	MarketState   string    `json:"market_state"`
	PositiveRatio float64   `json:"positive_ratio"`
	NegativeRatio float64   `json:"negative_ratio"`
	TotalRecords  int       `json:"total_records"`
	ComputedAt    time.Time `json:"computed_at"`
}

// RunHistoryResponse is one pipeline run as returned by the API.
type RunHistoryResponse struct {
	ID            uint      `json:"id"`
	Status        string    `json:"status"`
	FailedStage   string    `json:"failed_stage,omitempty"`
	MarketState   string    `json:"market_state"`
	PositiveRatio float64   `json:"positive_ratio"`
	NegativeRatio float64   `json:"negative_ratio"`
	TotalRecords  int       `json:"total_records"`
	FreshRecords  int       `json:"fresh_records"`
	WrittenRows   int       `json:"written_rows"`
	FailedTitles  []string  `json:"failed_titles"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	Duration      int64     `json:"duration_ms"`
}

// NewsSentimentResponse is one classified news item as returned by the API.
type NewsSentimentResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SourceName  string     `json:"source_name"`
	Sentiment   string     `json:"sentiment"`
}

// TriggerRunRequest is the optional body of POST /market-stress/runs.
type TriggerRunRequest struct {
	Reason string `json:"reason"`
}

// TriggerRunResponse acknowledges an enqueued run.
type TriggerRunResponse struct {
	MessageID string    `json:"message_id"`
	Reason    string    `json:"reason"`
	QueuedAt  time.Time `json:"queued_at"`
}

// RunTrigger is the payload published on the run stream.
type RunTrigger struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
