package dto

import (
	"time"

	"golang-market-stress/internal/entity"
)

// AggregateResult is the market stress metric over every known record.
type AggregateResult struct {
	MarketState   entity.MarketState `json:"market_state"`
	PositiveRatio float64            `json:"positive_ratio"`
	NegativeRatio float64            `json:"negative_ratio"`
	Positive      int                `json:"positive"`
	Negative      int                `json:"negative"`
	Total         int                `json:"total"`
}

// Stage is a step of the market stress pipeline.
type Stage string

const (
	StageFetching      Stage = "fetching"
	StageDeduplicating Stage = "deduplicating"
	StageClassifying   Stage = "classifying"
	StageParsing       Stage = "parsing"
	StageAggregating   Stage = "aggregating"
	StagePersisting    Stage = "persisting"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// ItemFailure is a single news item dropped during classification or parsing.
type ItemFailure struct {
	Title string `json:"title"`
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}

// RunReport describes everything one pipeline run did.
type RunReport struct {
	Result          AggregateResult `json:"result"`
	Stage           Stage           `json:"stage"`
	FailedStage     Stage           `json:"failed_stage,omitempty"`
	Cause           string          `json:"cause,omitempty"`
	SourceError     string          `json:"source_error,omitempty"`
	Candidates      int             `json:"candidates"`
	NewItems        int             `json:"new_items"`
	FreshRecords    int             `json:"fresh_records"`
	HistoricalCount int             `json:"historical_records"`
	ItemFailures    []ItemFailure   `json:"item_failures,omitempty"`
	Write           WriteResult     `json:"write"`
	WriteError      string          `json:"write_error,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     time.Time       `json:"completed_at"`
	Duration        time.Duration   `json:"duration"`
}

// Failed reports whether the run ended in the failed state.
func (r RunReport) Failed() bool {
	return r.Stage == StageFailed
}

// MarketStressResponse is the public shape of a result, as returned by the CLI and API.
type MarketStressResponse struct {
	MarketState   entity.MarketState `json:"market_state"`
	PositiveRatio float64            `json:"positive_ratio"`
	NegativeRatio float64            `json:"negative_ratio"`
	TotalRecords  int                `json:"total_records"`
	ComputedAt    time.Time          `json:"computed_at"`
}

// NewMarketStressResponse builds the public response from a run report.
func NewMarketStressResponse(report RunReport) MarketStressResponse {
	return MarketStressResponse{
		MarketState:   report.Result.MarketState,
		PositiveRatio: report.Result.PositiveRatio,
		NegativeRatio: report.Result.NegativeRatio,
		TotalRecords:  report.Result.Total,
		ComputedAt:    report.CompletedAt,
	}
}

// RunTrigger is the payload published on the run stream.
type RunTrigger struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
