package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// MarketState is the binary label derived from the sentiment ratio.
type MarketState string

const (
	MarketStateOptimistic MarketState = "optimistic"
	MarketStateStressed   MarketState = "stressed"
)

// RunStatus is the terminal status of a pipeline run.
type RunStatus string

const (
	RunStatusDone   RunStatus = "done"
	RunStatusFailed RunStatus = "failed"
)

// MarketStressRun records the outcome of one pipeline run.
type MarketStressRun struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Status        RunStatus      `gorm:"type:varchar(16);not null" json:"status"`
	FailedStage   string         `gorm:"type:varchar(32)" json:"failed_stage,omitempty"`
	MarketState   MarketState    `gorm:"type:varchar(16);not null" json:"market_state"`
	PositiveRatio float64        `json:"positive_ratio"`
	NegativeRatio float64        `json:"negative_ratio"`
	TotalRecords  int            `json:"total_records"`
	FreshRecords  int            `json:"fresh_records"`
	WrittenRows   int            `json:"written_rows"`
	FailedTitles  pq.StringArray `gorm:"type:text[]" json:"failed_titles"`
	Report        datatypes.JSON `json:"report"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   time.Time      `json:"completed_at"`
	DurationMs    int64          `json:"duration_ms"`
}

// TableName specifies the table name for the MarketStressRun model.
func (MarketStressRun) TableName() string {
	return "market_stress_runs"
}
