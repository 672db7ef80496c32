package repository

import (
	"context"

	"golang-market-stress/internal/entity"

	"gorm.io/gorm"
)

// NewMarketStressRunRepository creates a GORM-based run history repository.
func NewMarketStressRunRepository(db *gorm.DB) MarketStressRunRepository {
	return &marketStressRunRepository{db: db}
}

type marketStressRunRepository struct {
	db *gorm.DB
}

// Create saves a finished run.
func (r *marketStressRunRepository) Create(ctx context.Context, run *entity.MarketStressRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}
