package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

type StockTakingRepository struct {
	db *gorm.DB
}

func NewStockTakingRepository(db *gorm.DB) *StockTakingRepository {
	return &StockTakingRepository{db: db}
}

var _ service.StockTakingStore = (*StockTakingRepository)(nil)

func (r *StockTakingRepository) CreateRun(ctx context.Context, run *entity.StockTakingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *StockTakingRepository) GetRun(ctx context.Context, id string) (*entity.StockTakingRun, error) {
	var run entity.StockTakingRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("stock-taking run %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *StockTakingRepository) ListRuns(ctx context.Context, page, size int) ([]entity.StockTakingRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockTakingRun{})

	var total int64
	query.Count(&total)

	page, size = normalizePage(page, size)
	var runs []entity.StockTakingRun
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&runs).Error
	return runs, total, err
}

func (r *StockTakingRepository) CreateResult(ctx context.Context, result *entity.StockTakingResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *StockTakingRepository) ListResults(ctx context.Context, runID string) ([]entity.StockTakingResult, error) {
	var results []entity.StockTakingResult
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("created_at, id").Find(&results).Error
	return results, err
}
