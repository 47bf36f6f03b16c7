package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

type GiftPackageRepository struct {
	db *gorm.DB
}

func NewGiftPackageRepository(db *gorm.DB) *GiftPackageRepository {
	return &GiftPackageRepository{db: db}
}

var _ service.AssemblyStore = (*GiftPackageRepository)(nil)

func (r *GiftPackageRepository) Create(ctx context.Context, log *entity.GiftPackageManufactureLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *GiftPackageRepository) Get(ctx context.Context, id string) (*entity.GiftPackageManufactureLog, error) {
	var log entity.GiftPackageManufactureLog
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("manufacture log %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *GiftPackageRepository) List(ctx context.Context, page, size int) ([]entity.GiftPackageManufactureLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.GiftPackageManufactureLog{})

	var total int64
	query.Count(&total)

	page, size = normalizePage(page, size)
	var logs []entity.GiftPackageManufactureLog
	err := query.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&logs).Error
	return logs, total, err
}
