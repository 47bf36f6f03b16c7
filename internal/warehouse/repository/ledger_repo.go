package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

// LedgerRepository is the postgres-backed ledger store. Balance rows start
// at version 1 on first append, so an expected version of 0 always means
// "no balance row yet".
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var _ service.LedgerStore = (*LedgerRepository)(nil)

func (r *LedgerRepository) FindEntryByKey(ctx context.Context, key string) (*entity.StockLedgerEntry, error) {
	var entry entity.StockLedgerEntry
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, productCode, lot string) (*entity.StockBalance, error) {
	var bal entity.StockBalance
	err := r.db.WithContext(ctx).Where("product_code = ? AND lot = ?", productCode, lot).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entity.StockBalance{ProductCode: productCode, Lot: lot, Quantity: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

func (r *LedgerRepository) Append(ctx context.Context, req service.AppendRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyAppend(tx, req)
	})
}

func (r *LedgerRepository) AppendAll(ctx context.Context, reqs []service.AppendRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, req := range reqs {
			if err := applyAppend(tx, req); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyAppend(tx *gorm.DB, req service.AppendRequest) error {
	entry := req.Entry
	if err := tx.Create(entry).Error; err != nil {
		// Duplicated idempotency key surfaces to the service for replay.
		return err
	}

	if req.ExpectedVersion == 0 {
		bal := &entity.StockBalance{
			ID:          uuid.New().String(),
			ProductCode: entry.ProductCode,
			Lot:         entry.LotKey(),
			Quantity:    entry.BalanceAfter,
			Version:     1,
			UpdatedAt:   time.Now(),
		}
		if err := tx.Create(bal).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("balance for %s created concurrently: %w", entry.ProductCode, entity.ErrConcurrentModification)
			}
			return err
		}
		return nil
	}

	res := tx.Model(&entity.StockBalance{}).
		Where("product_code = ? AND lot = ? AND version = ?", entry.ProductCode, entry.LotKey(), req.ExpectedVersion).
		Updates(map[string]interface{}{
			"quantity":   entry.BalanceAfter,
			"version":    req.ExpectedVersion + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("balance for %s moved past version %d: %w", entry.ProductCode, req.ExpectedVersion, entity.ErrConcurrentModification)
	}
	return nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, params service.LedgerEntryListParams) ([]entity.StockLedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockLedgerEntry{})
	if params.ProductCode != "" {
		query = query.Where("product_code = ?", params.ProductCode)
	}
	if params.ReferenceType != "" {
		query = query.Where("reference_type = ?", params.ReferenceType)
	}
	if params.ReferenceID != "" {
		query = query.Where("reference_id = ?", params.ReferenceID)
	}

	var total int64
	query.Count(&total)

	page, size := normalizePage(params.Page, params.Size)
	var entries []entity.StockLedgerEntry
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&entries).Error
	return entries, total, err
}

func (r *LedgerRepository) ListBalances(ctx context.Context, params service.BalanceListParams) ([]entity.StockBalance, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockBalance{})
	if params.ProductCode != "" {
		query = query.Where("product_code = ?", params.ProductCode)
	}

	var total int64
	query.Count(&total)

	page, size := normalizePage(params.Page, params.Size)
	var balances []entity.StockBalance
	err := query.Order("product_code, lot").Offset((page - 1) * size).Limit(size).Find(&balances).Error
	return balances, total, err
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}
