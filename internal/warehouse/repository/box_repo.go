package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

// BoxRepository is the postgres-backed transport-box store. State-affecting
// writes are guarded with "WHERE state = ?" so concurrent transitions lose
// cleanly instead of overwriting.
type BoxRepository struct {
	db *gorm.DB
}

func NewBoxRepository(db *gorm.DB) *BoxRepository {
	return &BoxRepository{db: db}
}

var _ service.BoxStore = (*BoxRepository)(nil)

func (r *BoxRepository) Create(ctx context.Context, box *entity.TransportBox) error {
	return r.db.WithContext(ctx).Create(box).Error
}

func (r *BoxRepository) Get(ctx context.Context, id string) (*entity.TransportBox, error) {
	var box entity.TransportBox
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at, id") }).
		Preload("StateChanges", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at, id") }).
		Preload("PickingLines").
		Where("id = ?", id).First(&box).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("box %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &box, nil
}

func (r *BoxRepository) List(ctx context.Context, params service.BoxListParams) ([]entity.TransportBox, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.TransportBox{})
	if params.State != "" {
		query = query.Where("state = ?", params.State)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR description ILIKE ?", kw, kw)
	}

	var total int64
	query.Count(&total)

	page, size := normalizePage(params.Page, params.Size)
	var boxes []entity.TransportBox
	err := query.Preload("Items").Order("updated_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&boxes).Error
	return boxes, total, err
}

func (r *BoxRepository) AddItem(ctx context.Context, boxID string, expected entity.BoxState, item *entity.TransportBoxItem, change *entity.TransportBoxStateChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if change != nil {
			if err := casState(tx, boxID, change); err != nil {
				return err
			}
		} else {
			if err := touchBox(tx, boxID, expected); err != nil {
				return err
			}
		}
		return tx.Create(item).Error
	})
}

func (r *BoxRepository) RemoveItem(ctx context.Context, boxID string, expected entity.BoxState, productCode string, lot *string, qty decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touchBox(tx, boxID, expected); err != nil {
			return err
		}

		query := tx.Where("box_id = ? AND product_code = ?", boxID, productCode)
		if lot == nil {
			query = query.Where("lot IS NULL")
		} else {
			query = query.Where("lot = ?", *lot)
		}
		var rows []entity.TransportBoxItem
		if err := query.Order("added_at DESC, id DESC").Find(&rows).Error; err != nil {
			return err
		}

		remaining := qty
		for _, row := range rows {
			if !remaining.IsPositive() {
				break
			}
			if row.Quantity.LessThanOrEqual(remaining) {
				if err := tx.Delete(&entity.TransportBoxItem{}, "id = ?", row.ID).Error; err != nil {
					return err
				}
				remaining = remaining.Sub(row.Quantity)
				continue
			}
			if err := tx.Model(&entity.TransportBoxItem{}).Where("id = ?", row.ID).
				Update("quantity", row.Quantity.Sub(remaining)).Error; err != nil {
				return err
			}
			remaining = decimal.Zero
		}
		if remaining.IsPositive() {
			return fmt.Errorf("box %s holds less than %s of %s: %w", boxID, qty, productCode, entity.ErrInsufficientStock)
		}
		return nil
	})
}

func (r *BoxRepository) UpdateState(ctx context.Context, boxID string, change *entity.TransportBoxStateChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return casState(tx, boxID, change)
	})
}

func (r *BoxRepository) SavePickingList(ctx context.Context, boxID string, lines []entity.PickingLine, change *entity.TransportBoxStateChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casState(tx, boxID, change); err != nil {
			return err
		}
		if err := tx.Delete(&entity.PickingLine{}, "box_id = ?", boxID).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

func (r *BoxRepository) MarkLinePicked(ctx context.Context, boxID, productCode, userID string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&entity.PickingLine{}).
		Where("box_id = ? AND product_code = ?", boxID, productCode).
		Updates(map[string]interface{}{"picked": true, "picked_by": userID, "picked_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("picking line %s on box %s: %w", productCode, boxID, entity.ErrNotFound)
	}
	return nil
}

// casState applies change.FromState -> change.ToState and records the
// transition, failing when the box already moved.
func casState(tx *gorm.DB, boxID string, change *entity.TransportBoxStateChange) error {
	res := tx.Model(&entity.TransportBox{}).
		Where("id = ? AND state = ?", boxID, change.FromState).
		Updates(map[string]interface{}{"state": change.ToState, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("box %s no longer in state %s: %w", boxID, change.FromState, entity.ErrConcurrentModification)
	}
	return tx.Create(change).Error
}

// touchBox bumps updated_at while asserting the box is still in the
// expected state.
func touchBox(tx *gorm.DB, boxID string, expected entity.BoxState) error {
	res := tx.Model(&entity.TransportBox{}).
		Where("id = ? AND state = ?", boxID, expected).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("box %s no longer in state %s: %w", boxID, expected, entity.ErrConcurrentModification)
	}
	return nil
}
