package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/onpaj/heblo/internal/warehouse/entity"
)

// AssemblyService records gift-package manufacture: raw items consumed into
// a finished composite product. Execution is all-or-nothing; a partial
// consumption is never observable.
type AssemblyService struct {
	store     AssemblyStore
	ledger    *LedgerService
	validator *MovementValidator
}

func NewAssemblyService(store AssemblyStore, ledger *LedgerService, validator *MovementValidator) *AssemblyService {
	return &AssemblyService{store: store, ledger: ledger, validator: validator}
}

type ConsumedItemInput struct {
	ProductCode string          `json:"product_code" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Lot         *string         `json:"lot"`
}

type AssembleRequest struct {
	GiftPackageCode string              `json:"gift_package_code" binding:"required"`
	Quantity        decimal.Decimal     `json:"quantity" binding:"required"`
	ConsumedItems   []ConsumedItemInput `json:"consumed_items" binding:"required"`
}

// Assemble validates every consumed line, commits all consumption entries
// plus the finished-goods increment as one atomic batch, and creates the
// immutable manufacture log. The first failing product names the error.
func (s *AssemblyService) Assemble(ctx context.Context, req AssembleRequest, userID string) (*entity.GiftPackageManufactureLog, error) {
	if len(req.ConsumedItems) == 0 {
		return nil, entity.ErrEmptyAssembly
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("produced quantity must be positive")
	}
	if _, err := s.validator.catalog.Resolve(ctx, req.GiftPackageCode); err != nil {
		return nil, err
	}

	logID := uuid.New().String()
	now := time.Now()

	inputs := make([]AppendInput, 0, len(req.ConsumedItems)+1)
	items := make([]entity.GiftPackageManufactureItem, 0, len(req.ConsumedItems))
	for _, line := range req.ConsumedItems {
		if _, err := s.validator.ValidateConsumption(ctx, line.ProductCode, line.Lot, line.Quantity); err != nil {
			return nil, err
		}
		inputs = append(inputs, AppendInput{
			ProductCode:    line.ProductCode,
			Lot:            line.Lot,
			QtyDelta:       line.Quantity.Neg(),
			MovementType:   entity.MovementTypeAssemblyOut,
			ReferenceType:  entity.RefTypeGiftPackage,
			ReferenceID:    logID,
			IdempotencyKey: fmt.Sprintf("assembly:%s:%s", logID, line.ProductCode),
			CreatedBy:      userID,
		})
		items = append(items, entity.GiftPackageManufactureItem{
			ID:          uuid.New().String(),
			LogID:       logID,
			ProductCode: line.ProductCode,
			Quantity:    line.Quantity,
			Lot:         line.Lot,
		})
	}

	inputs = append(inputs, AppendInput{
		ProductCode:    req.GiftPackageCode,
		QtyDelta:       req.Quantity,
		MovementType:   entity.MovementTypeProductionIn,
		ReferenceType:  entity.RefTypeGiftPackage,
		ReferenceID:    logID,
		IdempotencyKey: fmt.Sprintf("assembly:%s:in", logID),
		CreatedBy:      userID,
	})

	if err := s.ledger.AppendBatch(ctx, inputs); err != nil {
		return nil, err
	}

	log := &entity.GiftPackageManufactureLog{
		ID:              logID,
		GiftPackageCode: req.GiftPackageCode,
		Quantity:        req.Quantity,
		PerformedBy:     userID,
		CreatedAt:       now,
		Items:           items,
	}
	if err := s.store.Create(ctx, log); err != nil {
		// The movements committed; undo them so the failed assembly leaves
		// no ledger effect.
		reversals := make([]AppendInput, 0, len(inputs))
		for _, in := range inputs {
			in.QtyDelta = in.QtyDelta.Neg()
			in.IdempotencyKey = in.IdempotencyKey + ":undo"
			in.IsCorrection = true
			reversals = append(reversals, in)
		}
		err = fmt.Errorf("create manufacture log: %w", err)
		if rerr := s.ledger.AppendBatch(ctx, reversals); rerr != nil {
			// The consumption is stranded on the ledger; surface both causes.
			return nil, errors.Join(err, fmt.Errorf("revert consumption for %s: %w", logID, rerr))
		}
		return nil, err
	}
	return log, nil
}

func (s *AssemblyService) Get(ctx context.Context, id string) (*entity.GiftPackageManufactureLog, error) {
	return s.store.Get(ctx, id)
}

func (s *AssemblyService) List(ctx context.Context, page, size int) ([]entity.GiftPackageManufactureLog, int64, error) {
	return s.store.List(ctx, page, size)
}
