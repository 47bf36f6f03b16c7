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

// StockTakingService reconciles physical counts against the ledger. Lines
// are independent observations: each produces a durable result as it
// completes and a failed line never halts or rolls back its siblings.
type StockTakingService struct {
	store   StockTakingStore
	ledger  *LedgerService
	catalog CatalogResolver
}

func NewStockTakingService(store StockTakingStore, ledger *LedgerService, catalog CatalogResolver) *StockTakingService {
	return &StockTakingService{store: store, ledger: ledger, catalog: catalog}
}

type StockTakingLineInput struct {
	ProductCode string          `json:"product_code" binding:"required"`
	Lot         *string         `json:"lot"`
	CountedQty  decimal.Decimal `json:"counted_qty"`
}

type ReconcileRequest struct {
	RunID string                 `json:"run_id"`
	Type  string                 `json:"type"`
	Lines []StockTakingLineInput `json:"lines" binding:"required"`
}

// Reconcile processes each line in order: read the current balance, append a
// correction entry for the drift, record the outcome. Re-running a run id
// re-evaluates current state; it does not replay old values.
func (s *StockTakingService) Reconcile(ctx context.Context, req ReconcileRequest, userID string) (*entity.StockTakingRun, error) {
	runType := req.Type
	if runType == "" {
		runType = entity.StockTakingTypePhysical
	}

	run, err := s.ensureRun(ctx, req.RunID, runType, userID)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		result := s.reconcileLine(ctx, run, line, userID)
		if err := s.store.CreateResult(ctx, result); err != nil {
			return nil, fmt.Errorf("record result for %s: %w", line.ProductCode, err)
		}
		run.Results = append(run.Results, *result)
	}
	return run, nil
}

// ReconcileLine re-runs a single line of an existing run, typically after an
// earlier attempt recorded a conflict.
func (s *StockTakingService) ReconcileLine(ctx context.Context, runID string, line StockTakingLineInput, userID string) (*entity.StockTakingResult, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	result := s.reconcileLine(ctx, run, line, userID)
	if err := s.store.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("record result for %s: %w", line.ProductCode, err)
	}
	return result, nil
}

// reconcileLine never fails the run; any error lands on the result so the
// operator can re-run just that line.
func (s *StockTakingService) reconcileLine(ctx context.Context, run *entity.StockTakingRun, line StockTakingLineInput, userID string) *entity.StockTakingResult {
	result := &entity.StockTakingResult{
		ID:          uuid.New().String(),
		RunID:       run.ID,
		Type:        run.Type,
		ProductCode: line.ProductCode,
		Lot:         line.Lot,
		CountedQty:  line.CountedQty,
		PreviousQty: decimal.Zero,
		PerformedBy: userID,
		CreatedAt:   time.Now(),
	}

	if _, err := s.catalog.Resolve(ctx, line.ProductCode); err != nil {
		return failResult(result, err)
	}

	lotKey := ""
	if line.Lot != nil {
		lotKey = *line.Lot
	}
	snapshot, err := s.ledger.Snapshot(ctx, line.ProductCode, lotKey)
	if err != nil {
		return failResult(result, err)
	}
	result.PreviousQty = snapshot.Quantity

	delta := line.CountedQty.Sub(snapshot.Quantity)
	if delta.IsZero() {
		return result
	}

	// Corrections are the source-of-truth fix and are always permitted,
	// even when they drive the balance negative. The append is pinned to the
	// snapshot the delta was computed from: a movement committed in between
	// fails the line with a conflict the operator can re-run, instead of
	// landing the balance somewhere other than the counted amount.
	if _, err := s.ledger.Append(ctx, AppendInput{
		ProductCode:     line.ProductCode,
		Lot:             line.Lot,
		QtyDelta:        delta,
		MovementType:    entity.MovementTypeCorrection,
		ReferenceType:   entity.RefTypeStockTaking,
		ReferenceID:     run.ID,
		IdempotencyKey:  "stocktaking:" + result.ID,
		IsCorrection:    true,
		ExpectedVersion: &snapshot.Version,
		CreatedBy:       userID,
	}); err != nil {
		return failResult(result, err)
	}
	return result
}

func (s *StockTakingService) ensureRun(ctx context.Context, runID, runType, userID string) (*entity.StockTakingRun, error) {
	if runID != "" {
		run, err := s.store.GetRun(ctx, runID)
		if err == nil {
			run.Results = nil
			return run, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("load stock-taking run %s: %w", runID, err)
		}
	}

	run := &entity.StockTakingRun{
		ID:          runID,
		Type:        runType,
		PerformedBy: userID,
		CreatedAt:   time.Now(),
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create stock-taking run: %w", err)
	}
	return run, nil
}

func (s *StockTakingService) GetRun(ctx context.Context, id string) (*entity.StockTakingRun, error) {
	return s.store.GetRun(ctx, id)
}

func (s *StockTakingService) ListRuns(ctx context.Context, page, size int) ([]entity.StockTakingRun, int64, error) {
	return s.store.ListRuns(ctx, page, size)
}

func (s *StockTakingService) Results(ctx context.Context, runID string) ([]entity.StockTakingResult, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.ListResults(ctx, runID)
}

func failResult(result *entity.StockTakingResult, err error) *entity.StockTakingResult {
	msg := err.Error()
	result.Error = &msg
	return result
}
