package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	catentity "github.com/onpaj/heblo/internal/catalog/entity"
	"github.com/onpaj/heblo/internal/testutil"
	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

func newStockTakingEnv(t *testing.T) *testutil.Env {
	t.Helper()
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)
	env.RegisterProduct("RAW-002", catentity.ProductTypeRaw)
	seedStock(t, env, "RAW-001", 10)
	seedStock(t, env, "RAW-002", 5)
	return env
}

func TestReconcileAppendsCorrections(t *testing.T) {
	env := newStockTakingEnv(t)

	run, err := env.Services.StockTaking.Reconcile(context.Background(), service.ReconcileRequest{
		Lines: []service.StockTakingLineInput{
			{ProductCode: "RAW-001", CountedQty: decimal.NewFromInt(7)},
			{ProductCode: "RAW-002", CountedQty: decimal.NewFromInt(8)},
		},
	}, "counter")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if run.Type != entity.StockTakingTypePhysical {
		t.Errorf("run type = %s, want PHYSICAL", run.Type)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(run.Results))
	}

	mustBalance(t, env, "RAW-001", 7)
	mustBalance(t, env, "RAW-002", 8)

	first := run.Results[0]
	if !first.PreviousQty.Equal(decimal.NewFromInt(10)) {
		t.Errorf("previous qty = %s, want 10", first.PreviousQty)
	}
	if first.Failed() {
		t.Errorf("unexpected failure: %s", *first.Error)
	}

	entries, _, _ := env.Services.Ledger.ListEntries(context.Background(), service.LedgerEntryListParams{
		ProductCode: "RAW-001", ReferenceType: entity.RefTypeStockTaking, ReferenceID: run.ID,
	})
	if len(entries) != 1 {
		t.Fatalf("correction entries = %d, want 1", len(entries))
	}
	if !entries[0].IsCorrection {
		t.Error("correction entry not flagged")
	}
	if !entries[0].QtyDelta.Equal(decimal.NewFromInt(-3)) {
		t.Errorf("delta = %s, want -3", entries[0].QtyDelta)
	}
}

func TestReconcileZeroDriftWritesNoEntry(t *testing.T) {
	env := newStockTakingEnv(t)

	run, err := env.Services.StockTaking.Reconcile(context.Background(), service.ReconcileRequest{
		Lines: []service.StockTakingLineInput{
			{ProductCode: "RAW-001", CountedQty: decimal.NewFromInt(10)},
		},
	}, "counter")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	entries, _, _ := env.Services.Ledger.ListEntries(context.Background(), service.LedgerEntryListParams{
		ReferenceType: entity.RefTypeStockTaking, ReferenceID: run.ID,
	})
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
	// The observation is still recorded.
	if len(run.Results) != 1 || run.Results[0].Failed() {
		t.Fatalf("expected one successful result, got %+v", run.Results)
	}
}

func TestReconcileLineFailureDoesNotHaltRun(t *testing.T) {
	env := newStockTakingEnv(t)

	run, err := env.Services.StockTaking.Reconcile(context.Background(), service.ReconcileRequest{
		Lines: []service.StockTakingLineInput{
			{ProductCode: "NOPE-001", CountedQty: decimal.NewFromInt(1)},
			{ProductCode: "RAW-001", CountedQty: decimal.NewFromInt(4)},
		},
	}, "counter")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(run.Results))
	}
	if !run.Results[0].Failed() {
		t.Error("unknown-product line should have failed")
	}
	if run.Results[1].Failed() {
		t.Errorf("second line failed: %s", *run.Results[1].Error)
	}
	mustBalance(t, env, "RAW-001", 4)
}

// interceptingLedgerStore runs a hook once after the next balance read,
// opening the window between a reconcile snapshot and its correction.
type interceptingLedgerStore struct {
	service.LedgerStore
	afterBalance func()
}

func (s *interceptingLedgerStore) Balance(ctx context.Context, productCode, lot string) (*entity.StockBalance, error) {
	bal, err := s.LedgerStore.Balance(ctx, productCode, lot)
	if s.afterBalance != nil {
		hook := s.afterBalance
		s.afterBalance = nil
		hook()
	}
	return bal, err
}

func TestReconcileConcurrentMovementYieldsConflictResult(t *testing.T) {
	env := newStockTakingEnv(t)
	wrapped := &interceptingLedgerStore{LedgerStore: env.Ledger}
	svcs := rewire(env, func(deps *service.Dependencies) { deps.Ledger = wrapped })

	// An unrelated movement lands between the reconcile read and the
	// correction append.
	wrapped.afterBalance = func() {
		if _, err := env.Services.Ledger.Append(context.Background(), service.AppendInput{
			ProductCode:    "RAW-001",
			QtyDelta:       decimal.NewFromInt(-2),
			MovementType:   entity.MovementTypeBoxLoad,
			ReferenceType:  entity.RefTypeBox,
			ReferenceID:    "box-77",
			IdempotencyKey: "load:box-77:RAW-001",
		}); err != nil {
			t.Fatalf("interleaved movement: %v", err)
		}
	}

	run, err := svcs.StockTaking.Reconcile(context.Background(), service.ReconcileRequest{
		Lines: []service.StockTakingLineInput{
			{ProductCode: "RAW-001", CountedQty: decimal.NewFromInt(10)},
			{ProductCode: "RAW-002", CountedQty: decimal.NewFromInt(9)},
		},
	}, "counter")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(run.Results))
	}

	// The stale count must surface as a conflict on the result, not be
	// absorbed into a balance that matches neither count nor movement.
	if !run.Results[0].Failed() {
		t.Fatal("line with interleaved movement should carry an error")
	}
	if run.Results[1].Failed() {
		t.Errorf("sibling line failed: %s", *run.Results[1].Error)
	}
	mustBalance(t, env, "RAW-001", 8) // seed 10, concurrent -2, no stale correction
	mustBalance(t, env, "RAW-002", 9)

	// Re-running the failed line evaluates the moved balance.
	result, err := svcs.StockTaking.ReconcileLine(context.Background(), run.ID,
		service.StockTakingLineInput{ProductCode: "RAW-001", CountedQty: decimal.NewFromInt(10)}, "counter")
	if err != nil {
		t.Fatalf("reconcile line: %v", err)
	}
	if result.Failed() {
		t.Fatalf("re-run failed: %s", *result.Error)
	}
	mustBalance(t, env, "RAW-001", 10)
}

// flakyRunStore fails run lookups with a preset error.
type flakyRunStore struct {
	service.StockTakingStore
	getErr error
}

func (s *flakyRunStore) GetRun(ctx context.Context, id string) (*entity.StockTakingRun, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.StockTakingStore.GetRun(ctx, id)
}

func TestReconcileRunLookupFailureAborts(t *testing.T) {
	env := newStockTakingEnv(t)
	storeDown := errors.New("run store unavailable")
	flaky := &flakyRunStore{StockTakingStore: env.StockTaking, getErr: storeDown}
	svcs := rewire(env, func(deps *service.Dependencies) { deps.StockTaking = flaky })

	// A transient lookup failure on an existing id must not fall through to
	// creating a duplicate run.
	_, err := svcs.StockTaking.Reconcile(context.Background(), service.ReconcileRequest{
		RunID: "run-1",
		Lines: []service.StockTakingLineInput{
			{ProductCode: "RAW-001", CountedQty: decimal.NewFromInt(4)},
		},
	}, "counter")
	if !errors.Is(err, storeDown) {
		t.Fatalf("err = %v, want the store error", err)
	}
	if _, err := env.Services.StockTaking.GetRun(context.Background(), "run-1"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("run-1 lookup err = %v, want ErrNotFound", err)
	}
	mustBalance(t, env, "RAW-001", 10)
}

func TestReconcileCountToZeroAndRecount(t *testing.T) {
	env := newStockTakingEnv(t)

	run, err := env.Services.StockTaking.Reconcile(context.Background(), service.ReconcileRequest{
		Type: entity.StockTakingTypeSystem,
		Lines: []service.StockTakingLineInput{
			{ProductCode: "RAW-001", CountedQty: decimal.Zero},
		},
	}, "counter")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	mustBalance(t, env, "RAW-001", 0)

	// Re-running a line evaluates the current balance, not the old one.
	result, err := env.Services.StockTaking.ReconcileLine(context.Background(), run.ID,
		service.StockTakingLineInput{ProductCode: "RAW-001", CountedQty: decimal.NewFromInt(3)}, "counter")
	if err != nil {
		t.Fatalf("reconcile line: %v", err)
	}
	if !result.PreviousQty.IsZero() {
		t.Errorf("previous qty = %s, want 0", result.PreviousQty)
	}
	mustBalance(t, env, "RAW-001", 3)

	results, err := env.Services.StockTaking.Results(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("stored results = %d, want 2", len(results))
	}
}
