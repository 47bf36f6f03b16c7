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

func newAssemblyEnv(t *testing.T) *testutil.Env {
	t.Helper()
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)
	env.RegisterProduct("RAW-002", catentity.ProductTypeRaw)
	env.RegisterProduct("GIFT-001", catentity.ProductTypeGiftPackage)
	seedStock(t, env, "RAW-001", 20)
	seedStock(t, env, "RAW-002", 10)
	return env
}

func TestAssembleConsumesAndProduces(t *testing.T) {
	env := newAssemblyEnv(t)

	log, err := env.Services.Assembly.Assemble(context.Background(), service.AssembleRequest{
		GiftPackageCode: "GIFT-001",
		Quantity:        decimal.NewFromInt(2),
		ConsumedItems: []service.ConsumedItemInput{
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(6)},
			{ProductCode: "RAW-002", Quantity: decimal.NewFromInt(4)},
		},
	}, "assembler")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	mustBalance(t, env, "RAW-001", 14)
	mustBalance(t, env, "RAW-002", 6)
	mustBalance(t, env, "GIFT-001", 2)

	if len(log.Items) != 2 {
		t.Errorf("log items = %d, want 2", len(log.Items))
	}
	if log.PerformedBy != "assembler" {
		t.Errorf("performed by = %s", log.PerformedBy)
	}

	entries, _, _ := env.Services.Ledger.ListEntries(context.Background(), service.LedgerEntryListParams{
		ReferenceType: entity.RefTypeGiftPackage, ReferenceID: log.ID,
	})
	if len(entries) != 3 { // two consumptions + one production
		t.Fatalf("log entries = %d, want 3", len(entries))
	}

	got, err := env.Services.Assembly.Get(context.Background(), log.ID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if !got.Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("log quantity = %s, want 2", got.Quantity)
	}
}

func TestAssembleEmptyItemList(t *testing.T) {
	env := newAssemblyEnv(t)

	_, err := env.Services.Assembly.Assemble(context.Background(), service.AssembleRequest{
		GiftPackageCode: "GIFT-001",
		Quantity:        decimal.NewFromInt(1),
	}, "assembler")
	if !errors.Is(err, entity.ErrEmptyAssembly) {
		t.Fatalf("err = %v, want ErrEmptyAssembly", err)
	}
}

func TestAssembleUnknownTarget(t *testing.T) {
	env := newAssemblyEnv(t)

	_, err := env.Services.Assembly.Assemble(context.Background(), service.AssembleRequest{
		GiftPackageCode: "GIFT-404",
		Quantity:        decimal.NewFromInt(1),
		ConsumedItems: []service.ConsumedItemInput{
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(1)},
		},
	}, "assembler")
	if !errors.Is(err, entity.ErrUnknownProduct) {
		t.Fatalf("err = %v, want ErrUnknownProduct", err)
	}
}

// failingAssemblyStore rejects log creation with a preset error.
type failingAssemblyStore struct {
	service.AssemblyStore
	createErr error
}

func (s *failingAssemblyStore) Create(ctx context.Context, log *entity.GiftPackageManufactureLog) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.AssemblyStore.Create(ctx, log)
}

// batchFailsAfter fails every AppendAll call past the nth.
type batchFailsAfter struct {
	service.LedgerStore
	n     int
	calls int
	err   error
}

func (s *batchFailsAfter) AppendAll(ctx context.Context, reqs []service.AppendRequest) error {
	s.calls++
	if s.calls > s.n {
		return s.err
	}
	return s.LedgerStore.AppendAll(ctx, reqs)
}

func TestAssembleLogCreateFailureRevertsLedger(t *testing.T) {
	env := newAssemblyEnv(t)
	createErr := errors.New("log store unavailable")
	failing := &failingAssemblyStore{AssemblyStore: env.Assemblies, createErr: createErr}
	svcs := rewire(env, func(deps *service.Dependencies) { deps.Assemblies = failing })

	_, err := svcs.Assembly.Assemble(context.Background(), service.AssembleRequest{
		GiftPackageCode: "GIFT-001",
		Quantity:        decimal.NewFromInt(1),
		ConsumedItems: []service.ConsumedItemInput{
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(5)},
		},
	}, "assembler")
	if !errors.Is(err, createErr) {
		t.Fatalf("err = %v, want the store error", err)
	}

	// The committed consumption was reverted; no log, no ledger effect.
	mustBalance(t, env, "RAW-001", 20)
	mustBalance(t, env, "GIFT-001", 0)
	logs, total, _ := env.Services.Assembly.List(context.Background(), 1, 20)
	if total != 0 || len(logs) != 0 {
		t.Errorf("logs = %d, want 0", len(logs))
	}
}

func TestAssembleFailedReversalSurfacesBothErrors(t *testing.T) {
	env := newAssemblyEnv(t)
	createErr := errors.New("log store unavailable")
	ledgerErr := errors.New("ledger unavailable")
	svcs := rewire(env, func(deps *service.Dependencies) {
		deps.Assemblies = &failingAssemblyStore{AssemblyStore: env.Assemblies, createErr: createErr}
		// First batch (the consumption) lands, the reversal cannot.
		deps.Ledger = &batchFailsAfter{LedgerStore: env.Ledger, n: 1, err: ledgerErr}
	})

	_, err := svcs.Assembly.Assemble(context.Background(), service.AssembleRequest{
		GiftPackageCode: "GIFT-001",
		Quantity:        decimal.NewFromInt(1),
		ConsumedItems: []service.ConsumedItemInput{
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(5)},
		},
	}, "assembler")
	if !errors.Is(err, createErr) {
		t.Fatalf("err = %v, want the log store error", err)
	}
	if !errors.Is(err, ledgerErr) {
		t.Fatalf("err = %v, must also carry the reversal failure", err)
	}
}

func TestAssembleInsufficientStockIsAtomic(t *testing.T) {
	env := newAssemblyEnv(t)

	_, err := env.Services.Assembly.Assemble(context.Background(), service.AssembleRequest{
		GiftPackageCode: "GIFT-001",
		Quantity:        decimal.NewFromInt(1),
		ConsumedItems: []service.ConsumedItemInput{
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(5)},
			{ProductCode: "RAW-002", Quantity: decimal.NewFromInt(99)},
		},
	}, "assembler")
	if !errors.Is(err, entity.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// The failed line must not leave a partial consumption behind.
	mustBalance(t, env, "RAW-001", 20)
	mustBalance(t, env, "RAW-002", 10)
	mustBalance(t, env, "GIFT-001", 0)

	logs, total, err := env.Services.Assembly.List(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if total != 0 || len(logs) != 0 {
		t.Errorf("logs = %d, want 0", len(logs))
	}
}
