package service

import (
	"context"

	"github.com/shopspring/decimal"

	catentity "github.com/onpaj/heblo/internal/catalog/entity"
	"github.com/onpaj/heblo/internal/warehouse/entity"
)

// AppendRequest carries one ledger entry plus the balance version it was
// validated against. The store applies the entry only if the (product, lot)
// balance is still at ExpectedVersion; otherwise it returns
// entity.ErrConcurrentModification and persists nothing.
type AppendRequest struct {
	Entry           *entity.StockLedgerEntry
	ExpectedVersion int64
}

// LedgerEntryListParams filters the movement log.
type LedgerEntryListParams struct {
	ProductCode   string
	ReferenceType string
	ReferenceID   string
	Page          int
	Size          int
}

// BalanceListParams filters derived balances.
type BalanceListParams struct {
	ProductCode string
	Page        int
	Size        int
}

// LedgerStore is the persistence boundary for the append-only movement log
// and the derived balances.
type LedgerStore interface {
	// FindEntryByKey returns the committed entry for an idempotency key, or
	// (nil, nil) when the key has never been applied.
	FindEntryByKey(ctx context.Context, key string) (*entity.StockLedgerEntry, error)

	// Balance returns the current balance row for (productCode, lot), lot
	// normalized per entity.StockLedgerEntry.LotKey. A missing row comes back
	// as a zero balance with Version 0.
	Balance(ctx context.Context, productCode, lot string) (*entity.StockBalance, error)

	// Append commits one entry. It fails with ErrConcurrentModification when
	// the balance version moved, ErrInsufficientStock when a non-correction
	// entry would drive the balance negative, and gorm duplicate-key errors
	// surface to the caller for idempotent replay handling.
	Append(ctx context.Context, req AppendRequest) error

	// AppendAll commits every request or none of them.
	AppendAll(ctx context.Context, reqs []AppendRequest) error

	ListEntries(ctx context.Context, params LedgerEntryListParams) ([]entity.StockLedgerEntry, int64, error)
	ListBalances(ctx context.Context, params BalanceListParams) ([]entity.StockBalance, int64, error)
}

// BoxListParams filters transport boxes.
type BoxListParams struct {
	State   entity.BoxState
	Keyword string
	Page    int
	Size    int
}

// BoxStore persists transport boxes. All state-affecting methods are
// compare-and-swap on the expected current state and return
// entity.ErrConcurrentModification when the box moved underneath the caller.
type BoxStore interface {
	Create(ctx context.Context, box *entity.TransportBox) error
	Get(ctx context.Context, id string) (*entity.TransportBox, error)
	List(ctx context.Context, params BoxListParams) ([]entity.TransportBox, int64, error)

	// AddItem appends an item row while the box is in expected state. A
	// non-nil change flips the state in the same operation (New -> ItemsLoading).
	AddItem(ctx context.Context, boxID string, expected entity.BoxState, item *entity.TransportBoxItem, change *entity.TransportBoxStateChange) error

	// RemoveItem takes qty of (productCode, lot) out of the box's item rows,
	// newest rows first. A nil lot matches only lot-less rows.
	RemoveItem(ctx context.Context, boxID string, expected entity.BoxState, productCode string, lot *string, qty decimal.Decimal) error

	// UpdateState performs the CAS transition recorded by change
	// (change.FromState is the expected state).
	UpdateState(ctx context.Context, boxID string, change *entity.TransportBoxStateChange) error

	// SavePickingList stores the generated lines and transitions the box in
	// one operation.
	SavePickingList(ctx context.Context, boxID string, lines []entity.PickingLine, change *entity.TransportBoxStateChange) error

	MarkLinePicked(ctx context.Context, boxID, productCode, userID string) error
}

// AssemblyStore persists gift-package manufacture logs.
type AssemblyStore interface {
	Create(ctx context.Context, log *entity.GiftPackageManufactureLog) error
	Get(ctx context.Context, id string) (*entity.GiftPackageManufactureLog, error)
	List(ctx context.Context, page, size int) ([]entity.GiftPackageManufactureLog, int64, error)
}

// StockTakingStore persists reconciliation runs and their per-line results.
type StockTakingStore interface {
	CreateRun(ctx context.Context, run *entity.StockTakingRun) error
	GetRun(ctx context.Context, id string) (*entity.StockTakingRun, error)
	ListRuns(ctx context.Context, page, size int) ([]entity.StockTakingRun, int64, error)
	CreateResult(ctx context.Context, result *entity.StockTakingResult) error
	ListResults(ctx context.Context, runID string) ([]entity.StockTakingResult, error)
}

// CatalogResolver resolves product codes against catalog master data.
// Implementations return entity.ErrUnknownProduct for codes that do not
// exist.
type CatalogResolver interface {
	Resolve(ctx context.Context, code string) (*catentity.Product, error)
}
