package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
)

const idemKeyPrefix = "ledger:idem:"
const idemKeyTTL = 24 * time.Hour

// LedgerService is the single gate for quantity-affecting operations.
// Appends are idempotent on the caller-supplied key and optimistic on the
// balance version; a lost race returns entity.ErrConcurrentModification and
// the caller retries from a fresh read.
type LedgerService struct {
	store LedgerStore
	rdb   *redis.Client // optional replay fast path; nil disables it
}

func NewLedgerService(store LedgerStore, rdb *redis.Client) *LedgerService {
	return &LedgerService{store: store, rdb: rdb}
}

// AppendInput describes one requested movement. ExpectedVersion, when set,
// pins the append to the balance version the caller computed its delta
// against; a balance that moved since fails with
// entity.ErrConcurrentModification instead of applying the stale delta.
type AppendInput struct {
	ProductCode     string
	Lot             *string
	QtyDelta        decimal.Decimal
	MovementType    string
	ReferenceType   string
	ReferenceID     string
	IdempotencyKey  string
	IsCorrection    bool
	ExpectedVersion *int64
	CreatedBy       string
}

func (in AppendInput) lotKey() string {
	if in.Lot == nil {
		return ""
	}
	return *in.Lot
}

// Append commits one movement and returns the resulting balance. Re-submitting
// the same idempotency key returns the originally computed balance without
// applying the delta again.
func (s *LedgerService) Append(ctx context.Context, in AppendInput) (*entity.StockBalance, error) {
	if in.IdempotencyKey == "" {
		return nil, fmt.Errorf("ledger append: idempotency key is required")
	}

	if prev, err := s.findReplay(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	} else if prev != nil {
		return replayBalance(prev), nil
	}

	bal, err := s.store.Balance(ctx, in.ProductCode, in.lotKey())
	if err != nil {
		return nil, fmt.Errorf("read balance %s: %w", in.ProductCode, err)
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion != bal.Version {
		return nil, fmt.Errorf("product %s: balance moved from version %d to %d: %w",
			in.ProductCode, *in.ExpectedVersion, bal.Version, entity.ErrConcurrentModification)
	}

	newQty := bal.Quantity.Add(in.QtyDelta)
	if newQty.IsNegative() && !in.IsCorrection {
		return nil, fmt.Errorf("product %s: have %s, need %s: %w",
			in.ProductCode, bal.Quantity, in.QtyDelta.Neg(), entity.ErrInsufficientStock)
	}

	entry := s.newEntry(in, newQty)
	if err := s.store.Append(ctx, AppendRequest{Entry: entry, ExpectedVersion: bal.Version}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another writer committed the same key between our replay check
			// and the insert.
			prev, findErr := s.findReplay(ctx, in.IdempotencyKey)
			if findErr == nil && prev != nil {
				return replayBalance(prev), nil
			}
		}
		return nil, err
	}

	s.cacheKey(ctx, in.IdempotencyKey, entry.ID)

	return &entity.StockBalance{
		ProductCode: in.ProductCode,
		Lot:         in.lotKey(),
		Quantity:    newQty,
		Version:     bal.Version + 1,
	}, nil
}

// AppendBatch commits every input or none. Inputs for the same (product, lot)
// are applied in order against a running balance. The first line that would
// go negative fails the whole batch with entity.ErrInsufficientStock naming
// that product.
func (s *LedgerService) AppendBatch(ctx context.Context, ins []AppendInput) error {
	type running struct {
		qty     decimal.Decimal
		version int64
	}
	seen := map[string]*running{}
	reqs := make([]AppendRequest, 0, len(ins))

	for _, in := range ins {
		key := in.ProductCode + "\x00" + in.lotKey()
		r, ok := seen[key]
		if !ok {
			bal, err := s.store.Balance(ctx, in.ProductCode, in.lotKey())
			if err != nil {
				return fmt.Errorf("read balance %s: %w", in.ProductCode, err)
			}
			r = &running{qty: bal.Quantity, version: bal.Version}
			seen[key] = r
		}

		newQty := r.qty.Add(in.QtyDelta)
		if newQty.IsNegative() && !in.IsCorrection {
			return fmt.Errorf("product %s: have %s, need %s: %w",
				in.ProductCode, r.qty, in.QtyDelta.Neg(), entity.ErrInsufficientStock)
		}

		reqs = append(reqs, AppendRequest{
			Entry:           s.newEntry(in, newQty),
			ExpectedVersion: r.version,
		})
		r.qty = newQty
		r.version++
	}

	return s.store.AppendAll(ctx, reqs)
}

// BalanceOf returns the current on-hand quantity for (productCode, lot).
func (s *LedgerService) BalanceOf(ctx context.Context, productCode, lot string) (decimal.Decimal, error) {
	bal, err := s.store.Balance(ctx, productCode, lot)
	if err != nil {
		return decimal.Zero, err
	}
	return bal.Quantity, nil
}

// Snapshot returns the balance row including its version token.
func (s *LedgerService) Snapshot(ctx context.Context, productCode, lot string) (*entity.StockBalance, error) {
	return s.store.Balance(ctx, productCode, lot)
}

func (s *LedgerService) ListEntries(ctx context.Context, params LedgerEntryListParams) ([]entity.StockLedgerEntry, int64, error) {
	return s.store.ListEntries(ctx, params)
}

func (s *LedgerService) ListBalances(ctx context.Context, params BalanceListParams) ([]entity.StockBalance, int64, error) {
	return s.store.ListBalances(ctx, params)
}

func (s *LedgerService) newEntry(in AppendInput, balanceAfter decimal.Decimal) *entity.StockLedgerEntry {
	return &entity.StockLedgerEntry{
		ID:             uuid.New().String(),
		ProductCode:    in.ProductCode,
		Lot:            in.Lot,
		QtyDelta:       in.QtyDelta,
		MovementType:   in.MovementType,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		IdempotencyKey: in.IdempotencyKey,
		IsCorrection:   in.IsCorrection,
		BalanceAfter:   balanceAfter,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      time.Now(),
	}
}

// findReplay looks up a previously committed entry for the key, consulting
// redis before the store.
func (s *LedgerService) findReplay(ctx context.Context, key string) (*entity.StockLedgerEntry, error) {
	if s.rdb != nil {
		if _, err := s.rdb.Get(ctx, idemKeyPrefix+key).Result(); err == nil {
			if entry, ferr := s.store.FindEntryByKey(ctx, key); ferr == nil && entry != nil {
				return entry, nil
			}
		}
	}
	entry, err := s.store.FindEntryByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	return entry, nil
}

func (s *LedgerService) cacheKey(ctx context.Context, key, entryID string) {
	if s.rdb == nil {
		return
	}
	// Best effort; the store's unique index remains authoritative.
	s.rdb.SetNX(ctx, idemKeyPrefix+key, entryID, idemKeyTTL)
}

func replayBalance(entry *entity.StockLedgerEntry) *entity.StockBalance {
	return &entity.StockBalance{
		ProductCode: entry.ProductCode,
		Lot:         entry.LotKey(),
		Quantity:    entry.BalanceAfter,
	}
}
