// Package memory provides in-memory implementations of the warehouse store
// interfaces. They mirror the postgres stores' optimistic-concurrency
// semantics and back the engine's tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

type LedgerStore struct {
	mu       sync.Mutex
	entries  []entity.StockLedgerEntry
	byKey    map[string]int // idempotency key -> index into entries
	balances map[string]*entity.StockBalance
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		byKey:    map[string]int{},
		balances: map[string]*entity.StockBalance{},
	}
}

var _ service.LedgerStore = (*LedgerStore)(nil)

func balanceKey(productCode, lot string) string {
	return productCode + "\x00" + lot
}

func (s *LedgerStore) FindEntryByKey(ctx context.Context, key string) (*entity.StockLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	entry := s.entries[i]
	return &entry, nil
}

func (s *LedgerStore) Balance(ctx context.Context, productCode, lot string) (*entity.StockBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(productCode, lot), nil
}

func (s *LedgerStore) balanceLocked(productCode, lot string) *entity.StockBalance {
	if bal, ok := s.balances[balanceKey(productCode, lot)]; ok {
		copied := *bal
		return &copied
	}
	return &entity.StockBalance{ProductCode: productCode, Lot: lot, Quantity: decimal.Zero}
}

func (s *LedgerStore) Append(ctx context.Context, req service.AppendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(req); err != nil {
		return err
	}
	s.applyLocked(req)
	return nil
}

func (s *LedgerStore) AppendAll(ctx context.Context, reqs []service.AppendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching anything; the service
	// precomputes sequential versions for repeated (product, lot) pairs.
	staged := map[string]int64{}
	for _, req := range reqs {
		key := balanceKey(req.Entry.ProductCode, req.Entry.LotKey())
		current, ok := staged[key]
		if !ok {
			current = s.balanceLocked(req.Entry.ProductCode, req.Entry.LotKey()).Version
		}
		if req.ExpectedVersion != current {
			return fmt.Errorf("balance for %s moved past version %d: %w",
				req.Entry.ProductCode, req.ExpectedVersion, entity.ErrConcurrentModification)
		}
		if _, dup := s.byKey[req.Entry.IdempotencyKey]; dup {
			return fmt.Errorf("idempotency key %s: %w", req.Entry.IdempotencyKey, gorm.ErrDuplicatedKey)
		}
		staged[key] = current + 1
	}

	for _, req := range reqs {
		s.applyLocked(req)
	}
	return nil
}

func (s *LedgerStore) checkLocked(req service.AppendRequest) error {
	if _, dup := s.byKey[req.Entry.IdempotencyKey]; dup {
		return fmt.Errorf("idempotency key %s: %w", req.Entry.IdempotencyKey, gorm.ErrDuplicatedKey)
	}
	current := s.balanceLocked(req.Entry.ProductCode, req.Entry.LotKey()).Version
	if req.ExpectedVersion != current {
		return fmt.Errorf("balance for %s moved past version %d: %w",
			req.Entry.ProductCode, req.ExpectedVersion, entity.ErrConcurrentModification)
	}
	return nil
}

func (s *LedgerStore) applyLocked(req service.AppendRequest) {
	entry := *req.Entry
	s.entries = append(s.entries, entry)
	s.byKey[entry.IdempotencyKey] = len(s.entries) - 1

	key := balanceKey(entry.ProductCode, entry.LotKey())
	bal, ok := s.balances[key]
	if !ok {
		bal = &entity.StockBalance{ProductCode: entry.ProductCode, Lot: entry.LotKey()}
		s.balances[key] = bal
	}
	bal.Quantity = entry.BalanceAfter
	bal.Version = req.ExpectedVersion + 1
	bal.UpdatedAt = entry.CreatedAt
}

func (s *LedgerStore) ListEntries(ctx context.Context, params service.LedgerEntryListParams) ([]entity.StockLedgerEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.StockLedgerEntry
	for _, e := range s.entries {
		if params.ProductCode != "" && e.ProductCode != params.ProductCode {
			continue
		}
		if params.ReferenceType != "" && e.ReferenceType != params.ReferenceType {
			continue
		}
		if params.ReferenceID != "" && e.ReferenceID != params.ReferenceID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (s *LedgerStore) ListBalances(ctx context.Context, params service.BalanceListParams) ([]entity.StockBalance, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.StockBalance
	for _, bal := range s.balances {
		if params.ProductCode != "" && bal.ProductCode != params.ProductCode {
			continue
		}
		out = append(out, *bal)
	}
	return out, int64(len(out)), nil
}
