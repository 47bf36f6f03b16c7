package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

type GiftPackageStore struct {
	mu   sync.Mutex
	logs map[string]*entity.GiftPackageManufactureLog
}

func NewGiftPackageStore() *GiftPackageStore {
	return &GiftPackageStore{logs: map[string]*entity.GiftPackageManufactureLog{}}
}

var _ service.AssemblyStore = (*GiftPackageStore)(nil)

func (s *GiftPackageStore) Create(ctx context.Context, log *entity.GiftPackageManufactureLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *log
	copied.Items = append([]entity.GiftPackageManufactureItem(nil), log.Items...)
	s.logs[log.ID] = &copied
	return nil
}

func (s *GiftPackageStore) Get(ctx context.Context, id string) (*entity.GiftPackageManufactureLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[id]
	if !ok {
		return nil, fmt.Errorf("manufacture log %s: %w", id, entity.ErrNotFound)
	}
	copied := *log
	copied.Items = append([]entity.GiftPackageManufactureItem(nil), log.Items...)
	return &copied, nil
}

func (s *GiftPackageStore) List(ctx context.Context, page, size int) ([]entity.GiftPackageManufactureLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.GiftPackageManufactureLog
	for _, log := range s.logs {
		out = append(out, *log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

type StockTakingStore struct {
	mu      sync.Mutex
	runs    map[string]*entity.StockTakingRun
	results []entity.StockTakingResult
}

func NewStockTakingStore() *StockTakingStore {
	return &StockTakingStore{runs: map[string]*entity.StockTakingRun{}}
}

var _ service.StockTakingStore = (*StockTakingStore)(nil)

func (s *StockTakingStore) CreateRun(ctx context.Context, run *entity.StockTakingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *run
	copied.Results = nil
	s.runs[run.ID] = &copied
	return nil
}

func (s *StockTakingStore) GetRun(ctx context.Context, id string) (*entity.StockTakingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("stock-taking run %s: %w", id, entity.ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

func (s *StockTakingStore) ListRuns(ctx context.Context, page, size int) ([]entity.StockTakingRun, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.StockTakingRun
	for _, run := range s.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (s *StockTakingStore) CreateResult(ctx context.Context, result *entity.StockTakingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *result)
	return nil
}

func (s *StockTakingStore) ListResults(ctx context.Context, runID string) ([]entity.StockTakingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.StockTakingResult
	for _, r := range s.results {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}
