package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

type BoxStore struct {
	mu    sync.Mutex
	boxes map[string]*entity.TransportBox
	keys  map[string]bool // item idempotency keys
}

func NewBoxStore() *BoxStore {
	return &BoxStore{
		boxes: map[string]*entity.TransportBox{},
		keys:  map[string]bool{},
	}
}

var _ service.BoxStore = (*BoxStore)(nil)

func (s *BoxStore) Create(ctx context.Context, box *entity.TransportBox) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := cloneBox(box)
	s.boxes[box.ID] = copied
	return nil
}

func (s *BoxStore) Get(ctx context.Context, id string) (*entity.TransportBox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	box, ok := s.boxes[id]
	if !ok {
		return nil, fmt.Errorf("box %s: %w", id, entity.ErrNotFound)
	}
	return cloneBox(box), nil
}

func (s *BoxStore) List(ctx context.Context, params service.BoxListParams) ([]entity.TransportBox, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.TransportBox
	for _, box := range s.boxes {
		if params.State != "" && box.State != params.State {
			continue
		}
		out = append(out, *cloneBox(box))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (s *BoxStore) AddItem(ctx context.Context, boxID string, expected entity.BoxState, item *entity.TransportBoxItem, change *entity.TransportBoxStateChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[boxID]
	if !ok {
		return fmt.Errorf("box %s: %w", boxID, entity.ErrNotFound)
	}
	if s.keys[item.IdempotencyKey] {
		return fmt.Errorf("idempotency key %s: %w", item.IdempotencyKey, gorm.ErrDuplicatedKey)
	}
	if box.State != expected {
		return fmt.Errorf("box %s no longer in state %s: %w", boxID, expected, entity.ErrConcurrentModification)
	}

	if change != nil {
		box.State = change.ToState
		box.StateChanges = append(box.StateChanges, *change)
	}
	box.Items = append(box.Items, *item)
	box.UpdatedAt = time.Now()
	s.keys[item.IdempotencyKey] = true
	return nil
}

func (s *BoxStore) RemoveItem(ctx context.Context, boxID string, expected entity.BoxState, productCode string, lot *string, qty decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[boxID]
	if !ok {
		return fmt.Errorf("box %s: %w", boxID, entity.ErrNotFound)
	}
	if box.State != expected {
		return fmt.Errorf("box %s no longer in state %s: %w", boxID, expected, entity.ErrConcurrentModification)
	}

	lotKey := ""
	if lot != nil {
		lotKey = *lot
	}
	remaining := qty
	for i := len(box.Items) - 1; i >= 0 && remaining.IsPositive(); i-- {
		it := &box.Items[i]
		if it.ProductCode != productCode || it.LotKey() != lotKey {
			continue
		}
		if it.Quantity.LessThanOrEqual(remaining) {
			remaining = remaining.Sub(it.Quantity)
			box.Items = append(box.Items[:i], box.Items[i+1:]...)
			continue
		}
		it.Quantity = it.Quantity.Sub(remaining)
		remaining = decimal.Zero
	}
	if remaining.IsPositive() {
		return fmt.Errorf("box %s holds less than %s of %s: %w", boxID, qty, productCode, entity.ErrInsufficientStock)
	}
	box.UpdatedAt = time.Now()
	return nil
}

func (s *BoxStore) UpdateState(ctx context.Context, boxID string, change *entity.TransportBoxStateChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[boxID]
	if !ok {
		return fmt.Errorf("box %s: %w", boxID, entity.ErrNotFound)
	}
	if box.State != change.FromState {
		return fmt.Errorf("box %s no longer in state %s: %w", boxID, change.FromState, entity.ErrConcurrentModification)
	}
	box.State = change.ToState
	box.StateChanges = append(box.StateChanges, *change)
	box.UpdatedAt = time.Now()
	return nil
}

func (s *BoxStore) SavePickingList(ctx context.Context, boxID string, lines []entity.PickingLine, change *entity.TransportBoxStateChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[boxID]
	if !ok {
		return fmt.Errorf("box %s: %w", boxID, entity.ErrNotFound)
	}
	if box.State != change.FromState {
		return fmt.Errorf("box %s no longer in state %s: %w", boxID, change.FromState, entity.ErrConcurrentModification)
	}
	box.State = change.ToState
	box.StateChanges = append(box.StateChanges, *change)
	box.PickingLines = append([]entity.PickingLine(nil), lines...)
	box.UpdatedAt = time.Now()
	return nil
}

func (s *BoxStore) MarkLinePicked(ctx context.Context, boxID, productCode, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[boxID]
	if !ok {
		return fmt.Errorf("box %s: %w", boxID, entity.ErrNotFound)
	}
	now := time.Now()
	for i := range box.PickingLines {
		line := &box.PickingLines[i]
		if line.ProductCode == productCode {
			line.Picked = true
			line.PickedBy = userID
			line.PickedAt = &now
			return nil
		}
	}
	return fmt.Errorf("picking line %s on box %s: %w", productCode, boxID, entity.ErrNotFound)
}

func cloneBox(box *entity.TransportBox) *entity.TransportBox {
	copied := *box
	copied.Items = append([]entity.TransportBoxItem(nil), box.Items...)
	copied.StateChanges = append([]entity.TransportBoxStateChange(nil), box.StateChanges...)
	copied.PickingLines = append([]entity.PickingLine(nil), box.PickingLines...)
	return &copied
}
