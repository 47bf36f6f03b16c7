package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/warehouse/entity"
)

// BoxService owns the transport-box lifecycle. Every transition is a CAS on
// the expected current state; losing a race returns
// entity.ErrConcurrentModification and the caller retries from a fresh read.
type BoxService struct {
	store     BoxStore
	ledger    *LedgerService
	validator *MovementValidator
	picking   PickingListGenerator
}

func NewBoxService(store BoxStore, ledger *LedgerService, validator *MovementValidator, picking PickingListGenerator) *BoxService {
	return &BoxService{store: store, ledger: ledger, validator: validator, picking: picking}
}

type CreateBoxRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (s *BoxService) Create(ctx context.Context, req CreateBoxRequest, userID string) (*entity.TransportBox, error) {
	now := time.Now()
	code := req.Code
	if code == "" {
		code = fmt.Sprintf("BOX-%s%04d", now.Format("20060102"), now.UnixNano()%10000)
	}

	box := &entity.TransportBox{
		ID:          uuid.New().String(),
		Code:        code,
		State:       entity.BoxStateNew,
		Description: req.Description,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, box); err != nil {
		return nil, fmt.Errorf("create box: %w", err)
	}
	return box, nil
}

func (s *BoxService) Get(ctx context.Context, id string) (*entity.TransportBox, error) {
	return s.store.Get(ctx, id)
}

func (s *BoxService) List(ctx context.Context, params BoxListParams) ([]entity.TransportBox, int64, error) {
	return s.store.List(ctx, params)
}

type AddItemRequest struct {
	ProductCode    string          `json:"product_code" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Lot            *string         `json:"lot"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// AddItem loads qty of a product into the box, reserving it on the ledger.
// The first add moves a NEW box to ITEMS_LOADING.
func (s *BoxService) AddItem(ctx context.Context, boxID string, req AddItemRequest, userID string) (*entity.TransportBox, error) {
	box, err := s.store.Get(ctx, boxID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAdd(ctx, box, req.ProductCode, req.Quantity); err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.New().String()
	}

	if _, err := s.ledger.Append(ctx, AppendInput{
		ProductCode:    req.ProductCode,
		Lot:            req.Lot,
		QtyDelta:       req.Quantity.Neg(),
		MovementType:   entity.MovementTypeBoxLoad,
		ReferenceType:  entity.RefTypeBox,
		ReferenceID:    box.ID,
		IdempotencyKey: key,
		CreatedBy:      userID,
	}); err != nil {
		return nil, err
	}

	var change *entity.TransportBoxStateChange
	if box.State == entity.BoxStateNew {
		change = s.newChange(box.ID, entity.BoxStateNew, entity.BoxStateItemsLoading, userID)
	}

	item := &entity.TransportBoxItem{
		ID:             uuid.New().String(),
		BoxID:          box.ID,
		ProductCode:    req.ProductCode,
		Lot:            req.Lot,
		Quantity:       req.Quantity,
		IdempotencyKey: key,
		AddedBy:        userID,
		AddedAt:        time.Now(),
	}
	if err := s.store.AddItem(ctx, box.ID, box.State, item, change); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Retried request: both ledger entry and item row already exist.
			return s.store.Get(ctx, boxID)
		}
		// The reservation committed but the item row did not; release it so
		// no stock stays reserved against a row that does not exist.
		if _, rerr := s.ledger.Append(ctx, AppendInput{
			ProductCode:    req.ProductCode,
			Lot:            req.Lot,
			QtyDelta:       req.Quantity,
			MovementType:   entity.MovementTypeBoxLoad,
			ReferenceType:  entity.RefTypeBox,
			ReferenceID:    box.ID,
			IdempotencyKey: key + ":undo",
			IsCorrection:   true,
			CreatedBy:      userID,
		}); rerr != nil {
			return nil, errors.Join(err, fmt.Errorf("release reservation for %s: %w", req.ProductCode, rerr))
		}
		return nil, err
	}
	return s.store.Get(ctx, boxID)
}

type RemoveItemRequest struct {
	ProductCode    string          `json:"product_code" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Lot            *string         `json:"lot"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// RemoveItem takes qty of a product back out of the box, releasing the
// ledger reservation. Only legal while ITEMS_LOADING.
func (s *BoxService) RemoveItem(ctx context.Context, boxID string, req RemoveItemRequest, userID string) (*entity.TransportBox, error) {
	box, err := s.store.Get(ctx, boxID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateRemove(ctx, box, req.ProductCode, req.Lot, req.Quantity); err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.New().String()
	}

	if _, err := s.ledger.Append(ctx, AppendInput{
		ProductCode:    req.ProductCode,
		Lot:            req.Lot,
		QtyDelta:       req.Quantity,
		MovementType:   entity.MovementTypeBoxUnload,
		ReferenceType:  entity.RefTypeBox,
		ReferenceID:    box.ID,
		IdempotencyKey: key,
		CreatedBy:      userID,
	}); err != nil {
		return nil, err
	}

	if err := s.store.RemoveItem(ctx, box.ID, box.State, req.ProductCode, req.Lot, req.Quantity); err != nil {
		// The release committed but the item rows were not reduced; re-book
		// the reservation so balance and box contents stay in step.
		if _, rerr := s.ledger.Append(ctx, AppendInput{
			ProductCode:    req.ProductCode,
			Lot:            req.Lot,
			QtyDelta:       req.Quantity.Neg(),
			MovementType:   entity.MovementTypeBoxUnload,
			ReferenceType:  entity.RefTypeBox,
			ReferenceID:    box.ID,
			IdempotencyKey: key + ":undo",
			IsCorrection:   true,
			CreatedBy:      userID,
		}); rerr != nil {
			return nil, errors.Join(err, fmt.Errorf("restore reservation for %s: %w", req.ProductCode, rerr))
		}
		return nil, err
	}
	return s.store.Get(ctx, boxID)
}

// RequestPicking asks the external generator for a picking list and moves
// the box to PICKING_REQUESTED. Generator failure leaves the box unchanged.
func (s *BoxService) RequestPicking(ctx context.Context, boxID, userID string) (*entity.TransportBox, error) {
	box, err := s.store.Get(ctx, boxID)
	if err != nil {
		return nil, err
	}
	if box.State != entity.BoxStateItemsLoading {
		return nil, fmt.Errorf("box %s in state %s: %w", box.Code, box.State, entity.ErrInvalidBoxState)
	}
	if len(box.Items) == 0 {
		return nil, fmt.Errorf("box %s has no items: %w", box.Code, entity.ErrInvalidBoxState)
	}

	// Picking lines are per product; lots of the same product fold together.
	req := PickingListRequest{BoxID: box.ID, BoxCode: box.Code}
	index := map[string]int{}
	for _, it := range netItems(box) {
		if i, ok := index[it.ProductCode]; ok {
			req.Items[i].Quantity = req.Items[i].Quantity.Add(it.Quantity)
			continue
		}
		index[it.ProductCode] = len(req.Items)
		req.Items = append(req.Items, PickingListItem{ProductCode: it.ProductCode, Quantity: it.Quantity})
	}

	result, err := s.picking.CreatePickingList(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create picking list for box %s: %w", box.Code, err)
	}

	lines := make([]entity.PickingLine, 0, len(result.Lines))
	now := time.Now()
	for _, l := range result.Lines {
		line := entity.PickingLine{
			ID:          uuid.New().String(),
			BoxID:       box.ID,
			ProductCode: l.ProductCode,
			Quantity:    l.Quantity,
			Picked:      l.Picked,
		}
		if l.Picked {
			line.PickedAt = &now
		}
		lines = append(lines, line)
	}

	change := s.newChange(box.ID, entity.BoxStateItemsLoading, entity.BoxStatePickingRequested, userID)
	if err := s.store.SavePickingList(ctx, box.ID, lines, change); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, boxID)
}

// MarkLinePicked acknowledges one picking line while PICKING_REQUESTED.
func (s *BoxService) MarkLinePicked(ctx context.Context, boxID, productCode, userID string) error {
	box, err := s.store.Get(ctx, boxID)
	if err != nil {
		return err
	}
	if box.State != entity.BoxStatePickingRequested {
		return fmt.Errorf("box %s in state %s: %w", box.Code, box.State, entity.ErrInvalidBoxState)
	}
	return s.store.MarkLinePicked(ctx, boxID, productCode, userID)
}

// TransitionRequest optionally carries the state the caller last observed.
// A mismatch fails fast with ErrConcurrentModification.
type TransitionRequest struct {
	ExpectedState entity.BoxState `json:"expected_state"`
}

// MarkPacked moves PICKING_REQUESTED -> PACKED once every picking line is
// acknowledged.
func (s *BoxService) MarkPacked(ctx context.Context, boxID string, req TransitionRequest, userID string) (*entity.TransportBox, error) {
	return s.transition(ctx, boxID, req, entity.BoxStatePacked, userID, func(box *entity.TransportBox) error {
		if box.State != entity.BoxStatePickingRequested {
			return fmt.Errorf("box %s in state %s: %w", box.Code, box.State, entity.ErrInvalidBoxState)
		}
		for _, line := range box.PickingLines {
			if !line.Picked {
				return fmt.Errorf("box %s: line %s unpicked: %w", box.Code, line.ProductCode, entity.ErrIncompletePicking)
			}
		}
		return nil
	})
}

// Ship moves PACKED -> SHIPPED. No item mutation is permitted afterward.
func (s *BoxService) Ship(ctx context.Context, boxID string, req TransitionRequest, userID string) (*entity.TransportBox, error) {
	return s.transition(ctx, boxID, req, entity.BoxStateShipped, userID, func(box *entity.TransportBox) error {
		if box.State != entity.BoxStatePacked {
			return fmt.Errorf("box %s in state %s: %w", box.Code, box.State, entity.ErrInvalidBoxState)
		}
		return nil
	})
}

// Cancel moves any non-terminal box to CANCELLED and issues compensating
// ledger entries for its loaded items. Entries already committed for item
// adds are never deleted; the reversal is a new movement.
func (s *BoxService) Cancel(ctx context.Context, boxID string, req TransitionRequest, userID string) (*entity.TransportBox, error) {
	box, err := s.store.Get(ctx, boxID)
	if err != nil {
		return nil, err
	}
	if req.ExpectedState != "" && req.ExpectedState != box.State {
		return nil, fmt.Errorf("box %s moved to %s: %w", box.Code, box.State, entity.ErrConcurrentModification)
	}
	if box.State.Terminal() {
		return nil, fmt.Errorf("box %s in state %s: %w", box.Code, box.State, entity.ErrInvalidBoxState)
	}

	// Deterministic keys make the reversal idempotent across retries. Each
	// reversal credits the same (product, lot) balance the load debited.
	for _, it := range netItems(box) {
		if !it.Quantity.IsPositive() {
			continue
		}
		if _, err := s.ledger.Append(ctx, AppendInput{
			ProductCode:    it.ProductCode,
			Lot:            it.Lot,
			QtyDelta:       it.Quantity,
			MovementType:   entity.MovementTypeBoxCancel,
			ReferenceType:  entity.RefTypeBox,
			ReferenceID:    box.ID,
			IdempotencyKey: fmt.Sprintf("box:%s:cancel:%s:%s", box.ID, it.ProductCode, it.LotKey()),
			CreatedBy:      userID,
		}); err != nil {
			return nil, err
		}
	}

	change := s.newChange(box.ID, box.State, entity.BoxStateCancelled, userID)
	if err := s.store.UpdateState(ctx, box.ID, change); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, boxID)
}

func (s *BoxService) transition(ctx context.Context, boxID string, req TransitionRequest, target entity.BoxState, userID string, guard func(*entity.TransportBox) error) (*entity.TransportBox, error) {
	box, err := s.store.Get(ctx, boxID)
	if err != nil {
		return nil, err
	}
	if req.ExpectedState != "" && req.ExpectedState != box.State {
		return nil, fmt.Errorf("box %s moved to %s: %w", box.Code, box.State, entity.ErrConcurrentModification)
	}
	if err := guard(box); err != nil {
		return nil, err
	}

	change := s.newChange(box.ID, box.State, target, userID)
	if err := s.store.UpdateState(ctx, box.ID, change); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, boxID)
}

func (s *BoxService) newChange(boxID string, from, to entity.BoxState, userID string) *entity.TransportBoxStateChange {
	return &entity.TransportBoxStateChange{
		ID:        uuid.New().String(),
		BoxID:     boxID,
		FromState: from,
		ToState:   to,
		ChangedBy: userID,
		ChangedAt: time.Now(),
	}
}

// netItems folds the box's item rows into per-(product, lot) net quantities,
// preserving first-added order.
func netItems(box *entity.TransportBox) []entity.TransportBoxItem {
	index := map[string]int{}
	var out []entity.TransportBoxItem
	for _, it := range box.Items {
		key := it.ProductCode + "\x00" + it.LotKey()
		if i, ok := index[key]; ok {
			out[i].Quantity = out[i].Quantity.Add(it.Quantity)
			continue
		}
		index[key] = len(out)
		out = append(out, entity.TransportBoxItem{ProductCode: it.ProductCode, Lot: it.Lot, Quantity: it.Quantity})
	}
	return out
}
