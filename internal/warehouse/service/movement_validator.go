package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/onpaj/heblo/internal/warehouse/entity"
)

// MovementValidator decides whether a requested item movement is legal given
// box state and ledger balance. Balance-dependent checks return the snapshot
// they evaluated so the subsequent append can be tied to the same version.
type MovementValidator struct {
	catalog CatalogResolver
	ledger  *LedgerService
}

func NewMovementValidator(catalog CatalogResolver, ledger *LedgerService) *MovementValidator {
	return &MovementValidator{catalog: catalog, ledger: ledger}
}

// ValidateAdd gates adding qty of productCode to box. Stock sufficiency is
// enforced atomically by the ledger append that follows.
func (v *MovementValidator) ValidateAdd(ctx context.Context, box *entity.TransportBox, productCode string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("quantity must be positive")
	}
	if !box.State.ItemsAddable() {
		return fmt.Errorf("box %s in state %s: %w", box.Code, box.State, entity.ErrInvalidBoxState)
	}
	return v.resolve(ctx, productCode)
}

// ValidateRemove gates taking qty of (productCode, lot) back out of box.
func (v *MovementValidator) ValidateRemove(ctx context.Context, box *entity.TransportBox, productCode string, lot *string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("quantity must be positive")
	}
	if !box.State.ItemsRemovable() {
		return fmt.Errorf("box %s in state %s: %w", box.Code, box.State, entity.ErrInvalidBoxState)
	}
	if err := v.resolve(ctx, productCode); err != nil {
		return err
	}
	if held := box.NetQuantityInLot(productCode, lot); held.LessThan(qty) {
		return fmt.Errorf("box %s holds %s of %s, removing %s: %w",
			box.Code, held, productCode, qty, entity.ErrInsufficientStock)
	}
	return nil
}

// ValidateConsumption gates consuming qty of productCode from stock and
// returns the balance snapshot the decision was made against.
func (v *MovementValidator) ValidateConsumption(ctx context.Context, productCode string, lot *string, qty decimal.Decimal) (*entity.StockBalance, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if err := v.resolve(ctx, productCode); err != nil {
		return nil, err
	}
	lotKey := ""
	if lot != nil {
		lotKey = *lot
	}
	snapshot, err := v.ledger.Snapshot(ctx, productCode, lotKey)
	if err != nil {
		return nil, err
	}
	if snapshot.Quantity.LessThan(qty) {
		return nil, fmt.Errorf("product %s: have %s, need %s: %w",
			productCode, snapshot.Quantity, qty, entity.ErrInsufficientStock)
	}
	return snapshot, nil
}

func (v *MovementValidator) resolve(ctx context.Context, productCode string) error {
	if _, err := v.catalog.Resolve(ctx, productCode); err != nil {
		return err
	}
	return nil
}
