package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	catentity "github.com/onpaj/heblo/internal/catalog/entity"
	"github.com/onpaj/heblo/internal/testutil"
	"github.com/onpaj/heblo/internal/warehouse/entity"
)

func TestValidateAddStateGating(t *testing.T) {
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)

	qty := decimal.NewFromInt(1)
	for _, tc := range []struct {
		state entity.BoxState
		ok    bool
	}{
		{entity.BoxStateNew, true},
		{entity.BoxStateItemsLoading, true},
		{entity.BoxStatePickingRequested, false},
		{entity.BoxStatePacked, false},
		{entity.BoxStateShipped, false},
		{entity.BoxStateCancelled, false},
	} {
		box := &entity.TransportBox{Code: "BOX-T", State: tc.state}
		err := env.Services.Validator.ValidateAdd(context.Background(), box, "RAW-001", qty)
		if tc.ok && err != nil {
			t.Errorf("state %s: unexpected error %v", tc.state, err)
		}
		if !tc.ok && !errors.Is(err, entity.ErrInvalidBoxState) {
			t.Errorf("state %s: err = %v, want ErrInvalidBoxState", tc.state, err)
		}
	}
}

func TestValidateAddRejectsNonPositiveQty(t *testing.T) {
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)
	box := &entity.TransportBox{Code: "BOX-T", State: entity.BoxStateNew}

	for _, qty := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-2)} {
		if err := env.Services.Validator.ValidateAdd(context.Background(), box, "RAW-001", qty); err == nil {
			t.Errorf("qty %s: expected error", qty)
		}
	}
}

func TestValidateRemoveChecksBoxContents(t *testing.T) {
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)
	box := &entity.TransportBox{
		Code:  "BOX-T",
		State: entity.BoxStateItemsLoading,
		Items: []entity.TransportBoxItem{
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(5)},
		},
	}

	if err := env.Services.Validator.ValidateRemove(context.Background(), box, "RAW-001", nil, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("remove within contents: %v", err)
	}
	err := env.Services.Validator.ValidateRemove(context.Background(), box, "RAW-001", nil, decimal.NewFromInt(6))
	if !errors.Is(err, entity.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestValidateRemoveIsLotScoped(t *testing.T) {
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)
	lotA := "LOT-A"
	box := &entity.TransportBox{
		Code:  "BOX-T",
		State: entity.BoxStateItemsLoading,
		Items: []entity.TransportBoxItem{
			{ProductCode: "RAW-001", Lot: &lotA, Quantity: decimal.NewFromInt(5)},
		},
	}

	if err := env.Services.Validator.ValidateRemove(context.Background(), box, "RAW-001", &lotA, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("remove within lot contents: %v", err)
	}
	// The box holds RAW-001 only under LOT-A; a lot-less remove has nothing
	// to take.
	err := env.Services.Validator.ValidateRemove(context.Background(), box, "RAW-001", nil, decimal.NewFromInt(1))
	if !errors.Is(err, entity.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestValidateConsumptionReturnsSnapshot(t *testing.T) {
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)
	seedStock(t, env, "RAW-001", 8)

	snap, err := env.Services.Validator.ValidateConsumption(context.Background(), "RAW-001", nil, decimal.NewFromInt(8))
	if err != nil {
		t.Fatalf("consume all: %v", err)
	}
	if !snap.Quantity.Equal(decimal.NewFromInt(8)) {
		t.Errorf("snapshot qty = %s, want 8", snap.Quantity)
	}
	if snap.Version != 1 {
		t.Errorf("snapshot version = %d, want 1", snap.Version)
	}

	_, err = env.Services.Validator.ValidateConsumption(context.Background(), "RAW-001", nil, decimal.NewFromInt(9))
	if !errors.Is(err, entity.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	_, err = env.Services.Validator.ValidateConsumption(context.Background(), "NOPE-001", nil, decimal.NewFromInt(1))
	if !errors.Is(err, entity.ErrUnknownProduct) {
		t.Fatalf("err = %v, want ErrUnknownProduct", err)
	}
}
