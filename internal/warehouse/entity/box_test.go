package entity

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBoxStateTransitions(t *testing.T) {
	cases := []struct {
		from    BoxState
		to      BoxState
		allowed bool
	}{
		{BoxStateNew, BoxStateItemsLoading, true},
		{BoxStateItemsLoading, BoxStatePickingRequested, true},
		{BoxStatePickingRequested, BoxStatePacked, true},
		{BoxStatePacked, BoxStateShipped, true},

		{BoxStateNew, BoxStatePickingRequested, false},
		{BoxStateNew, BoxStatePacked, false},
		{BoxStateItemsLoading, BoxStatePacked, false},
		{BoxStatePickingRequested, BoxStateShipped, false},
		{BoxStatePacked, BoxStateItemsLoading, false},
		{BoxStateShipped, BoxStatePacked, false},

		// Cancellation from every non-terminal state.
		{BoxStateNew, BoxStateCancelled, true},
		{BoxStateItemsLoading, BoxStateCancelled, true},
		{BoxStatePickingRequested, BoxStateCancelled, true},
		{BoxStatePacked, BoxStateCancelled, true},
		{BoxStateShipped, BoxStateCancelled, false},
		{BoxStateCancelled, BoxStateCancelled, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestBoxStateTerminal(t *testing.T) {
	for _, s := range []BoxState{BoxStateNew, BoxStateItemsLoading, BoxStatePickingRequested, BoxStatePacked} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []BoxState{BoxStateShipped, BoxStateCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestBoxStateItemRules(t *testing.T) {
	if !BoxStateNew.ItemsAddable() || !BoxStateItemsLoading.ItemsAddable() {
		t.Error("items must be addable in NEW and ITEMS_LOADING")
	}
	for _, s := range []BoxState{BoxStatePickingRequested, BoxStatePacked, BoxStateShipped, BoxStateCancelled} {
		if s.ItemsAddable() {
			t.Errorf("items must not be addable in %s", s)
		}
	}

	if !BoxStateItemsLoading.ItemsRemovable() {
		t.Error("items must be removable in ITEMS_LOADING")
	}
	for _, s := range []BoxState{BoxStateNew, BoxStatePickingRequested, BoxStatePacked, BoxStateShipped, BoxStateCancelled} {
		if s.ItemsRemovable() {
			t.Errorf("items must not be removable in %s", s)
		}
	}
}

func TestNetQuantity(t *testing.T) {
	box := &TransportBox{
		Items: []TransportBoxItem{
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(5)},
			{ProductCode: "RAW-002", Quantity: decimal.NewFromInt(3)},
			{ProductCode: "RAW-001", Quantity: decimal.NewFromInt(2)},
		},
	}

	if got := box.NetQuantity("RAW-001"); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("RAW-001 net = %s, want 7", got)
	}
	if got := box.NetQuantity("RAW-002"); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("RAW-002 net = %s, want 3", got)
	}
	if got := box.NetQuantity("RAW-999"); !got.IsZero() {
		t.Errorf("RAW-999 net = %s, want 0", got)
	}
}
