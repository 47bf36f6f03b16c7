package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoxState is the transport-box lifecycle state.
type BoxState string

const (
	BoxStateNew              BoxState = "NEW"
	BoxStateItemsLoading     BoxState = "ITEMS_LOADING"
	BoxStatePickingRequested BoxState = "PICKING_REQUESTED"
	BoxStatePacked           BoxState = "PACKED"
	BoxStateShipped          BoxState = "SHIPPED"
	BoxStateCancelled        BoxState = "CANCELLED"
)

// boxTransitions lists the legal forward transitions. Cancellation is
// handled separately: any non-terminal state may move to CANCELLED.
var boxTransitions = map[BoxState][]BoxState{
	BoxStateNew:              {BoxStateItemsLoading},
	BoxStateItemsLoading:     {BoxStatePickingRequested},
	BoxStatePickingRequested: {BoxStatePacked},
	BoxStatePacked:           {BoxStateShipped},
}

// Terminal reports whether no further transitions are possible.
func (s BoxState) Terminal() bool {
	return s == BoxStateShipped || s == BoxStateCancelled
}

// CanTransitionTo reports whether s -> target is a legal transition.
func (s BoxState) CanTransitionTo(target BoxState) bool {
	if target == BoxStateCancelled {
		return !s.Terminal()
	}
	for _, next := range boxTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ItemsAddable reports whether items may be added in this state.
func (s BoxState) ItemsAddable() bool {
	return s == BoxStateNew || s == BoxStateItemsLoading
}

// ItemsRemovable reports whether items may be removed in this state.
func (s BoxState) ItemsRemovable() bool {
	return s == BoxStateItemsLoading
}

// TransportBox is a physical shipping container tracked from creation to
// shipment. Boxes are never deleted; terminal states are kept for audit.
type TransportBox struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code        string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	State       BoxState   `json:"state" gorm:"size:20;not null;default:NEW;index"`
	Description string     `json:"description" gorm:"type:text"`
	CreatedBy   string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items        []TransportBoxItem        `json:"items,omitempty" gorm:"foreignKey:BoxID"`
	StateChanges []TransportBoxStateChange `json:"state_changes,omitempty" gorm:"foreignKey:BoxID"`
	PickingLines []PickingLine             `json:"picking_lines,omitempty" gorm:"foreignKey:BoxID"`
}

func (TransportBox) TableName() string {
	return "wh_transport_boxes"
}

// NetQuantity sums the item rows for a product across all lots.
func (b *TransportBox) NetQuantity(productCode string) decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.Items {
		if it.ProductCode == productCode {
			total = total.Add(it.Quantity)
		}
	}
	return total
}

// NetQuantityInLot sums the item rows for one (product, lot) pair. A nil lot
// matches only lot-less rows.
func (b *TransportBox) NetQuantityInLot(productCode string, lot *string) decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.Items {
		if it.ProductCode == productCode && it.LotKey() == lotKey(lot) {
			total = total.Add(it.Quantity)
		}
	}
	return total
}

func lotKey(lot *string) string {
	if lot == nil {
		return ""
	}
	return *lot
}

// TransportBoxItem is one loaded line. Items belong exclusively to their box.
// The idempotency key mirrors the ledger entry's key so a retried add-item
// request creates neither a second row nor a second movement.
type TransportBoxItem struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid"`
	BoxID          string          `json:"box_id" gorm:"type:uuid;not null;index"`
	ProductCode    string          `json:"product_code" gorm:"size:64;not null;index"`
	Lot            *string         `json:"lot" gorm:"size:64"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	IdempotencyKey string          `json:"idempotency_key" gorm:"size:128;not null;uniqueIndex"`
	AddedBy        string          `json:"added_by" gorm:"size:64;not null"`
	AddedAt        time.Time       `json:"added_at"`
}

// LotKey normalizes the optional lot, matching the ledger's convention.
func (i *TransportBoxItem) LotKey() string {
	return lotKey(i.Lot)
}

func (TransportBoxItem) TableName() string {
	return "wh_transport_box_items"
}

// TransportBoxStateChange records one transition for audit.
type TransportBoxStateChange struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	BoxID     string    `json:"box_id" gorm:"type:uuid;not null;index"`
	FromState BoxState  `json:"from_state" gorm:"size:20;not null"`
	ToState   BoxState  `json:"to_state" gorm:"size:20;not null"`
	ChangedBy string    `json:"changed_by" gorm:"size:64;not null"`
	ChangedAt time.Time `json:"changed_at"`
}

func (TransportBoxStateChange) TableName() string {
	return "wh_transport_box_state_changes"
}

// PickingLine is one line of the generated picking list for a box.
type PickingLine struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid"`
	BoxID       string          `json:"box_id" gorm:"type:uuid;not null;index"`
	ProductCode string          `json:"product_code" gorm:"size:64;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Picked      bool            `json:"picked" gorm:"not null;default:false"`
	PickedBy    string          `json:"picked_by" gorm:"size:64"`
	PickedAt    *time.Time      `json:"picked_at"`
}

func (PickingLine) TableName() string {
	return "wh_picking_lines"
}
