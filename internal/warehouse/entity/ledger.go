package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies a ledger entry.
const (
	MovementTypeBoxLoad      = "BOX_LOAD"
	MovementTypeBoxUnload    = "BOX_UNLOAD"
	MovementTypeBoxCancel    = "BOX_CANCEL"
	MovementTypeAssemblyOut  = "ASSEMBLY_OUT"
	MovementTypeProductionIn = "PRODUCTION_IN"
	MovementTypeCorrection   = "CORRECTION"
)

// ReferenceType links an entry to its originating aggregate.
const (
	RefTypeBox         = "BOX"
	RefTypeGiftPackage = "GIFT_PACKAGE"
	RefTypeStockTaking = "STOCK_TAKING"
)

// StockLedgerEntry is one immutable row of the append-only movement log.
// Lot is a pointer: nil means "no lot", distinct from an empty lot code.
type StockLedgerEntry struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid"`
	ProductCode    string          `json:"product_code" gorm:"size:64;not null;index"`
	Lot            *string         `json:"lot" gorm:"size:50"`
	QtyDelta       decimal.Decimal `json:"qty_delta" gorm:"type:decimal(20,4);not null"`
	MovementType   string          `json:"movement_type" gorm:"size:20;not null"`
	ReferenceType  string          `json:"reference_type" gorm:"size:20;not null"`
	ReferenceID    string          `json:"reference_id" gorm:"size:64;not null;index"`
	IdempotencyKey string          `json:"idempotency_key" gorm:"size:128;not null;uniqueIndex"`
	IsCorrection   bool            `json:"is_correction" gorm:"not null;default:false"`
	BalanceAfter   decimal.Decimal `json:"balance_after" gorm:"type:decimal(20,4);not null"`
	CreatedBy      string          `json:"created_by" gorm:"size:64;not null"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (StockLedgerEntry) TableName() string {
	return "wh_stock_ledger_entries"
}

// LotKey normalizes the optional lot for balance lookups.
func (e *StockLedgerEntry) LotKey() string {
	if e.Lot == nil {
		return ""
	}
	return *e.Lot
}

// StockBalance is the derived on-hand quantity per (product, lot). Version
// increments on every applied entry and is the optimistic-concurrency token
// for appends.
type StockBalance struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid"`
	ProductCode string          `json:"product_code" gorm:"size:64;not null;uniqueIndex:ux_wh_balance_product_lot,priority:1"`
	Lot         string          `json:"lot" gorm:"size:50;not null;default:'';uniqueIndex:ux_wh_balance_product_lot,priority:2"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Version     int64           `json:"version" gorm:"not null;default:0"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (StockBalance) TableName() string {
	return "wh_stock_balances"
}
