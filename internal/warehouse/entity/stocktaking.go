package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockTakingType distinguishes physical counts from system-triggered runs.
const (
	StockTakingTypePhysical = "PHYSICAL"
	StockTakingTypeSystem   = "SYSTEM"
)

// StockTakingRun groups the results of one reconciliation request.
// Re-running the same run id re-evaluates current balances; it never replays
// the old values.
type StockTakingRun struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	Type        string    `json:"type" gorm:"size:20;not null;default:PHYSICAL"`
	PerformedBy string    `json:"performed_by" gorm:"size:64;not null"`
	CreatedAt   time.Time `json:"created_at"`

	Results []StockTakingResult `json:"results,omitempty" gorm:"foreignKey:RunID"`
}

func (StockTakingRun) TableName() string {
	return "wh_stock_taking_runs"
}

// StockTakingResult is the durable outcome of one reconciled line. A non-nil
// Error marks a line that failed (typically a concurrent movement between
// read and correction); the row is retained so the operator can re-run just
// that line.
type StockTakingResult struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid"`
	RunID       string          `json:"run_id" gorm:"type:uuid;not null;index"`
	Type        string          `json:"type" gorm:"size:20;not null"`
	ProductCode string          `json:"product_code" gorm:"size:64;not null;index"`
	Lot         *string         `json:"lot" gorm:"size:50"`
	CountedQty  decimal.Decimal `json:"counted_qty" gorm:"type:decimal(20,4);not null"`
	PreviousQty decimal.Decimal `json:"previous_qty" gorm:"type:decimal(20,4);not null"`
	Error       *string         `json:"error" gorm:"type:text"`
	PerformedBy string          `json:"performed_by" gorm:"size:64;not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (StockTakingResult) TableName() string {
	return "wh_stock_taking_results"
}

// Failed reports whether the line carries an error.
func (r *StockTakingResult) Failed() bool {
	return r.Error != nil
}
