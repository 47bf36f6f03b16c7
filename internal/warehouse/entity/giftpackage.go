package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// GiftPackageManufactureLog records one assembly event: raw items consumed
// into a finished gift package. Logs are immutable; corrections are new logs.
type GiftPackageManufactureLog struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid"`
	GiftPackageCode string          `json:"gift_package_code" gorm:"size:64;not null;index"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	PerformedBy     string          `json:"performed_by" gorm:"size:64;not null"`
	CreatedAt       time.Time       `json:"created_at"`

	Items []GiftPackageManufactureItem `json:"items,omitempty" gorm:"foreignKey:LogID"`
}

func (GiftPackageManufactureLog) TableName() string {
	return "wh_gift_package_logs"
}

// GiftPackageManufactureItem is one consumed raw-item line.
type GiftPackageManufactureItem struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid"`
	LogID       string          `json:"log_id" gorm:"type:uuid;not null;index"`
	ProductCode string          `json:"product_code" gorm:"size:64;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Lot         *string         `json:"lot" gorm:"size:50"`
}

func (GiftPackageManufactureItem) TableName() string {
	return "wh_gift_package_log_items"
}
