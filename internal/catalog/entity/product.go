package entity

import (
	"time"

	"gorm.io/gorm"
)

// ProductType classifies catalog entries.
const (
	ProductTypeRaw         = "RAW"
	ProductTypeGiftPackage = "GIFT"
	ProductTypeFinished    = "FG"
)

// Product is catalog master data. The warehouse engine only resolves codes
// against it; ownership of the record stays here.
type Product struct {
	ID         string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code       string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name       string     `json:"name" gorm:"size:128;not null"`
	Type       string     `json:"type" gorm:"size:10;not null;default:RAW"`
	Unit       string     `json:"unit" gorm:"size:20;not null;default:pcs"`
	LotTracked bool       `json:"lot_tracked" gorm:"not null;default:false"`
	Notes      string     `json:"notes" gorm:"type:text"`
	CreatedBy  string     `json:"created_by" gorm:"size:64"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at" gorm:"index"`
}

func (Product) TableName() string {
	return "cat_products"
}

// AutoMigrate migrates all catalog tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Product{})
}
