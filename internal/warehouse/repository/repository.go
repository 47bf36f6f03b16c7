package repository

import "gorm.io/gorm"

// Repositories is the warehouse store collection backed by postgres.
type Repositories struct {
	Ledger      *LedgerRepository
	Boxes       *BoxRepository
	GiftPackage *GiftPackageRepository
	StockTaking *StockTakingRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Ledger:      NewLedgerRepository(db),
		Boxes:       NewBoxRepository(db),
		GiftPackage: NewGiftPackageRepository(db),
		StockTaking: NewStockTakingRepository(db),
	}
}
