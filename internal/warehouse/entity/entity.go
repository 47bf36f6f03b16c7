package entity

import "gorm.io/gorm"

// AutoMigrate migrates all warehouse tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// ledger
		&StockLedgerEntry{},
		&StockBalance{},

		// transport boxes
		&TransportBox{},
		&TransportBoxItem{},
		&TransportBoxStateChange{},
		&PickingLine{},

		// gift packages
		&GiftPackageManufactureLog{},
		&GiftPackageManufactureItem{},

		// stock taking
		&StockTakingRun{},
		&StockTakingResult{},
	)
}
