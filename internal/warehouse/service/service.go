package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
)

// Services is the warehouse engine's service collection.
type Services struct {
	Ledger      *LedgerService
	Validator   *MovementValidator
	Box         *BoxService
	Assembly    *AssemblyService
	StockTaking *StockTakingService
	Report      *ReportService
}

// Dependencies is the explicit collaborator wiring for the engine: stores,
// the catalog resolver and the picking-list generator come in as interfaces.
type Dependencies struct {
	Ledger      LedgerStore
	Boxes       BoxStore
	Assemblies  AssemblyStore
	StockTaking StockTakingStore
	Catalog     CatalogResolver
	Picking     PickingListGenerator
	Redis       *redis.Client // optional
	Minio       *minio.Client // optional
	MinioBucket string
}

func NewServices(deps Dependencies) *Services {
	ledger := NewLedgerService(deps.Ledger, deps.Redis)
	validator := NewMovementValidator(deps.Catalog, ledger)
	stockTaking := NewStockTakingService(deps.StockTaking, ledger, deps.Catalog)

	return &Services{
		Ledger:      ledger,
		Validator:   validator,
		Box:         NewBoxService(deps.Boxes, ledger, validator, deps.Picking),
		Assembly:    NewAssemblyService(deps.Assemblies, ledger, validator),
		StockTaking: stockTaking,
		Report:      NewReportService(stockTaking, deps.Minio, deps.MinioBucket),
	}
}
