package handler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/onpaj/heblo/internal/testutil"
	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

// seedStock books initial stock through the correction path.
func seedStock(t *testing.T, env *testutil.Env, code string, qty int64) {
	t.Helper()
	_, err := env.Services.Ledger.Append(context.Background(), service.AppendInput{
		ProductCode:    code,
		QtyDelta:       decimal.NewFromInt(qty),
		MovementType:   entity.MovementTypeCorrection,
		ReferenceType:  entity.RefTypeStockTaking,
		ReferenceID:    "seed",
		IdempotencyKey: "seed:" + uuid.New().String(),
		IsCorrection:   true,
		CreatedBy:      "seeder",
	})
	if err != nil {
		t.Fatalf("seed %d of %s: %v", qty, code, err)
	}
}
