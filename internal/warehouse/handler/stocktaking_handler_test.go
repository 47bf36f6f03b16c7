package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	catentity "github.com/onpaj/heblo/internal/catalog/entity"
	"github.com/onpaj/heblo/internal/testutil"
)

func setupStockTakingTest(t *testing.T) (*gin.Engine, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv()
	env.RegisterProduct("RAW-001", catentity.ProductTypeRaw)
	seedStock(t, env, "RAW-001", 10)

	h := NewHandlers(env.Services)
	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	st := api.Group("/stock-takings")
	st.GET("", h.StockTaking.ListRuns)
	st.POST("", h.StockTaking.Reconcile)
	st.GET("/:id", h.StockTaking.GetRun)
	st.POST("/:id/lines", h.StockTaking.ReconcileLine)
	st.GET("/:id/results", h.StockTaking.Results)

	ledger := api.Group("/ledger")
	ledger.GET("/entries", h.Ledger.ListEntries)
	ledger.GET("/balances/:productCode", h.Ledger.GetBalance)
	ledger.POST("/corrections", h.Ledger.AppendCorrection)

	return router, env
}

func TestReconcileOverHTTP(t *testing.T) {
	router, _ := setupStockTakingTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(router, "POST", "/api/v1/stock-takings", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_code": "RAW-001", "counted_qty": "7"},
			{"product_code": "NOPE-001", "counted_qty": "1"},
		},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("reconcile status = %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	runID := data["id"].(string)
	results := data["results"].([]interface{})
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	// The unknown product line carries its error instead of failing the run.
	second := results[1].(map[string]interface{})
	if second["error"] == nil {
		t.Error("expected error on unknown-product line")
	}

	// The correction landed on the balance.
	w = testutil.DoRequest(router, "GET", "/api/v1/ledger/balances/RAW-001", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("balance status = %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	bal := resp["data"].(map[string]interface{})
	if bal["quantity"] != "7" {
		t.Errorf("quantity = %v, want 7", bal["quantity"])
	}

	w = testutil.DoRequest(router, "GET", "/api/v1/stock-takings/"+runID+"/results", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("results status = %d", w.Code)
	}
}

func TestReconcileRequiresLines(t *testing.T) {
	router, _ := setupStockTakingTest(t)

	w := testutil.DoRequest(router, "POST", "/api/v1/stock-takings",
		map[string]interface{}{}, testutil.DefaultTestToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestManualCorrectionOverHTTP(t *testing.T) {
	router, _ := setupStockTakingTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(router, "POST", "/api/v1/ledger/corrections", map[string]interface{}{
		"product_code":    "RAW-001",
		"qty_delta":       "-15",
		"idempotency_key": "manual:test:1",
		"reason":          "damage write-off",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("correction status = %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	bal := resp["data"].(map[string]interface{})
	if bal["quantity"] != "-5" {
		t.Errorf("quantity = %v, want -5 (corrections may go negative)", bal["quantity"])
	}

	// Replay returns the same outcome without a second entry.
	w = testutil.DoRequest(router, "POST", "/api/v1/ledger/corrections", map[string]interface{}{
		"product_code":    "RAW-001",
		"qty_delta":       "-15",
		"idempotency_key": "manual:test:1",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay status = %d", w.Code)
	}

	w = testutil.DoRequest(router, "GET", "/api/v1/ledger/entries?product_code=RAW-001", nil, token)
	resp = testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 2 { // seed + one correction
		t.Fatalf("entries = %d, want 2", len(items))
	}
}
