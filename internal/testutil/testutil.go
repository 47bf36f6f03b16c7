package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	catentity "github.com/onpaj/heblo/internal/catalog/entity"
	"github.com/onpaj/heblo/internal/middleware"
	"github.com/onpaj/heblo/internal/warehouse/repository/memory"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

const JWTSecret = "heblo-test-jwt-secret"

// Env bundles in-memory stores with the service set wired over them.
type Env struct {
	Ledger      *memory.LedgerStore
	Boxes       *memory.BoxStore
	Assemblies  *memory.GiftPackageStore
	StockTaking *memory.StockTakingStore
	Catalog     *memory.CatalogResolver
	Picking     *StubPicking
	Services    *service.Services
}

// NewEnv builds a fully wired in-memory service environment.
func NewEnv() *Env {
	env := &Env{
		Ledger:      memory.NewLedgerStore(),
		Boxes:       memory.NewBoxStore(),
		Assemblies:  memory.NewGiftPackageStore(),
		StockTaking: memory.NewStockTakingStore(),
		Catalog:     memory.NewCatalogResolver(),
		Picking:     &StubPicking{},
	}
	env.Services = service.NewServices(service.Dependencies{
		Ledger:      env.Ledger,
		Boxes:       env.Boxes,
		Assemblies:  env.Assemblies,
		StockTaking: env.StockTaking,
		Catalog:     env.Catalog,
		Picking:     env.Picking,
	})
	return env
}

// RegisterProduct seeds a catalog product and returns its code.
func (e *Env) RegisterProduct(code, productType string) string {
	e.Catalog.Register(&catentity.Product{
		Code: code,
		Name: "Test " + code,
		Type: productType,
		Unit: "pcs",
	})
	return code
}

// StubPicking fakes the external picking system. Err, when set, is returned
// for every call.
type StubPicking struct {
	Err      error
	Requests []service.PickingListRequest
}

func (s *StubPicking) CreatePickingList(_ context.Context, req service.PickingListRequest) (*service.PickingListResult, error) {
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return nil, s.Err
	}
	result := &service.PickingListResult{}
	for _, item := range req.Items {
		result.Lines = append(result.Lines, service.PickingResultLine{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
		})
	}
	return result, nil
}

// SetupRouter creates a gin test engine.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group guarded by the test JWT secret.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a signed token for the given identity.
func GenerateTestToken(userID, name string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": name + "@test.local",
		"roles": roles,
		"iss":   "heblo",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default warehouse operator.
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Operator", []string{"warehouse_admin"})
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the response envelope.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}
