package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

type LedgerHandler struct {
	svc *service.LedgerService
}

func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

type appendCorrectionRequest struct {
	ProductCode    string          `json:"product_code" binding:"required"`
	Lot            *string         `json:"lot"`
	QtyDelta       decimal.Decimal `json:"qty_delta" binding:"required"`
	IdempotencyKey string          `json:"idempotency_key" binding:"required"`
	Reason         string          `json:"reason"`
}

// AppendCorrection POST /ledger/corrections
//
// Manual corrections bypass the non-negative guard; everything else goes
// through movement operations on boxes, assemblies or stock takings.
func (h *LedgerHandler) AppendCorrection(c *gin.Context) {
	var req appendCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	balance, err := h.svc.Append(c.Request.Context(), service.AppendInput{
		ProductCode:    req.ProductCode,
		Lot:            req.Lot,
		QtyDelta:       req.QtyDelta,
		MovementType:   entity.MovementTypeCorrection,
		ReferenceType:  entity.RefTypeStockTaking,
		ReferenceID:    req.Reason,
		IdempotencyKey: req.IdempotencyKey,
		IsCorrection:   true,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, balance)
}

// ListEntries GET /ledger/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	page, size := GetPagination(c)
	params := service.LedgerEntryListParams{
		ProductCode:   c.Query("product_code"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Page:          page,
		Size:          size,
	}

	entries, total, err := h.svc.ListEntries(c.Request.Context(), params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{Items: entries, Pagination: NewPagination(page, size, total)})
}

// ListBalances GET /ledger/balances
func (h *LedgerHandler) ListBalances(c *gin.Context) {
	page, size := GetPagination(c)
	params := service.BalanceListParams{
		ProductCode: c.Query("product_code"),
		Page:        page,
		Size:        size,
	}

	balances, total, err := h.svc.ListBalances(c.Request.Context(), params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{Items: balances, Pagination: NewPagination(page, size, total)})
}

// GetBalance GET /ledger/balances/:productCode
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	balance, err := h.svc.Snapshot(c.Request.Context(), c.Param("productCode"), c.Query("lot"))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, balance)
}
