package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/onpaj/heblo/internal/warehouse/service"
)

type StockTakingHandler struct {
	svc    *service.StockTakingService
	report *service.ReportService
}

func NewStockTakingHandler(svc *service.StockTakingService, report *service.ReportService) *StockTakingHandler {
	return &StockTakingHandler{svc: svc, report: report}
}

// Reconcile POST /stock-takings
func (h *StockTakingHandler) Reconcile(c *gin.Context) {
	var req service.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	run, err := h.svc.Reconcile(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, run)
}

// ReconcileLine POST /stock-takings/:id/lines
func (h *StockTakingHandler) ReconcileLine(c *gin.Context) {
	var line service.StockTakingLineInput
	if err := c.ShouldBindJSON(&line); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.svc.ReconcileLine(c.Request.Context(), c.Param("id"), line, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, result)
}

// GetRun GET /stock-takings/:id
func (h *StockTakingHandler) GetRun(c *gin.Context) {
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, run)
}

// ListRuns GET /stock-takings
func (h *StockTakingHandler) ListRuns(c *gin.Context) {
	page, size := GetPagination(c)

	runs, total, err := h.svc.ListRuns(c.Request.Context(), page, size)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{Items: runs, Pagination: NewPagination(page, size, total)})
}

// Results GET /stock-takings/:id/results
func (h *StockTakingHandler) Results(c *gin.Context) {
	results, err := h.svc.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, gin.H{"items": results})
}

// Export GET /stock-takings/:id/export
func (h *StockTakingHandler) Export(c *gin.Context) {
	f, filename, err := h.report.ExportStockTaking(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// Archive POST /stock-takings/:id/archive
func (h *StockTakingHandler) Archive(c *gin.Context) {
	objectName, err := h.report.ArchiveStockTaking(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, gin.H{"object": objectName})
}
