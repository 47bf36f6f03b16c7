package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/onpaj/heblo/internal/warehouse/service"
)

type AssemblyHandler struct {
	svc *service.AssemblyService
}

func NewAssemblyHandler(svc *service.AssemblyService) *AssemblyHandler {
	return &AssemblyHandler{svc: svc}
}

// Assemble POST /gift-packages
func (h *AssemblyHandler) Assemble(c *gin.Context) {
	var req service.AssembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	log, err := h.svc.Assemble(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, log)
}

// Get GET /gift-packages/:id
func (h *AssemblyHandler) Get(c *gin.Context) {
	log, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, log)
}

// List GET /gift-packages
func (h *AssemblyHandler) List(c *gin.Context) {
	page, size := GetPagination(c)

	logs, total, err := h.svc.List(c.Request.Context(), page, size)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{Items: logs, Pagination: NewPagination(page, size, total)})
}
