package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

type BoxHandler struct {
	svc *service.BoxService
}

func NewBoxHandler(svc *service.BoxService) *BoxHandler {
	return &BoxHandler{svc: svc}
}

// Create POST /boxes
func (h *BoxHandler) Create(c *gin.Context) {
	var req service.CreateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	box, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, box)
}

// Get GET /boxes/:id
func (h *BoxHandler) Get(c *gin.Context) {
	box, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, box)
}

// List GET /boxes
func (h *BoxHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	params := service.BoxListParams{
		State:   entity.BoxState(c.Query("state")),
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    size,
	}

	boxes, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{Items: boxes, Pagination: NewPagination(page, size, total)})
}

// AddItem POST /boxes/:id/items
func (h *BoxHandler) AddItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	box, err := h.svc.AddItem(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, box)
}

// RemoveItem DELETE /boxes/:id/items
func (h *BoxHandler) RemoveItem(c *gin.Context) {
	var req service.RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	box, err := h.svc.RemoveItem(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, box)
}

// RequestPicking POST /boxes/:id/picking
func (h *BoxHandler) RequestPicking(c *gin.Context) {
	box, err := h.svc.RequestPicking(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, box)
}

type markLineRequest struct {
	ProductCode string `json:"product_code" binding:"required"`
}

// MarkLinePicked POST /boxes/:id/picking/lines
func (h *BoxHandler) MarkLinePicked(c *gin.Context) {
	var req markLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.svc.MarkLinePicked(c.Request.Context(), c.Param("id"), req.ProductCode, GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}

	Success(c, nil)
}

// MarkPacked POST /boxes/:id/pack
func (h *BoxHandler) MarkPacked(c *gin.Context) {
	req, ok := bindTransition(c)
	if !ok {
		return
	}

	box, err := h.svc.MarkPacked(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, box)
}

// Ship POST /boxes/:id/ship
func (h *BoxHandler) Ship(c *gin.Context) {
	req, ok := bindTransition(c)
	if !ok {
		return
	}

	box, err := h.svc.Ship(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, box)
}

// Cancel POST /boxes/:id/cancel
func (h *BoxHandler) Cancel(c *gin.Context) {
	req, ok := bindTransition(c)
	if !ok {
		return
	}

	box, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, box)
}

// bindTransition tolerates an empty body; ExpectedState stays "" which skips
// the fast-fail check.
func bindTransition(c *gin.Context) (service.TransitionRequest, bool) {
	var req service.TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "Invalid request: "+err.Error())
			return req, false
		}
	}
	return req, true
}
