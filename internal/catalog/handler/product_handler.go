package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/onpaj/heblo/internal/catalog/repository"
	"github.com/onpaj/heblo/internal/catalog/service"
	wh "github.com/onpaj/heblo/internal/warehouse/handler"
)

type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Create POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var input service.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		wh.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	p, err := h.svc.Create(c.Request.Context(), input, wh.GetUserID(c))
	if err != nil {
		wh.BadRequest(c, err.Error())
		return
	}

	wh.Created(c, p)
}

// Get GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		wh.HandleError(c, err)
		return
	}

	wh.Success(c, p)
}

// List GET /products
func (h *ProductHandler) List(c *gin.Context) {
	page, size := wh.GetPagination(c)
	params := repository.ProductListParams{
		Type:    c.Query("type"),
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    size,
	}

	products, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		wh.InternalError(c, err.Error())
		return
	}

	wh.Success(c, wh.ListResponse{Items: products, Pagination: wh.NewPagination(page, size, total)})
}
