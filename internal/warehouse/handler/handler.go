package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

// Handlers is the warehouse handler set.
type Handlers struct {
	Box         *BoxHandler
	Ledger      *LedgerHandler
	Assembly    *AssemblyHandler
	StockTaking *StockTakingHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Box:         NewBoxHandler(svc.Box),
		Ledger:      NewLedgerHandler(svc.Ledger),
		Assembly:    NewAssemblyHandler(svc.Assembly),
		StockTaking: NewStockTakingHandler(svc.StockTaking, svc.Report),
	}
}

// Response is the common response envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps paginated collections.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func NewPagination(page, size int, total int64) *Pagination {
	pages := total / int64(size)
	if total%int64(size) != 0 {
		pages++
	}
	return &Pagination{Page: page, PageSize: size, Total: total, TotalPages: pages}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func Unprocessable(c *gin.Context, message string) {
	Error(c, 42200, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

func BadGateway(c *gin.Context, message string) {
	Error(c, 50200, message)
}

// HandleError maps domain sentinel errors onto the response envelope.
// Anything unrecognized is a 500.
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, entity.ErrUnknownProduct):
		NotFound(c, err.Error())
	case errors.Is(err, entity.ErrConcurrentModification),
		errors.Is(err, entity.ErrInvalidBoxState),
		errors.Is(err, entity.ErrIncompletePicking):
		Conflict(c, err.Error())
	case errors.Is(err, entity.ErrInsufficientStock):
		Unprocessable(c, err.Error())
	case errors.Is(err, entity.ErrEmptyAssembly):
		BadRequest(c, err.Error())
	case errors.Is(err, entity.ErrExternalDependencyFailure):
		BadGateway(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID reads the authenticated user id set by the JWT middleware.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page/page_size query params with sane bounds.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
