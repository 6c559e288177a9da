package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/request"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
	"github.com/sangkips/repairshop-api/pkg/money"
)

// SaleHandler handles sale HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
	location    *time.Location
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService, location *time.Location) *SaleHandler {
	if location == nil {
		location = time.UTC
	}
	return &SaleHandler{saleService: saleService, location: location}
}

// Quote prices a cart against current stock without submitting it
func (h *SaleHandler) Quote(c *gin.Context) {
	var req request.QuoteSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	draft, err := h.saleService.Quote(c.Request.Context(), cartLines(req.Items), money.FromFloat(req.AmountPaid))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale quoted", draft)
}

// Submit handles checkout
// @Summary Submit sale
// @Description Consume stock and record a sale
// @Tags sales
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body request.SubmitSaleRequest true "Sale data"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /sales [post]
func (h *SaleHandler) Submit(c *gin.Context) {
	operator, ok := GetOperator(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.SubmitSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.Submit(c.Request.Context(), operator, &service.SubmitSaleInput{
		BuyerName:  req.BuyerName,
		Items:      cartLines(req.Items),
		AmountPaid: money.FromFloat(req.AmountPaid),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale recorded successfully", sale)
}

// List handles the sales history
func (h *SaleHandler) List(c *gin.Context) {
	var filter request.SaleFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	from, to, err := parseDateRange(filter.From, filter.To, h.location)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.saleService.List(c.Request.Context(), &service.SaleListInput{
		Pagination: pageParams(filter.Page, filter.PerPage),
		Search:     filter.Search,
		From:       from,
		To:         to,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paged(c, "Sales retrieved successfully", result)
}

// Get handles getting a single sale
func (h *SaleHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	sale, err := h.saleService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}
