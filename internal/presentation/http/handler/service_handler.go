package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/request"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/money"
)

// ServiceHandler handles service ticket HTTP requests
type ServiceHandler struct {
	ticketService *service.ServiceTicketService
	location      *time.Location
}

// NewServiceHandler creates a new service ticket handler
func NewServiceHandler(ticketService *service.ServiceTicketService, location *time.Location) *ServiceHandler {
	if location == nil {
		location = time.UTC
	}
	return &ServiceHandler{ticketService: ticketService, location: location}
}

// QuoteDraft prices an intake form before it is submitted
func (h *ServiceHandler) QuoteDraft(c *gin.Context) {
	var req request.QuoteServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	method := enum.PaymentMethodPayInFull
	if req.PaymentMethod != "" {
		m, err := enum.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			response.Error(c, apperror.NewFieldValidationError("payment_method", "is invalid"))
			return
		}
		method = m
	}

	quote, err := h.ticketService.QuoteDraft(c.Request.Context(), &service.QuoteDraftInput{
		ServiceFee:    money.FromFloat(req.ServiceFee),
		PaymentMethod: method,
		AmountPaid:    money.FromFloat(req.AmountPaid),
		Parts:         cartLines(req.Parts),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Service quoted", quote)
}

// Quote returns the current figures of an existing ticket
func (h *ServiceHandler) Quote(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	quote, err := h.ticketService.Quote(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Service quoted", quote)
}

// Create handles a technician intake
// @Summary Create service ticket
// @Description Consume parts and record a service ticket
// @Tags services
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body request.CreateServiceRequest true "Service data"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /services [post]
func (h *ServiceHandler) Create(c *gin.Context) {
	operator, ok := GetOperator(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var fieldErrs []apperror.FieldError
	method, err := enum.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "payment_method", Message: "is invalid"})
	}
	var status *enum.ServiceStatus
	if req.Status != "" {
		st, err := enum.ParseServiceStatus(req.Status)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "status", Message: "is invalid"})
		}
		status = &st
	}
	if len(fieldErrs) > 0 {
		response.Error(c, apperror.NewValidationError(fieldErrs))
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), operator, &service.CreateTicketInput{
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		DeviceModel:      req.DeviceModel,
		IssueDescription: req.IssueDescription,
		ServiceFee:       money.FromFloat(req.ServiceFee),
		PaymentMethod:    method,
		AmountPaid:       money.FromFloat(req.AmountPaid),
		Parts:            cartLines(req.Parts),
		Status:           status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Service ticket created successfully", ticket)
}

// SubmitRequest lets a signed-in customer ask for a repair
func (h *ServiceHandler) SubmitRequest(c *gin.Context) {
	customer, ok := GetOperator(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CustomerServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ticket, err := h.ticketService.SubmitRequest(c.Request.Context(), customer, req.Phone, req.DeviceModel, req.IssueDescription)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Service request received", ticket)
}

// MyRequests lists the tickets the signed-in customer asked for
func (h *ServiceHandler) MyRequests(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var filter request.ServiceFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.ticketService.List(c.Request.Context(), &service.ServiceTicketListInput{
		Pagination:    pageParams(filter.Page, filter.PerPage),
		RequestedByID: userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paged(c, "Service requests retrieved successfully", result)
}

// List handles listing service tickets
func (h *ServiceHandler) List(c *gin.Context) {
	var filter request.ServiceFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params, err := h.filterParams(&filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.ticketService.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paged(c, "Service tickets retrieved successfully", result)
}

func (h *ServiceHandler) filterParams(filter *request.ServiceFilterRequest) (*service.ServiceTicketListInput, error) {
	from, to, err := parseDateRange(filter.From, filter.To, h.location)
	if err != nil {
		return nil, err
	}
	params := &service.ServiceTicketListInput{
		Pagination: pageParams(filter.Page, filter.PerPage),
		Search:     filter.Search,
		From:       from,
		To:         to,
	}
	if filter.Status != "" {
		st, err := enum.ParseServiceStatus(filter.Status)
		if err != nil {
			return nil, apperror.NewFieldValidationError("status", "is invalid")
		}
		params.Status = &st
	}
	if filter.PaymentStatus != "" {
		ps, err := enum.ParsePaymentStatus(filter.PaymentStatus)
		if err != nil {
			return nil, apperror.NewFieldValidationError("payment_status", "is invalid")
		}
		params.PaymentStatus = &ps
	}
	if filter.PickupStatus != "" {
		ps, err := enum.ParsePickupStatus(filter.PickupStatus)
		if err != nil {
			return nil, apperror.NewFieldValidationError("pickup_status", "is invalid")
		}
		params.PickupStatus = &ps
	}
	return params, nil
}

// Get handles getting a single ticket
func (h *ServiceHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	ticket, err := h.ticketService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Service ticket retrieved successfully", ticket)
}

// UpdateStatus moves a ticket along its workflow
func (h *ServiceHandler) UpdateStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateServiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	status, err := enum.ParseServiceStatus(req.Status)
	if err != nil {
		response.Error(c, apperror.NewFieldValidationError("status", "is invalid"))
		return
	}

	ticket, err := h.ticketService.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Service status updated", ticket)
}

// UpdatePaymentStatus is the manual payment status override
func (h *ServiceHandler) UpdatePaymentStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	status, err := enum.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		response.Error(c, apperror.NewFieldValidationError("payment_status", "is invalid"))
		return
	}

	ticket, err := h.ticketService.UpdatePaymentStatus(c.Request.Context(), id, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment status updated", ticket)
}

// UpdatePayment changes the payment method, amount paid or fee
func (h *ServiceHandler) UpdatePayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := &service.UpdatePaymentInput{}
	if req.PaymentMethod != nil {
		method, err := enum.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			response.Error(c, apperror.NewFieldValidationError("payment_method", "is invalid"))
			return
		}
		input.PaymentMethod = &method
	}
	if req.AmountPaid != nil {
		paid := money.FromFloat(*req.AmountPaid)
		input.AmountPaid = &paid
	}
	if req.ServiceFee != nil {
		fee := money.FromFloat(*req.ServiceFee)
		input.ServiceFee = &fee
	}

	ticket, err := h.ticketService.UpdatePayment(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment updated", ticket)
}

// Pickup confirms the customer collected the device
func (h *ServiceHandler) Pickup(c *gin.Context) {
	operator, ok := GetOperator(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.PickupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	ticket, err := h.ticketService.ConfirmPickup(c.Request.Context(), id, operator, req.AcknowledgeUnpaid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Pickup confirmed", ticket)
}

// Delete removes a ticket and returns its parts to stock
func (h *ServiceHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.ticketService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
