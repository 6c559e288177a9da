package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/request"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
)

// PrinterHandler handles printer-related HTTP requests.
type PrinterHandler struct {
	printerService *service.PrinterService
}

// NewPrinterHandler creates a new printer handler.
func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// GetStatus returns the current printer connection status.
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	status := h.printerService.GetStatus(c.Request.Context())
	response.OK(c, "Printer status retrieved", status)
}

// TestPrint sends a test page to the printer.
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	receipt, err := h.printerService.TestPrint(c.Request.Context())
	if err != nil {
		// the receipt is still useful when the printer is disabled
		response.OK(c, "Test print completed (printer may be disabled)", gin.H{
			"receipt": receipt,
			"warning": err.Error(),
		})
		return
	}

	response.OK(c, "Test page sent to printer", gin.H{
		"receipt": receipt,
	})
}

// PrintReceipt prints a receipt for a sale or service ticket.
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	var req request.PrintReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return
	}

	var printFn func(context.Context, uuid.UUID) (*entity.Receipt, error)
	switch req.Type {
	case "sale":
		printFn = h.printerService.PrintSaleReceipt
	case "service":
		printFn = h.printerService.PrintServiceReceipt
	default:
		response.BadRequest(c, "Invalid receipt type. Use 'sale' or 'service'")
		return
	}

	receipt, err := printFn(c.Request.Context(), id)
	if err != nil {
		if receipt != nil {
			response.OK(c, "Receipt generated but printing failed", gin.H{
				"receipt": receipt,
				"warning": err.Error(),
			})
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt printed successfully", gin.H{
		"receipt": receipt,
	})
}

// SaleReceipt returns a sale receipt document for the browser print dialog.
func (h *PrinterHandler) SaleReceipt(c *gin.Context) {
	h.render(c, h.printerService.SaleReceipt)
}

// ServiceReceipt returns a service receipt document for the browser print dialog.
func (h *PrinterHandler) ServiceReceipt(c *gin.Context) {
	h.render(c, h.printerService.ServiceReceipt)
}

func (h *PrinterHandler) render(c *gin.Context, build func(context.Context, uuid.UUID) (*entity.Receipt, error)) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	receipt, err := build(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt generated", receipt)
}
