package handler

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/request"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/importer"
	"github.com/sangkips/repairshop-api/pkg/money"
)

// DeleteAllConfirmation must be passed as ?confirm= to wipe the inventory
const DeleteAllConfirmation = "DELETE-ALL-STOCK"

const maxImportSize = 10 << 20

// StockHandler handles inventory HTTP requests
type StockHandler struct {
	inventory *service.InventoryService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(inventory *service.InventoryService) *StockHandler {
	return &StockHandler{inventory: inventory}
}

// List handles listing stock items
func (h *StockHandler) List(c *gin.Context) {
	var filter request.StockFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.inventory.List(c.Request.Context(), &repository.StockFilterParams{
		Pagination: pageParams(filter.Page, filter.PerPage),
		Search:     filter.Search,
		InStock:    filter.InStock,
		SortBy:     filter.SortBy,
		SortOrder:  filter.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paged(c, "Stock items retrieved successfully", result)
}

// Get handles getting a single stock item
func (h *StockHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.inventory.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock item retrieved successfully", item)
}

// Create handles adding a stock item
func (h *StockHandler) Create(c *gin.Context) {
	var req request.CreateStockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.inventory.Create(c.Request.Context(), &service.StockItemInput{
		Code:          req.Code,
		Name:          req.Name,
		Quantity:      req.Quantity,
		PurchasePrice: money.FromFloat(req.PurchasePrice),
		SellPrice:     money.FromFloat(req.SellPrice),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Stock item created successfully", item)
}

// Update handles editing code, name and prices
func (h *StockHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateStockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.inventory.UpdateDetails(c.Request.Context(), id, &service.StockItemInput{
		Code:          req.Code,
		Name:          req.Name,
		PurchasePrice: money.FromFloat(req.PurchasePrice),
		SellPrice:     money.FromFloat(req.SellPrice),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock item updated successfully", item)
}

// Restock handles goods received
func (h *StockHandler) Restock(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.inventory.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock received", item)
}

// Adjust handles a manual ledger correction
func (h *StockHandler) Adjust(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.inventory.Adjust(c.Request.Context(), id, req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock adjusted", item)
}

// Delete handles removing a stock item
func (h *StockHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.inventory.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteAll wipes the inventory. It needs an explicit confirmation token.
func (h *StockHandler) DeleteAll(c *gin.Context) {
	if c.Query("confirm") != DeleteAllConfirmation {
		response.BadRequest(c, "Pass confirm="+DeleteAllConfirmation+" to delete every stock item")
		return
	}
	operator, ok := GetOperator(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	n, err := h.inventory.DeleteAll(c.Request.Context(), operator)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "All stock items deleted", gin.H{"deleted": n})
}

// Import handles bulk creation from pasted text, a text/plain body or an
// uploaded .xlsx workbook.
func (h *StockHandler) Import(c *gin.Context) {
	parsed, err := h.parseImport(c)
	if err != nil {
		if errors.Is(err, importer.ErrEmpty) {
			response.BadRequest(c, "Nothing to import")
			return
		}
		response.Error(c, err)
		return
	}

	result, err := h.inventory.Import(c.Request.Context(), parsed)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Imported "+strconv.Itoa(result.Created)+" stock items", result)
}

func (h *StockHandler) parseImport(c *gin.Context) (*importer.Result, error) {
	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return nil, apperror.NewBadRequestError("Upload the workbook in the \"file\" field")
		}
		defer file.Close()
		if strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
			return importer.ParseXLSX(io.LimitReader(file, maxImportSize))
		}
		return importer.ParseTSV(io.LimitReader(file, maxImportSize))

	case strings.HasPrefix(contentType, "text/plain"):
		return importer.ParseTSV(io.LimitReader(c.Request.Body, maxImportSize))

	default:
		var req request.ImportStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, apperror.NewBadRequestError("Invalid request body: " + err.Error())
		}
		return importer.ParseTSV(bytes.NewBufferString(req.Text))
	}
}

// LowStock lists items at or below the threshold (?threshold= overrides the default)
func (h *StockHandler) LowStock(c *gin.Context) {
	threshold := -1
	if v := c.Query("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(c, "threshold must be a non-negative integer")
			return
		}
		threshold = n
	}

	items, err := h.inventory.LowStock(c.Request.Context(), threshold)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Low stock items retrieved successfully", items)
}
