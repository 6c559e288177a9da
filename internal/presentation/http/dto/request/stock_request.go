package request

// CreateStockItemRequest represents a stock item creation request.
// Prices are decimal amounts.
type CreateStockItemRequest struct {
	Code          string  `json:"code" binding:"omitempty,max=100"`
	Name          string  `json:"name" binding:"required,max=255"`
	Quantity      int     `json:"quantity" binding:"min=0"`
	PurchasePrice float64 `json:"purchase_price" binding:"min=0"`
	SellPrice     float64 `json:"sell_price" binding:"min=0"`
}

// UpdateStockItemRequest changes details only. Quantities move through
// restock, adjust, sales and services.
type UpdateStockItemRequest struct {
	Code          string  `json:"code" binding:"omitempty,max=100"`
	Name          string  `json:"name" binding:"required,max=255"`
	PurchasePrice float64 `json:"purchase_price" binding:"min=0"`
	SellPrice     float64 `json:"sell_price" binding:"min=0"`
}

// RestockRequest records goods received
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// AdjustStockRequest is a manual signed correction
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ImportStockRequest carries pasted spreadsheet text
type ImportStockRequest struct {
	Text string `json:"text" binding:"required"`
}

// StockFilterRequest represents stock filter parameters
type StockFilterRequest struct {
	Search    string `form:"search"`
	InStock   bool   `form:"in_stock"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}
