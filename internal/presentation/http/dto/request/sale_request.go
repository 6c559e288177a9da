package request

// CartItemRequest is one cart line
type CartItemRequest struct {
	StockItemID string `json:"stock_item_id" binding:"required,uuid"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

// SubmitSaleRequest represents a checkout
type SubmitSaleRequest struct {
	BuyerName  string            `json:"buyer_name"`
	Items      []CartItemRequest `json:"items" binding:"dive"`
	AmountPaid float64           `json:"amount_paid" binding:"min=0"`
}

// QuoteSaleRequest prices a cart without submitting it
type QuoteSaleRequest struct {
	Items      []CartItemRequest `json:"items" binding:"dive"`
	AmountPaid float64           `json:"amount_paid" binding:"min=0"`
}

// SaleFilterRequest represents sale list parameters. Dates are YYYY-MM-DD
// in shop time; to is inclusive.
type SaleFilterRequest struct {
	Search  string `form:"search"`
	From    string `form:"from"`
	To      string `form:"to"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
