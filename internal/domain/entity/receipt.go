package entity

// ReceiptHeader holds the shop header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ReceiptKind distinguishes sale receipts from service receipts.
type ReceiptKind string

const (
	ReceiptKindSale    ReceiptKind = "sale"
	ReceiptKindService ReceiptKind = "service"
)

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Receipt is a value object representing a printable receipt.
// It is composed from a sale or service ticket at print time and never stored.
type Receipt struct {
	Kind          ReceiptKind   `json:"kind"`
	Header        ReceiptHeader `json:"header"`
	Reference     string        `json:"reference"`
	Date          string        `json:"date"`
	Cashier       string        `json:"cashier,omitempty"`
	Customer      string        `json:"customer,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	Device        string        `json:"device,omitempty"`
	Issue         string        `json:"issue,omitempty"`
	Status        string        `json:"status,omitempty"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	PaymentStatus string        `json:"payment_status,omitempty"`
	Items         []ReceiptItem `json:"items"`
	ServiceFee    float64       `json:"service_fee,omitempty"`
	Total         float64       `json:"total"`
	Paid          float64       `json:"paid"`
	Change        float64       `json:"change"`
	Outstanding   float64       `json:"outstanding"`
	Pending       bool          `json:"pending,omitempty"`
}
