package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/pkg/money"
	"gorm.io/gorm"
)

// Sale is a completed over-the-counter transaction. Immutable once created.
type Sale struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	BuyerName     string         `gorm:"size:255;not null" json:"buyer_name"`
	TotalAmount   int64          `gorm:"not null" json:"-"` // Stored in cents
	AmountPaid    int64          `gorm:"not null" json:"-"` // Stored in cents
	ChangeDue     int64          `gorm:"not null" json:"-"` // Stored in cents
	CreatedByID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedByName string         `gorm:"size:255" json:"created_by_name"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	LineItems     []SaleLineItem `gorm:"foreignKey:SaleID" json:"line_items"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (s Sale) MarshalJSON() ([]byte, error) {
	type Alias Sale
	return json.Marshal(&struct {
		Alias
		TotalAmount float64 `json:"total_amount"`
		AmountPaid  float64 `json:"amount_paid"`
		ChangeDue   float64 `json:"change_due"`
	}{
		Alias:       Alias(s),
		TotalAmount: money.ToFloat(s.TotalAmount),
		AmountPaid:  money.ToFloat(s.AmountPaid),
		ChangeDue:   money.ToFloat(s.ChangeDue),
	})
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// SaleLineItem is one cart line. Name and UnitPrice are snapshots taken at sale time.
type SaleLineItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SaleID      uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	StockItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"stock_item_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"-"`           // Stored in cents
	Subtotal    int64     `gorm:"not null;default:0" json:"-"` // Stored in cents, set by the pricing calculator
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (li SaleLineItem) MarshalJSON() ([]byte, error) {
	type Alias SaleLineItem
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		Subtotal  float64 `json:"subtotal"`
	}{
		Alias:     Alias(li),
		UnitPrice: money.ToFloat(li.UnitPrice),
		Subtotal:  money.ToFloat(li.Subtotal),
	})
}

// BeforeCreate generates a UUID before creating a new line item
func (li *SaleLineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleLineItem model
func (SaleLineItem) TableName() string {
	return "sale_line_items"
}
