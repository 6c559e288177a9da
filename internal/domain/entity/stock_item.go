package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/pkg/money"
	"gorm.io/gorm"
)

// StockItem is a spare part or accessory kept on the shelf.
// Quantities change only through the inventory ledger.
type StockItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Code          string    `gorm:"size:100;index" json:"code"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	QtyOnHand     int       `gorm:"not null;default:0" json:"qty_on_hand"`
	QtyConsumed   int       `gorm:"not null;default:0" json:"qty_consumed"`
	PurchasePrice int64     `gorm:"not null;default:0" json:"-"` // Stored in cents
	SellPrice     int64     `gorm:"not null;default:0" json:"-"` // Stored in cents
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new stock item
func (s *StockItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StockItem model
func (StockItem) TableName() string {
	return "stock_items"
}

// Available is the quantity that can still be sold or fitted.
func (s *StockItem) Available() int {
	return s.QtyOnHand
}

// Margin is the per-unit profit in cents.
func (s *StockItem) Margin() int64 {
	return s.SellPrice - s.PurchasePrice
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (s StockItem) MarshalJSON() ([]byte, error) {
	type Alias StockItem
	return json.Marshal(&struct {
		Alias
		Available     int     `json:"available"`
		PurchasePrice float64 `json:"purchase_price"`
		SellPrice     float64 `json:"sell_price"`
		Margin        float64 `json:"margin"`
	}{
		Alias:         Alias(s),
		Available:     s.Available(),
		PurchasePrice: money.ToFloat(s.PurchasePrice),
		SellPrice:     money.ToFloat(s.SellPrice),
		Margin:        money.ToFloat(s.Margin()),
	})
}

// CatalogEntry is the public storefront view of a stock item.
type CatalogEntry struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Price   float64   `json:"price"`
	InStock bool      `json:"in_stock"`
}
