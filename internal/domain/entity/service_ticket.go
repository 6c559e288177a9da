package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/pkg/money"
	"gorm.io/gorm"
)

// ServiceTicket is a repair job from intake to pickup.
// Once PickupStatus is PickedUp the ticket is read-only.
type ServiceTicket struct {
	ID               uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	ServiceCode      string             `gorm:"size:20;uniqueIndex;not null" json:"service_code"`
	CustomerName     string             `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone    string             `gorm:"size:50" json:"customer_phone"`
	CustomerEmail    *string            `gorm:"size:255" json:"customer_email,omitempty"`
	DeviceModel      string             `gorm:"size:255;not null" json:"device_model"`
	IssueDescription string             `gorm:"type:text" json:"issue_description"`
	ServiceFee       int64              `gorm:"not null;default:0" json:"-"` // Stored in cents
	Status           enum.ServiceStatus `gorm:"not null;default:0;index" json:"status"`
	PaymentMethod    enum.PaymentMethod `gorm:"not null;default:0" json:"payment_method"`
	PaymentStatus    enum.PaymentStatus `gorm:"not null;default:0" json:"payment_status"`
	AmountPaid       int64              `gorm:"not null;default:0" json:"-"` // Stored in cents
	ChangeDue        int64              `gorm:"not null;default:0" json:"-"` // Stored in cents
	PickupStatus     enum.PickupStatus  `gorm:"not null;default:0" json:"pickup_status"`
	PickedUpAt       *time.Time         `json:"picked_up_at,omitempty"`
	PickedUpByID     *uuid.UUID         `gorm:"type:uuid" json:"picked_up_by_id,omitempty"`
	PickedUpByName   string             `gorm:"size:255" json:"picked_up_by_name,omitempty"`
	RequestedByID    *uuid.UUID         `gorm:"type:uuid;index" json:"requested_by_id,omitempty"`
	CreatedByID      *uuid.UUID         `gorm:"type:uuid" json:"created_by_id,omitempty"`
	CreatedByName    string             `gorm:"size:255" json:"created_by_name,omitempty"`
	CreatedAt        time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	PartsUsed        []ServicePart      `gorm:"foreignKey:TicketID" json:"parts_used"`
}

// IsPickedUp reports whether the ticket is locked.
func (t *ServiceTicket) IsPickedUp() bool {
	return t.PickupStatus == enum.PickupStatusPickedUp
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (t ServiceTicket) MarshalJSON() ([]byte, error) {
	type Alias ServiceTicket
	return json.Marshal(&struct {
		Alias
		ServiceFee float64 `json:"service_fee"`
		AmountPaid float64 `json:"amount_paid"`
		ChangeDue  float64 `json:"change_due"`
	}{
		Alias:      Alias(t),
		ServiceFee: money.ToFloat(t.ServiceFee),
		AmountPaid: money.ToFloat(t.AmountPaid),
		ChangeDue:  money.ToFloat(t.ChangeDue),
	})
}

// BeforeCreate generates a UUID before creating a new ticket
func (t *ServiceTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ServiceTicket model
func (ServiceTicket) TableName() string {
	return "service_tickets"
}

// ServicePart is a stock item fitted during a repair. Prices are captured
// when the part is consumed.
type ServicePart struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TicketID      uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	StockItemID   uuid.UUID `gorm:"type:uuid;not null;index" json:"stock_item_id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	UnitPrice     int64     `gorm:"not null" json:"-"` // Stored in cents
	PurchasePrice int64     `gorm:"not null" json:"-"` // Stored in cents
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (p ServicePart) MarshalJSON() ([]byte, error) {
	type Alias ServicePart
	return json.Marshal(&struct {
		Alias
		UnitPrice     float64 `json:"unit_price"`
		PurchasePrice float64 `json:"purchase_price"`
	}{
		Alias:         Alias(p),
		UnitPrice:     money.ToFloat(p.UnitPrice),
		PurchasePrice: money.ToFloat(p.PurchasePrice),
	})
}

// BeforeCreate generates a UUID before creating a new part row
func (p *ServicePart) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ServicePart model
func (ServicePart) TableName() string {
	return "service_parts"
}

// ServiceSequence is the per-day counter behind service codes.
type ServiceSequence struct {
	Day   string `gorm:"size:6;primaryKey"` // YYMMDD in shop time
	Value int    `gorm:"not null"`
}

// TableName returns the table name for the ServiceSequence model
func (ServiceSequence) TableName() string {
	return "service_sequences"
}

// PublicServiceStatus is what an anonymous visitor sees for a service code.
type PublicServiceStatus struct {
	ServiceCode   string             `json:"service_code"`
	DeviceModel   string             `json:"device_model"`
	Status        enum.ServiceStatus `json:"status"`
	PaymentStatus enum.PaymentStatus `json:"payment_status"`
	PickupStatus  enum.PickupStatus  `json:"pickup_status"`
	Total         float64            `json:"total"`
	AmountPaid    float64            `json:"amount_paid"`
	Pending       bool               `json:"pending"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
