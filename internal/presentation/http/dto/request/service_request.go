package request

// CreateServiceRequest represents a technician intake
type CreateServiceRequest struct {
	CustomerName     string            `json:"customer_name"`
	CustomerPhone    string            `json:"customer_phone" binding:"omitempty,max=50"`
	CustomerEmail    string            `json:"customer_email" binding:"omitempty,email"`
	DeviceModel      string            `json:"device_model"`
	IssueDescription string            `json:"issue_description"`
	ServiceFee       float64           `json:"service_fee" binding:"min=0"`
	PaymentMethod    string            `json:"payment_method" binding:"required"`
	AmountPaid       float64           `json:"amount_paid" binding:"min=0"`
	Parts            []CartItemRequest `json:"parts" binding:"dive"`
	Status           string            `json:"status"`
}

// QuoteServiceRequest prices an intake form
type QuoteServiceRequest struct {
	ServiceFee    float64           `json:"service_fee" binding:"min=0"`
	PaymentMethod string            `json:"payment_method"`
	AmountPaid    float64           `json:"amount_paid" binding:"min=0"`
	Parts         []CartItemRequest `json:"parts" binding:"dive"`
}

// CustomerServiceRequest is a customer asking for a repair
type CustomerServiceRequest struct {
	Phone            string `json:"phone" binding:"omitempty,max=50"`
	DeviceModel      string `json:"device_model" binding:"required,max=255"`
	IssueDescription string `json:"issue_description" binding:"required"`
}

// UpdateServiceStatusRequest moves a ticket along the status axis
type UpdateServiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest is the manual payment status override
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// UpdatePaymentRequest changes ladder inputs. Omitted fields are kept.
type UpdatePaymentRequest struct {
	PaymentMethod *string  `json:"payment_method"`
	AmountPaid    *float64 `json:"amount_paid" binding:"omitempty,min=0"`
	ServiceFee    *float64 `json:"service_fee" binding:"omitempty,min=0"`
}

// PickupRequest confirms a pickup
type PickupRequest struct {
	AcknowledgeUnpaid bool `json:"acknowledge_unpaid"`
}

// ServiceFilterRequest represents ticket list parameters
type ServiceFilterRequest struct {
	Search        string `form:"search"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	PickupStatus  string `form:"pickup_status"`
	From          string `form:"from"`
	To            string `form:"to"`
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
}
