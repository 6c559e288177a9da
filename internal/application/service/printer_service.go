package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/pkg/printer"
	"go.uber.org/zap"
)

// PrinterService renders receipts and sends them to the thermal printer.
type PrinterService struct {
	printer  printer.Printer
	sales    *SaleService
	tickets  *ServiceTicketService
	header   entity.ReceiptHeader
	location *time.Location
	width    int
	log      *zap.Logger
}

// PrinterOptions sets the paper width and receipt header.
type PrinterOptions struct {
	Width    int
	Header   entity.ReceiptHeader
	Location *time.Location
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	sales *SaleService,
	tickets *ServiceTicketService,
	opts PrinterOptions,
	log *zap.Logger,
) *PrinterService {
	if opts.Width <= 0 {
		opts.Width = printer.Width58mm
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &PrinterService{
		printer:  p,
		sales:    sales,
		tickets:  tickets,
		header:   opts.Header,
		location: opts.Location,
		width:    opts.Width,
		log:      log,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printer.Type() != printer.TypeNone,
		Connected:  s.printer.IsConnected(ctx),
		Type:       s.printer.Type(),
	}
}

// TestPrint sends a test page to the printer.
// Returns the receipt data so the handler can return it as JSON when printer is disabled.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Kind:      entity.ReceiptKindSale,
		Header:    s.header,
		Reference: "TEST",
		Date:      time.Now().In(s.location).Format(receiptDateLayout),
		Cashier:   "System",
		Items: []entity.ReceiptItem{
			{Name: "Test Item 1", Quantity: 1, UnitPrice: 10.00, Total: 10.00},
			{Name: "Test Item 2", Quantity: 2, UnitPrice: 5.00, Total: 10.00},
		},
		Total: 20.00,
		Paid:  20.00,
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// SaleReceipt renders a sale receipt without printing it.
func (s *PrinterService) SaleReceipt(ctx context.Context, saleID uuid.UUID) (*entity.Receipt, error) {
	sale, err := s.sales.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return RenderSaleReceipt(s.header, sale, s.location), nil
}

// ServiceReceipt renders a service receipt without printing it.
func (s *PrinterService) ServiceReceipt(ctx context.Context, ticketID uuid.UUID) (*entity.Receipt, error) {
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	lookup, err := s.tickets.Lookup(ctx, ticket)
	if err != nil {
		return nil, err
	}
	return RenderServiceReceipt(s.header, ticket, lookup, s.location), nil
}

// PrintSaleReceipt renders and prints a sale receipt. The receipt is
// returned even when printing fails.
func (s *PrinterService) PrintSaleReceipt(ctx context.Context, saleID uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.SaleReceipt(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return receipt, s.print(ctx, receipt)
}

// PrintServiceReceipt renders and prints a service receipt. The receipt is
// returned even when printing fails.
func (s *PrinterService) PrintServiceReceipt(ctx context.Context, ticketID uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.ServiceReceipt(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return receipt, s.print(ctx, receipt)
}

func (s *PrinterService) print(ctx context.Context, receipt *entity.Receipt) error {
	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		s.log.Warn("printer error",
			zap.String("kind", string(receipt.Kind)),
			zap.String("reference", receipt.Reference),
			zap.Error(err))
		return fmt.Errorf("failed to print receipt: %w", err)
	}
	return nil
}
