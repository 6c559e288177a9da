package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/domain/pricing"
	"github.com/sangkips/repairshop-api/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var header = entity.ReceiptHeader{StoreName: "Cell Fix", Address: "Jl. Merdeka 1", Phone: "021-555"}

func TestRenderSaleReceiptMatchesSale(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	sale := &entity.Sale{
		ID:            uuid.New(),
		BuyerName:     "Ani",
		AmountPaid:    5000,
		CreatedByName: "Budi",
		CreatedAt:     time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC),
		LineItems: []entity.SaleLineItem{
			{Name: "Case", Quantity: 2, UnitPrice: 1000},
			{Name: "Cable", Quantity: 1, UnitPrice: 1500},
		},
	}
	sale.TotalAmount = pricing.SaleTotal(pricing.SaleLines(sale.LineItems))

	r := RenderSaleReceipt(header, sale, jakarta)
	assert.Equal(t, entity.ReceiptKindSale, r.Kind)
	assert.Equal(t, "2026-03-15 03:30", r.Date)
	assert.Equal(t, 35.0, r.Total)
	assert.Equal(t, 50.0, r.Paid)
	assert.Equal(t, 15.0, r.Change)
	require.Len(t, r.Items, 2)
	assert.Equal(t, 20.0, r.Items[0].Total)

	var sum float64
	for _, it := range r.Items {
		sum += it.Total
	}
	assert.Equal(t, r.Total, sum)
}

func TestRenderServiceReceiptPendingParts(t *testing.T) {
	known, unknown := uuid.New(), uuid.New()
	ticket := &entity.ServiceTicket{
		ServiceCode:   "SRV260314001",
		CustomerName:  "Sari",
		DeviceModel:   "Redmi 9",
		ServiceFee:    5000,
		PaymentMethod: enum.PaymentMethodDepositHalf,
		PaymentStatus: enum.PaymentStatusDepositPaid,
		AmountPaid:    4000,
		PartsUsed: []entity.ServicePart{
			{StockItemID: known, Name: "Battery", Quantity: 2, UnitPrice: 1500},
			{StockItemID: unknown, Name: "Gone", Quantity: 1, UnitPrice: 9999},
		},
	}
	lookup := pricing.CatalogLookup([]entity.StockItem{{ID: known, SellPrice: 1500}})

	r := RenderServiceReceipt(header, ticket, lookup, time.UTC)
	assert.Equal(t, "SRV260314001", r.Reference)
	assert.Equal(t, 80.0, r.Total)
	assert.Equal(t, 40.0, r.Outstanding)
	assert.True(t, r.Pending)
	assert.Equal(t, 0.0, r.Items[1].Total)
	assert.Equal(t, "DepositPaid", r.PaymentStatus)
}

func TestFormatReceiptContainsTotals(t *testing.T) {
	r := &entity.Receipt{
		Kind:      entity.ReceiptKindService,
		Header:    header,
		Reference: "SRV260314001",
		Date:      "2026-03-14 10:00",
		Items:     []entity.ReceiptItem{{Name: "Battery", Quantity: 2, UnitPrice: 15, Total: 30}},
		Total:     80,
		Paid:      40,
		Pending:   true,
	}
	data := FormatReceipt(r, 32)
	assert.True(t, bytes.Contains(data, []byte("SRV260314001")))
	assert.True(t, bytes.Contains(data, []byte("80.00")))
	assert.True(t, bytes.Contains(data, []byte("could not be priced")))
}

func TestPrinterServicePrintsSaleReceipt(t *testing.T) {
	f := newFixture(t)
	item := f.stock(t, "Case", 5, 500, 1000)
	sale, err := f.sales.Submit(context.Background(), technician, &SubmitSaleInput{
		BuyerName:  "Ani",
		Items:      []CartLine{{StockItemID: item.ID, Quantity: 1}},
		AmountPaid: 1000,
	})
	require.NoError(t, err)

	buf := printer.NewBufferPrinter()
	svc := NewPrinterService(buf, f.sales, f.tickets, PrinterOptions{Header: header}, zap.NewNop())

	r, err := svc.PrintSaleReceipt(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.Total)
	require.Len(t, buf.Jobs(), 1)
	assert.True(t, bytes.Contains(buf.Jobs()[0], []byte("Cell Fix")))

	status := svc.GetStatus(context.Background())
	assert.True(t, status.Configured)
	assert.True(t, status.Connected)
}
