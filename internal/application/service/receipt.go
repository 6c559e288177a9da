package service

import (
	"fmt"
	"time"

	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/pricing"
	"github.com/sangkips/repairshop-api/pkg/money"
	"github.com/sangkips/repairshop-api/pkg/printer"
)

const receiptDateLayout = "2006-01-02 15:04"

// RenderSaleReceipt projects a sale into a receipt. Figures come from the
// pricing package so the printout matches the stored totals.
func RenderSaleReceipt(header entity.ReceiptHeader, sale *entity.Sale, loc *time.Location) *entity.Receipt {
	total := pricing.SaleTotal(pricing.SaleLines(sale.LineItems))

	r := &entity.Receipt{
		Kind:      entity.ReceiptKindSale,
		Header:    header,
		Reference: sale.ID.String(),
		Date:      sale.CreatedAt.In(loc).Format(receiptDateLayout),
		Cashier:   sale.CreatedByName,
		Customer:  sale.BuyerName,
		Items:     make([]entity.ReceiptItem, 0, len(sale.LineItems)),
		Total:     money.ToFloat(total),
		Paid:      money.ToFloat(sale.AmountPaid),
		Change:    money.ToFloat(pricing.ChangeDue(sale.AmountPaid, total)),
	}
	for _, li := range sale.LineItems {
		r.Items = append(r.Items, entity.ReceiptItem{
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: money.ToFloat(li.UnitPrice),
			Total:     money.ToFloat(pricing.LineSubtotal(li.UnitPrice, li.Quantity)),
		})
	}
	return r
}

// RenderServiceReceipt projects a ticket into a receipt, pricing parts with
// lookup. Unpriced parts are listed at zero and mark the receipt pending.
func RenderServiceReceipt(header entity.ReceiptHeader, ticket *entity.ServiceTicket, lookup pricing.Lookup, loc *time.Location) *entity.Receipt {
	quote := pricing.ServiceTotal(ticket.ServiceFee, pricing.TicketParts(ticket.PartsUsed), lookup)

	r := &entity.Receipt{
		Kind:          entity.ReceiptKindService,
		Header:        header,
		Reference:     ticket.ServiceCode,
		Date:          ticket.CreatedAt.In(loc).Format(receiptDateLayout),
		Cashier:       ticket.CreatedByName,
		Customer:      ticket.CustomerName,
		CustomerPhone: ticket.CustomerPhone,
		Device:        ticket.DeviceModel,
		Issue:         ticket.IssueDescription,
		Status:        ticket.Status.String(),
		PaymentMethod: ticket.PaymentMethod.String(),
		PaymentStatus: ticket.PaymentStatus.String(),
		Items:         make([]entity.ReceiptItem, 0, len(ticket.PartsUsed)),
		ServiceFee:    money.ToFloat(ticket.ServiceFee),
		Total:         money.ToFloat(quote.Total),
		Paid:          money.ToFloat(ticket.AmountPaid),
		Change:        money.ToFloat(pricing.ChangeDue(ticket.AmountPaid, quote.Total)),
		Outstanding:   money.ToFloat(pricing.Outstanding(ticket.AmountPaid, quote.Total)),
		Pending:       quote.Pending(),
	}
	for _, p := range ticket.PartsUsed {
		price, _ := lookup(p.StockItemID)
		r.Items = append(r.Items, entity.ReceiptItem{
			Name:      p.Name,
			Quantity:  p.Quantity,
			UnitPrice: money.ToFloat(price.Sell),
			Total:     money.ToFloat(pricing.LineSubtotal(price.Sell, p.Quantity)),
		})
	}
	return r
}

// FormatReceipt converts a Receipt into ESC/POS bytes for a printer that
// fits width characters per line.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)
	amount := func(v float64) string { return fmt.Sprintf("%.2f", v) }

	doc.Heading(r.Header.StoreName).
		Centered(r.Header.Address, r.Header.Phone).
		Rule('-')

	if r.Kind == entity.ReceiptKindService {
		doc.Pair("Service:", r.Reference)
	} else {
		doc.Pair("Sale:", shortRef(r.Reference))
	}
	doc.Pair("Date:", r.Date)

	optional := []struct{ key, value string }{
		{"Staff:", r.Cashier},
		{"Customer:", r.Customer},
		{"Phone:", r.CustomerPhone},
		{"Device:", r.Device},
	}
	for _, kv := range optional {
		if kv.value != "" {
			doc.Pair(kv.key, kv.value)
		}
	}
	if r.Issue != "" {
		doc.Line("Issue: " + r.Issue)
	}
	if r.Status != "" {
		doc.Pair("Status:", r.Status)
	}
	doc.Rule('-')

	for _, item := range r.Items {
		doc.Item(item.Quantity, item.Name, amount(item.Total))
		if item.Quantity > 1 {
			doc.Linef("  @ %.2f each", item.UnitPrice)
		}
	}
	if r.Kind == entity.ReceiptKindService {
		doc.Pair("Service fee:", amount(r.ServiceFee))
	}
	doc.Rule('-')

	doc.Bold(true).Pair("TOTAL:", amount(r.Total)).Bold(false)
	if r.Pending {
		doc.Line("* some parts could not be priced")
	}
	if r.PaymentMethod != "" {
		doc.Pair("Payment:", r.PaymentMethod)
	}
	doc.Pair("Paid:", amount(r.Paid))
	if r.Change > 0 {
		doc.Pair("Change:", amount(r.Change))
	}
	if r.Outstanding > 0 {
		doc.Pair("Outstanding:", amount(r.Outstanding))
	}
	if r.PaymentStatus != "" {
		doc.Pair("Payment status:", r.PaymentStatus)
	}
	doc.Rule('-').Feed(1)

	if r.Kind == entity.ReceiptKindService {
		doc.Centered("Keep this receipt to collect your device")
	} else {
		doc.Centered("Thank you for your purchase!")
	}

	return doc.Feed(4).Cut(true).Bytes()
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}
