// Package pricing holds the money rules shared by the cart, submit-time
// validation, receipts and the dashboard. All amounts are int64 cents and
// every function is pure.
package pricing

import (
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
)

// Line is a priced quantity.
type Line struct {
	Quantity  int
	UnitPrice int64
}

// Part references a stock item used on a repair.
type Part struct {
	StockItemID uuid.UUID
	Quantity    int
}

// Price is what a part sells for and what the shop paid for it.
type Price struct {
	Sell     int64
	Purchase int64
}

// Lookup resolves a part's price. ok is false when the part is unknown.
type Lookup func(id uuid.UUID) (price Price, ok bool)

// ServiceQuote is a service total together with the parts that could not
// be priced. A quote with unresolved parts is pending, not free.
type ServiceQuote struct {
	ServiceFee int64
	PartsTotal int64
	Total      int64
	Unresolved []uuid.UUID
}

// Pending reports whether some parts were priced at zero because they
// could not be resolved.
func (q ServiceQuote) Pending() bool {
	return len(q.Unresolved) > 0
}

func LineSubtotal(unitPrice int64, qty int) int64 {
	return unitPrice * int64(qty)
}

func SaleTotal(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += LineSubtotal(l.UnitPrice, l.Quantity)
	}
	return total
}

// SaleLines converts persisted sale line items to calculator lines.
func SaleLines(items []entity.SaleLineItem) []Line {
	lines := make([]Line, len(items))
	for i, li := range items {
		lines[i] = Line{Quantity: li.Quantity, UnitPrice: li.UnitPrice}
	}
	return lines
}

// ChangeDue is never negative.
func ChangeDue(amountPaid, total int64) int64 {
	if amountPaid <= total {
		return 0
	}
	return amountPaid - total
}

// Outstanding is what is still owed, never negative.
func Outstanding(amountPaid, total int64) int64 {
	if amountPaid >= total {
		return 0
	}
	return total - amountPaid
}

// ServiceTotal adds the fee to the priced parts. Unknown parts count as 0
// and are listed in Unresolved.
func ServiceTotal(serviceFee int64, parts []Part, lookup Lookup) ServiceQuote {
	q := ServiceQuote{ServiceFee: serviceFee}
	for _, p := range parts {
		price, ok := lookup(p.StockItemID)
		if !ok {
			q.Unresolved = append(q.Unresolved, p.StockItemID)
			continue
		}
		q.PartsTotal += LineSubtotal(price.Sell, p.Quantity)
	}
	q.Total = serviceFee + q.PartsTotal
	return q
}

// SparepartMargin is the profit on parts: Σ qty × (sell − purchase).
// Unknown parts contribute nothing.
func SparepartMargin(parts []Part, lookup Lookup) int64 {
	var margin int64
	for _, p := range parts {
		price, ok := lookup(p.StockItemID)
		if !ok {
			continue
		}
		margin += LineSubtotal(price.Sell-price.Purchase, p.Quantity)
	}
	return margin
}

// DepositRequired is half the total, rounded up to the next cent.
func DepositRequired(total int64) int64 {
	return (total + 1) / 2
}

// RequiredPayment is the minimum amount a payment method accepts at intake.
func RequiredPayment(method enum.PaymentMethod, total int64) int64 {
	switch method {
	case enum.PaymentMethodDepositHalf:
		return DepositRequired(total)
	case enum.PaymentMethodPayInFull:
		return total
	default:
		return 0
	}
}

// PaymentStatusFor derives the payment status from the ladder inputs.
// PayLater stays Unpaid; only a manual override moves it.
func PaymentStatusFor(method enum.PaymentMethod, amountPaid, total int64) enum.PaymentStatus {
	switch method {
	case enum.PaymentMethodPayInFull:
		if amountPaid >= total {
			return enum.PaymentStatusPaidInFull
		}
		return enum.PaymentStatusUnpaid
	case enum.PaymentMethodDepositHalf:
		switch {
		case amountPaid >= total:
			return enum.PaymentStatusPaidInFull
		case 2*amountPaid >= total:
			return enum.PaymentStatusDepositPaid
		default:
			return enum.PaymentStatusUnpaid
		}
	default:
		return enum.PaymentStatusUnpaid
	}
}

// TicketParts converts a ticket's parts to calculator parts.
func TicketParts(parts []entity.ServicePart) []Part {
	out := make([]Part, len(parts))
	for i, p := range parts {
		out[i] = Part{StockItemID: p.StockItemID, Quantity: p.Quantity}
	}
	return out
}

// SnapshotLookup prices parts with the values captured when they were consumed.
func SnapshotLookup(parts []entity.ServicePart) Lookup {
	prices := make(map[uuid.UUID]Price, len(parts))
	for _, p := range parts {
		prices[p.StockItemID] = Price{Sell: p.UnitPrice, Purchase: p.PurchasePrice}
	}
	return mapLookup(prices)
}

// CatalogLookup prices parts with the current stock prices.
func CatalogLookup(items []entity.StockItem) Lookup {
	prices := make(map[uuid.UUID]Price, len(items))
	for _, it := range items {
		prices[it.ID] = Price{Sell: it.SellPrice, Purchase: it.PurchasePrice}
	}
	return mapLookup(prices)
}

func mapLookup(prices map[uuid.UUID]Price) Lookup {
	return func(id uuid.UUID) (Price, bool) {
		p, ok := prices[id]
		return p, ok
	}
}
