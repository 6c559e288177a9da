package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/stretchr/testify/assert"
)

func TestSaleTotalAndChange(t *testing.T) {
	lines := []Line{{Quantity: 3, UnitPrice: 1000}, {Quantity: 1, UnitPrice: 2500}}
	total := SaleTotal(lines)
	assert.Equal(t, int64(5500), total)
	assert.Equal(t, int64(3000), LineSubtotal(1000, 3))

	assert.Equal(t, int64(0), ChangeDue(5500, total))
	assert.Equal(t, int64(500), ChangeDue(6000, total))
	assert.Equal(t, int64(0), ChangeDue(100, total), "change clamps at zero")
	assert.Equal(t, int64(5400), Outstanding(100, total))
	assert.Equal(t, int64(0), SaleTotal(nil))
}

func TestSaleLines(t *testing.T) {
	items := []entity.SaleLineItem{{Quantity: 2, UnitPrice: 150}, {Quantity: 1, UnitPrice: 50}}
	assert.Equal(t, int64(350), SaleTotal(SaleLines(items)))
}

func TestServiceTotal(t *testing.T) {
	screen := uuid.New()
	battery := uuid.New()
	missing := uuid.New()
	lookup := CatalogLookup([]entity.StockItem{
		{ID: screen, SellPrice: 2000000, PurchasePrice: 1500000},
		{ID: battery, SellPrice: 300000, PurchasePrice: 200000},
	})

	q := ServiceTotal(5000000, []Part{{StockItemID: screen, Quantity: 1}}, lookup)
	assert.Equal(t, int64(7000000), q.Total)
	assert.Equal(t, int64(2000000), q.PartsTotal)
	assert.False(t, q.Pending())

	q = ServiceTotal(100, []Part{{StockItemID: battery, Quantity: 2}, {StockItemID: missing, Quantity: 1}}, lookup)
	assert.Equal(t, int64(600100), q.Total)
	assert.True(t, q.Pending())
	assert.Equal(t, []uuid.UUID{missing}, q.Unresolved)
}

func TestSparepartMargin(t *testing.T) {
	screen := uuid.New()
	parts := []entity.ServicePart{{StockItemID: screen, Quantity: 2, UnitPrice: 2000, PurchasePrice: 1500}}
	margin := SparepartMargin(TicketParts(parts), SnapshotLookup(parts))
	assert.Equal(t, int64(1000), margin)

	assert.Equal(t, int64(0), SparepartMargin([]Part{{StockItemID: uuid.New(), Quantity: 4}}, SnapshotLookup(parts)))
}

func TestPaymentLadder(t *testing.T) {
	tests := []struct {
		name   string
		method enum.PaymentMethod
		paid   int64
		total  int64
		want   enum.PaymentStatus
	}{
		{"deposit below half", enum.PaymentMethodDepositHalf, 40, 100, enum.PaymentStatusUnpaid},
		{"deposit exactly half", enum.PaymentMethodDepositHalf, 50, 100, enum.PaymentStatusDepositPaid},
		{"deposit full", enum.PaymentMethodDepositHalf, 100, 100, enum.PaymentStatusPaidInFull},
		{"deposit odd total rounds up", enum.PaymentMethodDepositHalf, 50, 101, enum.PaymentStatusUnpaid},
		{"deposit odd total met", enum.PaymentMethodDepositHalf, 51, 101, enum.PaymentStatusDepositPaid},
		{"full short", enum.PaymentMethodPayInFull, 99, 100, enum.PaymentStatusUnpaid},
		{"full paid", enum.PaymentMethodPayInFull, 120, 100, enum.PaymentStatusPaidInFull},
		{"pay later ignores amount", enum.PaymentMethodPayLater, 100, 100, enum.PaymentStatusUnpaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaymentStatusFor(tt.method, tt.paid, tt.total))
		})
	}
}

func TestRequiredPayment(t *testing.T) {
	assert.Equal(t, int64(3500000), RequiredPayment(enum.PaymentMethodDepositHalf, 7000000))
	assert.Equal(t, int64(7000000), RequiredPayment(enum.PaymentMethodPayInFull, 7000000))
	assert.Equal(t, int64(0), RequiredPayment(enum.PaymentMethodPayLater, 7000000))
	assert.Equal(t, int64(51), DepositRequired(101))
}
