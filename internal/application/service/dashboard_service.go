package service

import (
	"context"
	"sort"
	"time"

	"github.com/sangkips/repairshop-api/internal/domain/pricing"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/money"
)

// DashboardService provides dashboard statistics
type DashboardService struct {
	saleRepo   repository.SaleRepository
	ticketRepo repository.ServiceTicketRepository
	inventory  *InventoryService
	tickets    *ServiceTicketService
	location   *time.Location
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	saleRepo repository.SaleRepository,
	ticketRepo repository.ServiceTicketRepository,
	inventory *InventoryService,
	tickets *ServiceTicketService,
	location *time.Location,
) *DashboardService {
	if location == nil {
		location = time.UTC
	}
	return &DashboardService{
		saleRepo:   saleRepo,
		ticketRepo: ticketRepo,
		inventory:  inventory,
		tickets:    tickets,
		location:   location,
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	From            string            `json:"from"`
	To              string            `json:"to"`
	SalesCount      int               `json:"sales_count"`
	SalesRevenue    float64           `json:"sales_revenue"`
	ServicesCount   int               `json:"services_count"`
	ServiceRevenue  float64           `json:"service_revenue"`
	SparepartMargin float64           `json:"sparepart_margin"`
	PendingQuotes   int               `json:"pending_quotes"`
	LowStockCount   int               `json:"low_stock_count"`
	TicketsByStatus map[string]int64  `json:"tickets_by_status"`
	DailySalesData  []DailySalesPoint `json:"daily_sales_data"`
}

// DailySalesPoint represents a daily sales data point
type DailySalesPoint struct {
	Date         string  `json:"date"`
	SalesRevenue float64 `json:"sales_revenue"`
	ServicePaid  float64 `json:"service_paid"`
}

// GetDashboardStats summarises [from, to). Zero bounds default to the
// current month in shop time.
func (s *DashboardService) GetDashboardStats(ctx context.Context, from, to time.Time) (*DashboardStats, error) {
	now := time.Now().In(s.location)
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
	}
	if to.IsZero() {
		to = from.AddDate(0, 1, 0)
	}

	sales, err := s.saleRepo.ListBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, storageErr("dashboard sales", err)
	}
	tickets, err := s.ticketRepo.ListBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, storageErr("dashboard services", err)
	}
	counts, err := s.ticketRepo.CountByStatus(ctx)
	if err != nil {
		return nil, storageErr("dashboard services", err)
	}
	low, err := s.inventory.LowStock(ctx, -1)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		From:            from.In(s.location).Format("2006-01-02"),
		To:              to.In(s.location).Format("2006-01-02"),
		SalesCount:      len(sales),
		ServicesCount:   len(tickets),
		LowStockCount:   len(low),
		TicketsByStatus: make(map[string]int64, len(counts)),
	}
	for status, n := range counts {
		stats.TicketsByStatus[status.String()] = n
	}

	daily := make(map[string]*DailySalesPoint)
	var days []string
	point := func(t time.Time) *DailySalesPoint {
		day := t.In(s.location).Format("2006-01-02")
		p, ok := daily[day]
		if !ok {
			p = &DailySalesPoint{Date: day}
			daily[day] = p
			days = append(days, day)
		}
		return p
	}

	var salesRevenue, serviceRevenue, margin int64
	for _, sale := range sales {
		total := pricing.SaleTotal(pricing.SaleLines(sale.LineItems))
		salesRevenue += total
		point(sale.CreatedAt).SalesRevenue += money.ToFloat(total)
	}
	for i := range tickets {
		t := &tickets[i]
		lookup, err := s.tickets.Lookup(ctx, t)
		if err != nil {
			return nil, err
		}
		parts := pricing.TicketParts(t.PartsUsed)
		quote := pricing.ServiceTotal(t.ServiceFee, parts, lookup)
		if quote.Pending() {
			stats.PendingQuotes++
		}
		margin += pricing.SparepartMargin(parts, lookup)
		// Change handed back is not revenue.
		kept := t.AmountPaid - pricing.ChangeDue(t.AmountPaid, quote.Total)
		serviceRevenue += kept
		point(t.CreatedAt).ServicePaid += money.ToFloat(kept)
	}

	stats.SalesRevenue = money.ToFloat(salesRevenue)
	stats.ServiceRevenue = money.ToFloat(serviceRevenue)
	stats.SparepartMargin = money.ToFloat(margin)

	sort.Strings(days)
	stats.DailySalesData = make([]DailySalesPoint, 0, len(days))
	for _, d := range days {
		stats.DailySalesData = append(stats.DailySalesData, *daily[d])
	}
	return stats, nil
}
