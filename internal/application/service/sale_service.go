package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/pricing"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/money"
	"github.com/sangkips/repairshop-api/pkg/pagination"
	"go.uber.org/zap"
)

// SaleService runs over-the-counter sales
type SaleService struct {
	saleRepo   repository.SaleRepository
	inventory  *InventoryService
	transactor repository.Transactor
	log        *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	saleRepo repository.SaleRepository,
	inventory *InventoryService,
	transactor repository.Transactor,
	log *zap.Logger,
) *SaleService {
	return &SaleService{
		saleRepo:   saleRepo,
		inventory:  inventory,
		transactor: transactor,
		log:        log,
	}
}

// CartLine is one requested line of a cart.
type CartLine struct {
	StockItemID uuid.UUID
	Quantity    int
}

// SubmitSaleInput is a cart ready for checkout. AmountPaid is in cents.
type SubmitSaleInput struct {
	BuyerName  string
	Items      []CartLine
	AmountPaid int64
}

// SaleDraft is the live view of a cart before submission.
type SaleDraft struct {
	Lines      []entity.SaleLineItem    `json:"line_items"`
	Total      float64                  `json:"total"`
	AmountPaid float64                  `json:"amount_paid"`
	ChangeDue  float64                  `json:"change_due"`
	Shortfall  float64                  `json:"shortfall"`
	Missing    []string                 `json:"missing,omitempty"`
	Shortages  []apperror.StockShortage `json:"shortages,omitempty"`
}

func validateCart(items []CartLine) []apperror.FieldError {
	var errs []apperror.FieldError
	if len(items) == 0 {
		errs = append(errs, apperror.FieldError{Field: "items", Message: "cart is empty"})
	}
	for _, it := range items {
		if it.StockItemID == uuid.Nil {
			errs = append(errs, apperror.FieldError{Field: "items.stock_item_id", Message: "is required"})
		}
		if it.Quantity <= 0 {
			errs = append(errs, apperror.FieldError{Field: "items.quantity", Message: "must be greater than zero"})
		}
	}
	return errs
}

// mergeCart folds repeated items into one line, keeping first-seen order.
func mergeCart(items []CartLine) ([]uuid.UUID, map[uuid.UUID]int) {
	order := make([]uuid.UUID, 0, len(items))
	qty := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if _, ok := qty[it.StockItemID]; !ok {
			order = append(order, it.StockItemID)
		}
		qty[it.StockItemID] += it.Quantity
	}
	return order, qty
}

func priceLines(order []uuid.UUID, qty map[uuid.UUID]int, items map[uuid.UUID]*entity.StockItem) []entity.SaleLineItem {
	lines := make([]entity.SaleLineItem, 0, len(order))
	for _, id := range order {
		item, ok := items[id]
		if !ok {
			continue
		}
		lines = append(lines, entity.SaleLineItem{
			StockItemID: id,
			Name:        item.Name,
			Quantity:    qty[id],
			UnitPrice:   item.SellPrice,
			Subtotal:    pricing.LineSubtotal(item.SellPrice, qty[id]),
		})
	}
	return lines
}

// Submit validates the whole cart, then consumes stock and records the sale
// in one transaction. Nothing is mutated unless every check passes.
func (s *SaleService) Submit(ctx context.Context, operator entity.Operator, input *SubmitSaleInput) (*entity.Sale, error) {
	errs := validateCart(input.Items)
	if strings.TrimSpace(input.BuyerName) == "" {
		errs = append([]apperror.FieldError{{Field: "buyer_name", Message: "is required"}}, errs...)
	}
	if input.AmountPaid < 0 {
		errs = append(errs, apperror.FieldError{Field: "amount_paid", Message: "cannot be negative"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	order, qty := mergeCart(input.Items)
	items, err := s.inventory.Resolve(ctx, order)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(order, items); len(missing) > 0 {
		return nil, apperror.NewItemNotFoundError(idStrings(missing)...)
	}

	lines := priceLines(order, qty, items)
	total := pricing.SaleTotal(pricing.SaleLines(lines))
	if input.AmountPaid < total {
		return nil, apperror.NewInsufficientPaymentError(money.Format(total), money.Format(input.AmountPaid))
	}

	if shortages := Shortages(items, qty, order); len(shortages) > 0 {
		return nil, apperror.NewInsufficientStockError(shortages)
	}

	sale := &entity.Sale{
		BuyerName:     strings.TrimSpace(input.BuyerName),
		TotalAmount:   total,
		AmountPaid:    input.AmountPaid,
		ChangeDue:     pricing.ChangeDue(input.AmountPaid, total),
		CreatedByID:   operator.ID,
		CreatedByName: operator.Name,
		LineItems:     lines,
	}

	adjustments := make([]Adjustment, 0, len(order))
	for _, id := range order {
		adjustments = append(adjustments, Adjustment{StockItemID: id, Delta: -qty[id]})
	}

	err = runInTx(ctx, s.transactor, s.log, "sale submit", func(ctx context.Context) error {
		if err := s.inventory.AdjustBatch(ctx, adjustments); err != nil {
			return err
		}
		return s.saleRepo.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("total", money.Format(sale.TotalAmount)),
		zap.Int("lines", len(sale.LineItems)),
		zap.String("operator", operator.Name))
	return sale, nil
}

// Quote prices a cart without touching stock. Unknown items and shortages
// are reported in the draft rather than as errors.
func (s *SaleService) Quote(ctx context.Context, items []CartLine, amountPaid int64) (*SaleDraft, error) {
	if errs := validateCart(items); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	order, qty := mergeCart(items)
	resolved, err := s.inventory.Resolve(ctx, order)
	if err != nil {
		return nil, err
	}

	lines := priceLines(order, qty, resolved)
	total := pricing.SaleTotal(pricing.SaleLines(lines))
	return &SaleDraft{
		Lines:      lines,
		Total:      money.ToFloat(total),
		AmountPaid: money.ToFloat(amountPaid),
		ChangeDue:  money.ToFloat(pricing.ChangeDue(amountPaid, total)),
		Shortfall:  money.ToFloat(pricing.Outstanding(amountPaid, total)),
		Missing:    idStrings(missingIDs(order, resolved)),
		Shortages:  Shortages(resolved, qty, order),
	}, nil
}

// Get returns a sale with its line items
func (s *SaleService) Get(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("sale lookup", err)
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// SaleListInput filters the sales history. To is exclusive.
type SaleListInput struct {
	Pagination *pagination.Params
	Search     string
	From       *time.Time
	To         *time.Time
}

// List returns a page of sales, newest first
func (s *SaleService) List(ctx context.Context, input *SaleListInput) (*pagination.Page[entity.Sale], error) {
	params := &repository.SaleFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
		From:       input.From,
		To:         input.To,
	}
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultParams()
	}
	sales, total, err := s.saleRepo.List(ctx, params)
	if err != nil {
		return nil, storageErr("sale list", err)
	}
	return pagination.NewPage(sales, params.Pagination, total), nil
}
