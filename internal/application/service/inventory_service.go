package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/importer"
	"github.com/sangkips/repairshop-api/pkg/money"
	"github.com/sangkips/repairshop-api/pkg/pagination"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"go.uber.org/zap"
)

// InventoryService is the stock ledger. Quantities change only through
// AdjustBatch and Restock.
type InventoryService struct {
	stockRepo         repository.StockRepository
	transactor        repository.Transactor
	log               *zap.Logger
	lowStockThreshold int
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	stockRepo repository.StockRepository,
	transactor repository.Transactor,
	log *zap.Logger,
	lowStockThreshold int,
) *InventoryService {
	return &InventoryService{
		stockRepo:         stockRepo,
		transactor:        transactor,
		log:               log,
		lowStockThreshold: lowStockThreshold,
	}
}

// Adjustment is a signed quantity change. Negative consumes, positive returns.
type Adjustment struct {
	StockItemID uuid.UUID
	Delta       int
}

// Adjust applies a single adjustment and returns the updated item.
func (s *InventoryService) Adjust(ctx context.Context, id uuid.UUID, delta int) (*entity.StockItem, error) {
	if err := s.AdjustBatch(ctx, []Adjustment{{StockItemID: id, Delta: delta}}); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// AdjustBatch applies every adjustment or none. Adjustments to the same
// item are merged first. The stock check happens inside the UPDATE, so it
// is made against the committed row rather than an earlier read.
func (s *InventoryService) AdjustBatch(ctx context.Context, adjustments []Adjustment) error {
	deltas := make(map[uuid.UUID]int, len(adjustments))
	ids := make([]uuid.UUID, 0, len(adjustments))
	for _, a := range adjustments {
		if _, seen := deltas[a.StockItemID]; !seen {
			ids = append(ids, a.StockItemID)
		}
		deltas[a.StockItemID] += a.Delta
	}
	if len(deltas) == 0 {
		return nil
	}

	items, err := s.Resolve(ctx, ids)
	if err != nil {
		return err
	}
	if missing := missingIDs(ids, items); len(missing) > 0 {
		return apperror.NewItemNotFoundError(idStrings(missing)...)
	}

	failedIDs, err := s.stockRepo.ApplyAdjustments(ctx, deltas)
	if err != nil {
		return storageErr("stock adjustment", err)
	}
	if len(failedIDs) == 0 {
		return nil
	}

	// The batch was rolled back. Re-read the failing rows to report
	// what is available now.
	current, err := s.Resolve(ctx, failedIDs)
	if err != nil {
		return err
	}
	if missing := missingIDs(failedIDs, current); len(missing) > 0 {
		return apperror.NewItemNotFoundError(idStrings(missing)...)
	}

	shortages := make([]apperror.StockShortage, 0, len(failedIDs))
	for _, id := range failedIDs {
		item := current[id]
		shortages = append(shortages, apperror.StockShortage{
			StockItemID: id.String(),
			Name:        item.Name,
			Requested:   -deltas[id],
			Available:   item.Available(),
		})
	}
	s.log.Info("stock adjustment rejected", zap.Int("items", len(shortages)))
	return apperror.NewInsufficientStockError(shortages)
}

// Resolve loads the given items keyed by ID. Unknown IDs are absent from the map.
func (s *InventoryService) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.StockItem, error) {
	items, err := s.stockRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storageErr("stock lookup", err)
	}
	byID := make(map[uuid.UUID]*entity.StockItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return byID, nil
}

// Shortages compares requested quantities with what resolved items have
// available. It never mutates.
func Shortages(items map[uuid.UUID]*entity.StockItem, requested map[uuid.UUID]int, order []uuid.UUID) []apperror.StockShortage {
	var shortages []apperror.StockShortage
	for _, id := range order {
		item, ok := items[id]
		if !ok {
			continue
		}
		if want := requested[id]; want > item.Available() {
			shortages = append(shortages, apperror.StockShortage{
				StockItemID: id.String(),
				Name:        item.Name,
				Requested:   want,
				Available:   item.Available(),
			})
		}
	}
	return shortages
}

// GetByID returns a snapshot of one item.
func (s *InventoryService) GetByID(ctx context.Context, id uuid.UUID) (*entity.StockItem, error) {
	item, err := s.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("stock lookup", err)
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Stock item")
	}
	return item, nil
}

// ListAll returns a snapshot of every item, ordered by name.
func (s *InventoryService) ListAll(ctx context.Context) ([]entity.StockItem, error) {
	items, err := s.stockRepo.ListAll(ctx)
	return items, storageErr("stock list", err)
}

// List returns a page of items for the admin screens.
func (s *InventoryService) List(ctx context.Context, params *repository.StockFilterParams) (*pagination.Page[entity.StockItem], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultParams()
	}
	items, total, err := s.stockRepo.List(ctx, params)
	if err != nil {
		return nil, storageErr("stock list", err)
	}
	return pagination.NewPage(items, params.Pagination, total), nil
}

// StockItemInput carries the editable fields of a stock item. Prices are cents.
type StockItemInput struct {
	Code          string
	Name          string
	Quantity      int
	PurchasePrice int64
	SellPrice     int64
}

func (in *StockItemInput) validate(withQuantity bool) error {
	var errs []apperror.FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "is required"})
	}
	if withQuantity && in.Quantity < 0 {
		errs = append(errs, apperror.FieldError{Field: "quantity", Message: "cannot be negative"})
	}
	if in.PurchasePrice < 0 {
		errs = append(errs, apperror.FieldError{Field: "purchase_price", Message: "cannot be negative"})
	}
	if in.SellPrice < 0 {
		errs = append(errs, apperror.FieldError{Field: "sell_price", Message: "cannot be negative"})
	}
	if len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	return nil
}

// Create adds an item with its opening quantity.
func (s *InventoryService) Create(ctx context.Context, input *StockItemInput) (*entity.StockItem, error) {
	if err := input.validate(true); err != nil {
		return nil, err
	}

	item := &entity.StockItem{
		Code:          strings.TrimSpace(input.Code),
		Name:          strings.TrimSpace(input.Name),
		QtyOnHand:     input.Quantity,
		PurchasePrice: input.PurchasePrice,
		SellPrice:     input.SellPrice,
	}
	if item.Code == "" {
		item.Code = utils.GenerateStockCode()
	}

	if err := s.stockRepo.Create(ctx, item); err != nil {
		return nil, storageErr("stock create", err)
	}
	s.log.Info("stock item created", zap.String("id", item.ID.String()), zap.String("name", item.Name))
	return item, nil
}

// UpdateDetails changes code, name and prices. Quantity is ignored.
func (s *InventoryService) UpdateDetails(ctx context.Context, id uuid.UUID, input *StockItemInput) (*entity.StockItem, error) {
	if err := input.validate(false); err != nil {
		return nil, err
	}

	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.PurchasePrice = input.PurchasePrice
	item.SellPrice = input.SellPrice
	if code := strings.TrimSpace(input.Code); code != "" {
		item.Code = code
	}

	if err := s.stockRepo.UpdateDetails(ctx, item); err != nil {
		return nil, storageErr("stock update", err)
	}
	return s.GetByID(ctx, id)
}

// Restock records goods received.
func (s *InventoryService) Restock(ctx context.Context, id uuid.UUID, quantity int) (*entity.StockItem, error) {
	if quantity <= 0 {
		return nil, apperror.NewFieldValidationError("quantity", "must be greater than zero")
	}

	ok, err := s.stockRepo.Restock(ctx, id, quantity)
	if err != nil {
		return nil, storageErr("restock", err)
	}
	if !ok {
		return nil, apperror.NewNotFoundError("Stock item")
	}
	s.log.Info("stock received", zap.String("id", id.String()), zap.Int("quantity", quantity))
	return s.GetByID(ctx, id)
}

// Delete removes an item. Tickets and sales keep their name snapshots.
func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return storageErr("stock delete", s.stockRepo.Delete(ctx, id))
}

// DeleteAll wipes the inventory.
func (s *InventoryService) DeleteAll(ctx context.Context, operator entity.Operator) (int64, error) {
	n, err := s.stockRepo.DeleteAll(ctx)
	if err != nil {
		return 0, storageErr("stock delete all", err)
	}
	s.log.Warn("all stock items deleted",
		zap.Int64("count", n),
		zap.String("operator_id", operator.ID.String()),
		zap.String("operator", operator.Name))
	return n, nil
}

// ImportResult reports what a bulk import created and what it skipped.
type ImportResult struct {
	Created int                 `json:"created"`
	Items   []entity.StockItem  `json:"items"`
	Skipped []importer.RowError `json:"skipped"`
}

// Import creates one item per valid row. Rows are validated independently;
// invalid rows are reported and the rest are stored in one transaction.
func (s *InventoryService) Import(ctx context.Context, parsed *importer.Result) (*ImportResult, error) {
	res := &ImportResult{Skipped: append([]importer.RowError{}, parsed.Errors...)}

	items := make([]entity.StockItem, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		input := StockItemInput{
			Code:          row.Code,
			Name:          row.Name,
			Quantity:      row.Quantity,
			PurchasePrice: row.PurchasePrice,
			SellPrice:     row.SellPrice,
		}
		if err := input.validate(true); err != nil {
			res.Skipped = append(res.Skipped, importer.RowError{Line: row.Line, Message: err.Error()})
			continue
		}
		code := strings.TrimSpace(row.Code)
		if code == "" {
			code = utils.GenerateStockCode()
		}
		items = append(items, entity.StockItem{
			Code:          code,
			Name:          strings.TrimSpace(row.Name),
			QtyOnHand:     row.Quantity,
			PurchasePrice: row.PurchasePrice,
			SellPrice:     row.SellPrice,
		})
	}

	if len(items) > 0 {
		err := runInTx(ctx, s.transactor, s.log, "stock import", func(ctx context.Context) error {
			return s.stockRepo.CreateBatch(ctx, items)
		})
		if err != nil {
			return nil, err
		}
	}

	res.Created = len(items)
	res.Items = items
	s.log.Info("stock imported", zap.Int("created", res.Created), zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

// LowStock lists items at or below threshold. A negative threshold uses
// the configured default.
func (s *InventoryService) LowStock(ctx context.Context, threshold int) ([]entity.StockItem, error) {
	if threshold < 0 {
		threshold = s.lowStockThreshold
	}
	items, err := s.stockRepo.GetLowStock(ctx, threshold)
	return items, storageErr("low stock", err)
}

// LowStockThreshold is the configured default threshold.
func (s *InventoryService) LowStockThreshold() int {
	return s.lowStockThreshold
}

// Catalog is the public storefront listing.
func (s *InventoryService) Catalog(ctx context.Context) ([]entity.CatalogEntry, error) {
	items, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]entity.CatalogEntry, len(items))
	for i, it := range items {
		entries[i] = entity.CatalogEntry{
			ID:      it.ID,
			Code:    it.Code,
			Name:    it.Name,
			Price:   money.ToFloat(it.SellPrice),
			InStock: it.Available() > 0,
		}
	}
	return entries, nil
}

func missingIDs(ids []uuid.UUID, found map[uuid.UUID]*entity.StockItem) []uuid.UUID {
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
