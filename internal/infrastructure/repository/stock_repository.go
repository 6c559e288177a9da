package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	domainRepo "github.com/sangkips/repairshop-api/internal/domain/repository"
	"gorm.io/gorm"
)

// errAdjustmentRejected rolls back a batch in which some row failed its condition
var errAdjustmentRejected = errors.New("stock adjustment rejected")

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *gorm.DB) domainRepo.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, item *entity.StockItem) error {
	return conn(ctx, r.db).Create(item).Error
}

func (r *stockRepository) CreateBatch(ctx context.Context, items []entity.StockItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db).CreateInBatches(&items, 100).Error
}

func (r *stockRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.StockItem, error) {
	var item entity.StockItem
	err := conn(ctx, r.db).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

// GetByIDs retrieves multiple items by their IDs in a single query
func (r *stockRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.StockItem, error) {
	if len(ids) == 0 {
		return []entity.StockItem{}, nil
	}
	var items []entity.StockItem
	err := conn(ctx, r.db).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *stockRepository) UpdateDetails(ctx context.Context, item *entity.StockItem) error {
	return conn(ctx, r.db).Model(&entity.StockItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"code":           item.Code,
			"name":           item.Name,
			"purchase_price": item.PurchasePrice,
			"sell_price":     item.SellPrice,
		}).Error
}

func (r *stockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.StockItem{}, "id = ?", id).Error
}

func (r *stockRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := conn(ctx, r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entity.StockItem{})
	return result.RowsAffected, result.Error
}

func (r *stockRepository) List(ctx context.Context, params *domainRepo.StockFilterParams) ([]entity.StockItem, int64, error) {
	var items []entity.StockItem
	var total int64

	query := conn(ctx, r.db).Model(&entity.StockItem{})

	if params.Search != "" {
		like := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}

	if params.InStock {
		query = query.Where("qty_on_hand > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "name"
	switch params.SortBy {
	case "code", "created_at", "qty_on_hand", "sell_price":
		sortBy = params.SortBy
	}
	sortOrder := "ASC"
	if strings.EqualFold(params.SortOrder, "desc") {
		sortOrder = "DESC"
	}

	err := query.Scopes(params.Pagination.Scope()).
		Order(sortBy + " " + sortOrder).
		Find(&items).Error

	return items, total, err
}

func (r *stockRepository) ListAll(ctx context.Context) ([]entity.StockItem, error) {
	var items []entity.StockItem
	err := conn(ctx, r.db).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *stockRepository) GetLowStock(ctx context.Context, threshold int) ([]entity.StockItem, error) {
	var items []entity.StockItem
	err := conn(ctx, r.db).
		Where("qty_on_hand <= ?", threshold).
		Order("qty_on_hand ASC, name ASC").
		Find(&items).Error
	return items, err
}

// ApplyAdjustments runs every delta in one transaction (a savepoint when ctx
// already carries one).
// Consume: UPDATE ... SET qty_on_hand = qty_on_hand - n, qty_consumed = qty_consumed + n WHERE id = ? AND qty_on_hand >= n
// Return:  UPDATE ... SET qty_on_hand = qty_on_hand + n, qty_consumed = max(qty_consumed - n, 0) WHERE id = ?
func (r *stockRepository) ApplyAdjustments(ctx context.Context, deltas map[uuid.UUID]int) ([]uuid.UUID, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	// Fixed row order keeps concurrent batches from deadlocking each other.
	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var failedIDs []uuid.UUID

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			delta := deltas[id]
			if delta == 0 {
				continue
			}

			var result *gorm.DB
			if delta < 0 {
				n := -delta
				result = tx.Model(&entity.StockItem{}).
					Where("id = ? AND qty_on_hand >= ?", id, n).
					Updates(map[string]interface{}{
						"qty_on_hand":  gorm.Expr("qty_on_hand - ?", n),
						"qty_consumed": gorm.Expr("qty_consumed + ?", n),
					})
			} else {
				result = tx.Model(&entity.StockItem{}).
					Where("id = ?", id).
					Updates(map[string]interface{}{
						"qty_on_hand":  gorm.Expr("qty_on_hand + ?", delta),
						"qty_consumed": gorm.Expr("CASE WHEN qty_consumed >= ? THEN qty_consumed - ? ELSE 0 END", delta, delta),
					})
			}

			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				failedIDs = append(failedIDs, id)
			}
		}

		// If any row failed, rollback entire batch
		if len(failedIDs) > 0 {
			return errAdjustmentRejected
		}

		return nil
	})

	if errors.Is(err, errAdjustmentRejected) {
		return failedIDs, nil
	}

	return failedIDs, err
}

func (r *stockRepository) Restock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.StockItem{}).
		Where("id = ?", id).
		Update("qty_on_hand", gorm.Expr("qty_on_hand + ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
