package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/pkg/pagination"
)

// StockRepository defines the interface for stock item data operations
type StockRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	CreateBatch(ctx context.Context, items []entity.StockItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.StockItem, error)
	// GetByIDs retrieves multiple items by their IDs in a single query
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.StockItem, error)
	// UpdateDetails writes code, name and prices. Quantities are never touched.
	UpdateDetails(ctx context.Context, item *entity.StockItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
	List(ctx context.Context, params *StockFilterParams) ([]entity.StockItem, int64, error)
	ListAll(ctx context.Context) ([]entity.StockItem, error)
	GetLowStock(ctx context.Context, threshold int) ([]entity.StockItem, error)
	// ApplyAdjustments applies signed deltas in one transaction. A negative
	// delta consumes and only succeeds while qty_on_hand covers it; a
	// positive delta returns stock. If any row fails, nothing is applied and
	// the failing IDs are returned.
	ApplyAdjustments(ctx context.Context, deltas map[uuid.UUID]int) (failedIDs []uuid.UUID, err error)
	// Restock adds received goods to qty_on_hand. Returns false if the item does not exist.
	Restock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
}

// StockFilterParams contains filtering parameters for stock queries
type StockFilterParams struct {
	Pagination *pagination.Params
	Search     string
	InStock    bool
	SortBy     string
	SortOrder  string
}
