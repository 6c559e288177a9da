package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/pkg/pagination"
)

// SaleRepository defines the interface for sale data operations.
// Sales are immutable, so there is no update or delete.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
	// ListBetween returns every sale with line items created in [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]entity.Sale, error)
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination *pagination.Params
	Search     string
	From       *time.Time
	To         *time.Time
}
