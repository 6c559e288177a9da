package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/pkg/pagination"
)

// ServiceTicketRepository defines the interface for service ticket data operations.
// Every mutating method is conditional on the ticket not being picked up
// and reports false when that condition did not hold.
type ServiceTicketRepository interface {
	Create(ctx context.Context, ticket *entity.ServiceTicket) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ServiceTicket, error)
	GetByCode(ctx context.Context, code string) (*entity.ServiceTicket, error)
	List(ctx context.Context, params *ServiceTicketFilterParams) ([]entity.ServiceTicket, int64, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]entity.ServiceTicket, error)
	CountByStatus(ctx context.Context) (map[enum.ServiceStatus]int64, error)
	UpdateUnlocked(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error)
	// MarkPickedUp locks a completed ticket.
	MarkPickedUp(ctx context.Context, id uuid.UUID, at time.Time, by entity.Operator) (bool, error)
	// DeleteUnlocked removes the ticket and its part rows.
	DeleteUnlocked(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceTicketFilterParams contains filtering parameters for ticket queries
type ServiceTicketFilterParams struct {
	Pagination    *pagination.Params
	Search        string
	Status        *enum.ServiceStatus
	PaymentStatus *enum.PaymentStatus
	PickupStatus  *enum.PickupStatus
	RequestedByID *uuid.UUID
	From          *time.Time
	To            *time.Time
}

// ServiceSequenceRepository hands out per-day service code numbers.
type ServiceSequenceRepository interface {
	// Next atomically increments and returns the counter for day (YYMMDD).
	Next(ctx context.Context, day string) (int, error)
}
