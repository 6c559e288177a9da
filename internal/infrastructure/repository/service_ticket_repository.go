package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	domainRepo "github.com/sangkips/repairshop-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type serviceTicketRepository struct {
	db *gorm.DB
}

// NewServiceTicketRepository creates a new service ticket repository
func NewServiceTicketRepository(db *gorm.DB) domainRepo.ServiceTicketRepository {
	return &serviceTicketRepository{db: db}
}

// Create inserts the ticket and its part rows
func (r *serviceTicketRepository) Create(ctx context.Context, ticket *entity.ServiceTicket) error {
	return conn(ctx, r.db).Create(ticket).Error
}

func (r *serviceTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ServiceTicket, error) {
	var ticket entity.ServiceTicket
	err := conn(ctx, r.db).
		Preload("PartsUsed").
		First(&ticket, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ticket, err
}

func (r *serviceTicketRepository) GetByCode(ctx context.Context, code string) (*entity.ServiceTicket, error) {
	var ticket entity.ServiceTicket
	err := conn(ctx, r.db).
		Preload("PartsUsed").
		First(&ticket, "service_code = ?", strings.ToUpper(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ticket, err
}

func (r *serviceTicketRepository) List(ctx context.Context, params *domainRepo.ServiceTicketFilterParams) ([]entity.ServiceTicket, int64, error) {
	var tickets []entity.ServiceTicket
	var total int64

	query := conn(ctx, r.db).Model(&entity.ServiceTicket{})

	if params.Search != "" {
		like := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(customer_name) LIKE ? OR LOWER(service_code) LIKE ? OR LOWER(device_model) LIKE ?", like, like, like)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.PickupStatus != nil {
		query = query.Where("pickup_status = ?", *params.PickupStatus)
	}
	if params.RequestedByID != nil {
		query = query.Where("requested_by_id = ?", *params.RequestedByID)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(params.Pagination.Scope()).
		Preload("PartsUsed").
		Order("created_at DESC").
		Find(&tickets).Error

	return tickets, total, err
}

func (r *serviceTicketRepository) ListBetween(ctx context.Context, from, to time.Time) ([]entity.ServiceTicket, error) {
	var tickets []entity.ServiceTicket
	err := conn(ctx, r.db).
		Preload("PartsUsed").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *serviceTicketRepository) CountByStatus(ctx context.Context) (map[enum.ServiceStatus]int64, error) {
	var rows []struct {
		Status enum.ServiceStatus
		Count  int64
	}
	err := conn(ctx, r.db).Model(&entity.ServiceTicket{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enum.ServiceStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// UpdateUnlocked uses: UPDATE service_tickets SET ... WHERE id = ? AND pickup_status = NotPickedUp
func (r *serviceTicketRepository) UpdateUnlocked(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.ServiceTicket{}).
		Where("id = ? AND pickup_status = ?", id, enum.PickupStatusNotPickedUp).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *serviceTicketRepository) MarkPickedUp(ctx context.Context, id uuid.UUID, at time.Time, by entity.Operator) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.ServiceTicket{}).
		Where("id = ? AND pickup_status = ? AND status = ?", id, enum.PickupStatusNotPickedUp, enum.ServiceStatusCompleted).
		Updates(map[string]interface{}{
			"pickup_status":     enum.PickupStatusPickedUp,
			"picked_up_at":      at,
			"picked_up_by_id":   by.ID,
			"picked_up_by_name": by.Name,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// errTicketLocked rolls back a delete whose ticket turned out to be picked up or missing
var errTicketLocked = errors.New("service ticket locked")

func (r *serviceTicketRepository) DeleteUnlocked(ctx context.Context, id uuid.UUID) (bool, error) {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&entity.ServicePart{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND pickup_status = ?", id, enum.PickupStatusNotPickedUp).
			Delete(&entity.ServiceTicket{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errTicketLocked
		}
		return nil
	})
	if errors.Is(err, errTicketLocked) {
		return false, nil
	}
	return err == nil, err
}

type serviceSequenceRepository struct {
	db *gorm.DB
}

// NewServiceSequenceRepository creates a new service code counter repository
func NewServiceSequenceRepository(db *gorm.DB) domainRepo.ServiceSequenceRepository {
	return &serviceSequenceRepository{db: db}
}

// Next uses: INSERT ... ON CONFLICT (day) DO UPDATE SET value = service_sequences.value + 1
// followed by a read in the same transaction.
func (r *serviceSequenceRepository) Next(ctx context.Context, day string) (int, error) {
	var seq entity.ServiceSequence
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("service_sequences.value + 1")}),
		}).Create(&entity.ServiceSequence{Day: day, Value: 1}).Error
		if err != nil {
			return err
		}
		return tx.First(&seq, "day = ?", day).Error
	})
	return seq.Value, err
}
