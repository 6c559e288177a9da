package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
)

// IdempotencyRepository stores submission keys. Keys are scoped per user
// and endpoint, so a checkout key never replays a service intake.
type IdempotencyRepository interface {
	GetByKey(ctx context.Context, key string, userID uuid.UUID, endpoint string) (*entity.IdempotencyKey, error)
	// Save inserts the key, replacing an expired entry with the same scope
	Save(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes expired keys and reports how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}
