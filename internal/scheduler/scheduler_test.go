package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/infrastructure/database"
	"github.com/sangkips/repairshop-api/internal/infrastructure/repository"
	"github.com/sangkips/repairshop-api/pkg/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type capturedDigest struct {
	to        []string
	threshold int
	items     []email.LowStockLine
}

func (c *capturedDigest) SendLowStockDigest(ctx context.Context, to string, threshold int, items []email.LowStockLine) error {
	c.to = append(c.to, to)
	c.threshold, c.items = threshold, items
	return nil
}

func setup(t *testing.T, digest DigestSender) (*Scheduler, *gorm.DB, *service.InventoryService) {
	t.Helper()
	log := zap.NewNop()
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), "silent", log)
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	users := repository.NewUserRepository(db)
	require.NoError(t, users.Create(context.Background(), &entity.User{Name: "Owner", Email: "owner@shop.test", Password: "x", Role: enum.RoleAdmin}))
	require.NoError(t, users.Create(context.Background(), &entity.User{Name: "Budi", Email: "budi@shop.test", Password: "x", Role: enum.RoleTechnician}))

	inventory := service.NewInventoryService(repository.NewStockRepository(db), repository.NewTransactor(db), log, 2)
	s := NewScheduler(config.CronConfig{}, time.UTC, repository.NewIdempotencyRepository(db), inventory, users, digest, log)
	return s, db, inventory
}

func TestPurgeIdempotencyKeys(t *testing.T) {
	s, db, _ := setup(t, nil)
	user := uuid.New()
	require.NoError(t, db.Create(&entity.IdempotencyKey{Key: "old", UserID: user, Endpoint: "POST /api/v1/sales", ExpiresAt: time.Now().UTC().Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&entity.IdempotencyKey{Key: "fresh", UserID: user, Endpoint: "POST /api/v1/sales", ExpiresAt: time.Now().UTC().Add(time.Hour)}).Error)

	s.purgeIdempotencyKeys()

	var keys []entity.IdempotencyKey
	require.NoError(t, db.Find(&keys).Error)
	require.Len(t, keys, 1)
	assert.Equal(t, "fresh", keys[0].Key)
}

func TestLowStockDigest(t *testing.T) {
	digest := &capturedDigest{}
	s, _, inventory := setup(t, digest)
	ctx := context.Background()
	_, err := inventory.Create(ctx, &service.StockItemInput{Code: "BAT-11", Name: "Battery iPhone 11", Quantity: 1})
	require.NoError(t, err)
	_, err = inventory.Create(ctx, &service.StockItemInput{Code: "CAS-01", Name: "Case", Quantity: 10})
	require.NoError(t, err)

	s.sendLowStockDigest()

	assert.Equal(t, []string{"owner@shop.test"}, digest.to)
	assert.Equal(t, 2, digest.threshold)
	require.Len(t, digest.items, 1)
	assert.Equal(t, "BAT-11", digest.items[0].Code)
	assert.Equal(t, 1, digest.items[0].Available)
}

func TestStartStopWithInvalidSpec(t *testing.T) {
	s, _, _ := setup(t, nil)
	s.cfg = config.CronConfig{IdempotencyPurge: "not a spec", LowStockDigest: "@every 1h"}
	s.Start()
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
