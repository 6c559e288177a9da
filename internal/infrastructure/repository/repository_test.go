package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	domainRepo "github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.StockItem{}, &entity.Sale{}, &entity.SaleLineItem{},
		&entity.ServiceTicket{}, &entity.ServicePart{}, &entity.ServiceSequence{}, &entity.IdempotencyKey{},
	))
	return db
}

func seedItem(t *testing.T, repo domainRepo.StockRepository, name string, qty int) *entity.StockItem {
	t.Helper()
	item := &entity.StockItem{Code: name, Name: name, QtyOnHand: qty, PurchasePrice: 500, SellPrice: 1000}
	require.NoError(t, repo.Create(context.Background(), item))
	return item
}

func TestStockApplyAdjustmentsConsumesAndReturns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepository(db)
	ctx := context.Background()
	item := seedItem(t, repo, "LCD", 5)

	failed, err := repo.ApplyAdjustments(ctx, map[uuid.UUID]int{item.ID: -3})
	require.NoError(t, err)
	assert.Empty(t, failed)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QtyOnHand)
	assert.Equal(t, 3, got.QtyConsumed)

	failed, err = repo.ApplyAdjustments(ctx, map[uuid.UUID]int{item.ID: 2})
	require.NoError(t, err)
	assert.Empty(t, failed)

	got, _ = repo.GetByID(ctx, item.ID)
	assert.Equal(t, 4, got.QtyOnHand)
	assert.Equal(t, 1, got.QtyConsumed)
}

func TestStockApplyAdjustmentsIsAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepository(db)
	ctx := context.Background()
	plenty := seedItem(t, repo, "Battery", 10)
	scarce := seedItem(t, repo, "Flex", 1)

	failed, err := repo.ApplyAdjustments(ctx, map[uuid.UUID]int{plenty.ID: -4, scarce.ID: -2})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{scarce.ID}, failed)

	got, _ := repo.GetByID(ctx, plenty.ID)
	assert.Equal(t, 10, got.QtyOnHand, "successful row must be rolled back")
	assert.Equal(t, 0, got.QtyConsumed)
}

func TestStockApplyAdjustmentsUnknownItem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepository(db)
	missing := uuid.New()

	failed, err := repo.ApplyAdjustments(context.Background(), map[uuid.UUID]int{missing: 1})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{missing}, failed)
}

func TestStockListSearchAndLowStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepository(db)
	ctx := context.Background()
	seedItem(t, repo, "iPhone 11 LCD", 1)
	seedItem(t, repo, "Samsung A50 LCD", 8)
	seedItem(t, repo, "USB Cable", 0)

	items, total, err := repo.List(ctx, &domainRepo.StockFilterParams{
		Pagination: pagination.DefaultParams(),
		Search:     "lcd",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	low, err := repo.GetLowStock(ctx, 1)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "USB Cable", low[0].Name)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestStockRestock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepository(db)
	ctx := context.Background()
	item := seedItem(t, repo, "Glass", 2)

	ok, err := repo.Restock(ctx, item.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ := repo.GetByID(ctx, item.ID)
	assert.Equal(t, 7, got.QtyOnHand)

	ok, err = repo.Restock(ctx, uuid.New(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactorRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()
	item := seedItem(t, repo, "Speaker", 3)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		failed, err := repo.ApplyAdjustments(ctx, map[uuid.UUID]int{item.ID: -1})
		require.NoError(t, err)
		require.Empty(t, failed)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := repo.GetByID(ctx, item.ID)
	assert.Equal(t, 3, got.QtyOnHand)
}

func TestServiceSequenceNext(t *testing.T) {
	db := setupTestDB(t)
	repo := NewServiceSequenceRepository(db)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := repo.Next(ctx, "250301")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.Next(ctx, "250302")
	require.NoError(t, err)
	assert.Equal(t, 1, got, "each day starts over")
}

func TestServiceTicketLockConditions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewServiceTicketRepository(db)
	ctx := context.Background()

	ticket := &entity.ServiceTicket{
		ServiceCode:  "SRV250301001",
		CustomerName: "Budi",
		DeviceModel:  "Redmi Note 8",
		Status:       enum.ServiceStatusCompleted,
		PartsUsed:    []entity.ServicePart{{StockItemID: uuid.New(), Name: "LCD", Quantity: 1, UnitPrice: 100}},
	}
	require.NoError(t, repo.Create(ctx, ticket))

	ok, err := repo.MarkPickedUp(ctx, ticket.ID, time.Now(), entity.Operator{ID: uuid.New(), Name: "Tech"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateUnlocked(ctx, ticket.ID, map[string]interface{}{"status": enum.ServiceStatusCancelled})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteUnlocked(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByCode(ctx, "srv250301001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, enum.ServiceStatusCompleted, got.Status)
	assert.Len(t, got.PartsUsed, 1, "parts survive a rejected delete")
}

func TestIdempotencyDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{Key: "old", UserID: user, Endpoint: "POST /sales", ResponseCode: 201, ExpiresAt: time.Now().UTC().Add(-time.Hour)}))
	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{Key: "new", UserID: user, Endpoint: "POST /sales", ResponseCode: 201, ExpiresAt: time.Now().UTC().Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByKey(ctx, "new", user, "POST /sales")
	require.NoError(t, err)
	assert.NotNil(t, got)

	other, err := repo.GetByKey(ctx, "new", user, "POST /services")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestIdempotencySaveReplacesSameScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{Key: "k", UserID: user, Endpoint: "POST /sales", RequestHash: "a", ResponseCode: 201, ExpiresAt: time.Now().UTC().Add(-time.Minute)}))
	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{Key: "k", UserID: user, Endpoint: "POST /sales", RequestHash: "b", ResponseCode: 201, ExpiresAt: time.Now().UTC().Add(time.Hour)}))
	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{Key: "k", UserID: uuid.New(), Endpoint: "POST /sales", RequestHash: "c", ResponseCode: 201, ExpiresAt: time.Now().UTC().Add(time.Hour)}))

	got, err := repo.GetByKey(ctx, "k", user, "POST /sales")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.RequestHash)

	var n int64
	require.NoError(t, db.Model(&entity.IdempotencyKey{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestUserLookupAndListByRole(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.User{Name: "Owner", Email: "owner@shop.test", Password: "x", Role: enum.RoleAdmin}))
	require.NoError(t, repo.Create(ctx, &entity.User{Name: "Budi", Email: "budi@shop.test", Password: "x", Role: enum.RoleTechnician}))
	require.NoError(t, repo.Create(ctx, &entity.User{Name: "Sari", Email: "sari@mail.test", Password: "x", Role: enum.RoleCustomer}))

	user, err := repo.GetByEmail(ctx, "OWNER@shop.test")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, enum.RoleAdmin, user.Role)

	missing, err := repo.GetByEmail(ctx, "nobody@shop.test")
	require.NoError(t, err)
	assert.Nil(t, missing)

	admins, err := repo.ListByRole(ctx, enum.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "Owner", admins[0].Name)
}
