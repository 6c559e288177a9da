package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	domainRepo "github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errForceRollback = errors.New("forced rollback")

// lostCommit runs fn in a real transaction, rolls it back and then reports
// the commit as uncertain, like a connection dropped during COMMIT.
type lostCommit struct {
	inner domainRepo.Transactor
}

func (l lostCommit) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := l.inner.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return errForceRollback
	})
	if errors.Is(err, errForceRollback) {
		return fmt.Errorf("%w: connection reset by peer", domainRepo.ErrCommitUncertain)
	}
	return err
}

// brokenTx fails before any statement runs.
type brokenTx struct{}

func (brokenTx) WithinTransaction(context.Context, func(ctx context.Context) error) error {
	return errors.New("database is locked")
}

// racingStock empties every consumed row inside the caller's transaction
// right before the ledger update, as a concurrent checkout would between
// the availability check and commit.
type racingStock struct {
	domainRepo.StockRepository
}

func (r racingStock) ApplyAdjustments(ctx context.Context, deltas map[uuid.UUID]int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(deltas))
	for id, d := range deltas {
		if d < 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		items, err := r.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		drain := make(map[uuid.UUID]int, len(items))
		for _, it := range items {
			if it.QtyOnHand > 0 {
				drain[it.ID] = -it.QtyOnHand
			}
		}
		if _, err := r.StockRepository.ApplyAdjustments(ctx, drain); err != nil {
			return nil, err
		}
	}
	return r.StockRepository.ApplyAdjustments(ctx, deltas)
}

func withTx(wrap func(domainRepo.Transactor) domainRepo.Transactor) func(*fixtureDeps) {
	return func(d *fixtureDeps) { d.tx = wrap(d.tx) }
}

func withRacingStock(d *fixtureDeps) {
	d.stock = racingStock{StockRepository: d.stock}
}

func TestRunInTxMapsFailures(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()
	ok := func(context.Context) error { return nil }

	err := runInTx(ctx, brokenTx{}, log, "op", ok)
	assertKind(t, err, apperror.KindPersistence)

	uncertain := txFunc(func(context.Context, func(context.Context) error) error {
		return fmt.Errorf("%w: i/o timeout", domainRepo.ErrCommitUncertain)
	})
	err = runInTx(ctx, uncertain, log, "op", ok)
	assertKind(t, err, apperror.KindPartialCommit)
	assert.ErrorIs(t, err, domainRepo.ErrCommitUncertain)

	conflict := apperror.NewConflictError("taken")
	passthrough := txFunc(func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) })
	err = runInTx(ctx, passthrough, log, "op", func(context.Context) error { return conflict })
	assert.Same(t, conflict, apperror.GetAppError(err))
}

type txFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f txFunc) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

func TestSaleUncertainCommitIsPartialCommit(t *testing.T) {
	f := newFixture(t, withTx(func(tx domainRepo.Transactor) domainRepo.Transactor { return lostCommit{inner: tx} }))
	item := f.stock(t, "Case", 5, 500, 1000)

	_, err := f.sales.Submit(context.Background(), technician, &SubmitSaleInput{
		BuyerName:  "Ani",
		Items:      []CartLine{{StockItemID: item.ID, Quantity: 2}},
		AmountPaid: 2000,
	})
	assertKind(t, err, apperror.KindPartialCommit)

	onHand, consumed := f.qty(t, item.ID)
	assert.Equal(t, 5, onHand)
	assert.Zero(t, consumed)
	assert.Zero(t, f.count(t, &entity.Sale{}))
}

func TestSaleStorageFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t, withTx(func(domainRepo.Transactor) domainRepo.Transactor { return brokenTx{} }))
	item := f.stock(t, "Case", 5, 500, 1000)

	_, err := f.sales.Submit(context.Background(), technician, &SubmitSaleInput{
		BuyerName:  "Ani",
		Items:      []CartLine{{StockItemID: item.ID, Quantity: 1}},
		AmountPaid: 1000,
	})
	assertKind(t, err, apperror.KindPersistence)
	assert.Zero(t, f.count(t, &entity.Sale{}))
}

func TestSaleRolledBackWhenStockRunsOutAtCommit(t *testing.T) {
	f := newFixture(t, withRacingStock)
	item := f.stock(t, "Case", 5, 500, 1000)

	_, err := f.sales.Submit(context.Background(), technician, &SubmitSaleInput{
		BuyerName:  "Ani",
		Items:      []CartLine{{StockItemID: item.ID, Quantity: 2}},
		AmountPaid: 2000,
	})
	appErr := assertKind(t, err, apperror.KindInsufficientStock)
	shortages, ok := appErr.Details.([]apperror.StockShortage)
	require.True(t, ok)
	require.Len(t, shortages, 1)
	assert.Equal(t, 2, shortages[0].Requested)
	assert.Zero(t, shortages[0].Available)

	onHand, consumed := f.qty(t, item.ID)
	assert.Equal(t, 5, onHand)
	assert.Zero(t, consumed)
	assert.Zero(t, f.count(t, &entity.Sale{}))
	assert.Zero(t, f.count(t, &entity.SaleLineItem{}))
}

func TestTicketRolledBackWhenStockRunsOutAtCommit(t *testing.T) {
	f := newFixture(t, withRacingStock)
	lcd := f.stock(t, "LCD", 3, 1500000, 2000000)

	_, err := f.tickets.Create(context.Background(), technician, &CreateTicketInput{
		CustomerName:  "Sari",
		DeviceModel:   "Galaxy A52",
		ServiceFee:    5000000,
		PaymentMethod: enum.PaymentMethodPayInFull,
		AmountPaid:    7000000,
		Parts:         []CartLine{{StockItemID: lcd.ID, Quantity: 1}},
	})
	assertKind(t, err, apperror.KindInsufficientStock)

	onHand, _ := f.qty(t, lcd.ID)
	assert.Equal(t, 3, onHand)
	assert.Zero(t, f.count(t, &entity.ServiceTicket{}))
	assert.Zero(t, f.count(t, &entity.ServicePart{}))
	assert.Zero(t, f.count(t, &entity.ServiceSequence{}), "code sequence is rolled back too")
}

func TestTicketUncertainCommitIsPartialCommit(t *testing.T) {
	f := newFixture(t, withTx(func(tx domainRepo.Transactor) domainRepo.Transactor { return lostCommit{inner: tx} }))

	_, err := f.tickets.Create(context.Background(), technician, &CreateTicketInput{
		CustomerName:  "Sari",
		DeviceModel:   "Galaxy A52",
		ServiceFee:    5000000,
		PaymentMethod: enum.PaymentMethodPayInFull,
		AmountPaid:    5000000,
	})
	assertKind(t, err, apperror.KindPartialCommit)
	assert.Zero(t, f.count(t, &entity.ServiceTicket{}))
}
