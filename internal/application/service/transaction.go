package service

import (
	"context"
	"errors"

	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"go.uber.org/zap"
)

// runInTx runs fn in one transaction and maps failures to application
// errors. A failed COMMIT is logged for manual reconciliation.
func runInTx(ctx context.Context, tx repository.Transactor, log *zap.Logger, op string, fn func(ctx context.Context) error) error {
	err := tx.WithinTransaction(ctx, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrCommitUncertain) {
		log.Error("commit outcome unknown, reconcile stock and records before resubmitting",
			zap.String("operation", op), zap.Error(err))
		return apperror.NewPartialCommitError(op, err)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistenceError(op, err)
}

// storageErr wraps a repository failure outside a transaction.
func storageErr(op string, err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistenceError(op, err)
}
