package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	domainRepos "onyx.backend/internal/domain/repositories"
	"onyx.backend/pkg/logger"
)

type ledgerTxKey struct{}

var commitTx = func(tx *gorm.DB) error {
	return tx.Commit().Error
}

// UnitOfWorkImpl runs ledger writes in a single GORM transaction
type UnitOfWorkImpl struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(db *gorm.DB) domainRepos.UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

// Do runs fn inside a transaction carried by txCtx. A nested Do joins the
// outer transaction, so only the outermost call commits.
func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(ctx, tx, "panic")
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, ledgerTxKey{}, tx)); err != nil {
		rollback(ctx, tx, "work failed")
		return err
	}

	if err = commitTx(tx); err != nil {
		rollback(ctx, tx, "commit failed")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func rollback(ctx context.Context, tx *gorm.DB, reason string) {
	err := tx.Rollback().Error
	if err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) && !errors.Is(err, sql.ErrTxDone) {
		logger.Warn(ctx, "Ledger transaction rollback failed", zap.String("reason", reason), zap.Error(err))
	}
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(ledgerTxKey{}).(*gorm.DB)
	return ok
}

// GetDB returns the transaction bound to ctx, or the base DB.
func (u *UnitOfWorkImpl) GetDB(ctx context.Context) *gorm.DB {
	return GetDB(ctx, u.db)
}

// GetDB returns the ledger transaction carried by ctx, otherwise fallback.
// Every repository in this package routes its queries through it.
func GetDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(ledgerTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
