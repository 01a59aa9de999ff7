package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func insertRecordRow(ctx context.Context, db *gorm.DB, userID uuid.UUID, ref string) error {
	return GetDB(ctx, db).Exec(
		"INSERT INTO funding_records (id, user_id, amount, currency, tx_reference, source, created_at) VALUES (?, ?, 10, 'NGN', ?, 'wallet', ?)",
		uuid.NewString(), userID.String(), ref, time.Now().UTC(),
	).Error
}

func newLedgerTables(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	createFundingRecordTable(t, db)
	createProfileTable(t, db)
	return db
}

func countRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Table("funding_records").Count(&count).Error)
	return count
}

func TestUnitOfWork_CommitsRecordAndIncrementTogether(t *testing.T) {
	db := newLedgerTables(t)
	userID := seedProfile(t, db, "5")
	u := NewUnitOfWork(db)

	err := u.Do(context.Background(), func(ctx context.Context) error {
		if err := insertRecordRow(ctx, db, userID, "ref-commit"); err != nil {
			return err
		}
		return GetDB(ctx, db).Exec("UPDATE profiles SET total_balance = total_balance + 10 WHERE id = ?", userID.String()).Error
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), countRecords(t, db))
	var balance float64
	require.NoError(t, db.Raw("SELECT total_balance FROM profiles WHERE id = ?", userID.String()).Scan(&balance).Error)
	assert.Equal(t, 15.0, balance)
}

func TestUnitOfWork_FailedIncrementRollsBackRecord(t *testing.T) {
	db := newLedgerTables(t)
	u := NewUnitOfWork(db)

	err := u.Do(context.Background(), func(ctx context.Context) error {
		if err := insertRecordRow(ctx, db, uuid.New(), "ref-rollback"); err != nil {
			return err
		}
		return errors.New("profile missing")
	})
	require.EqualError(t, err, "profile missing")
	assert.Zero(t, countRecords(t, db), "record insert must be rolled back")
}

func TestUnitOfWork_PanicRollsBack(t *testing.T) {
	db := newLedgerTables(t)
	u := NewUnitOfWork(db)

	require.Panics(t, func() {
		_ = u.Do(context.Background(), func(ctx context.Context) error {
			require.NoError(t, insertRecordRow(ctx, db, uuid.New(), "ref-panic"))
			panic("boom")
		})
	})
	assert.Zero(t, countRecords(t, db))
}

func TestUnitOfWork_NestedDoJoinsOuterTransaction(t *testing.T) {
	db := newLedgerTables(t)
	u := &UnitOfWorkImpl{db: db}

	err := u.Do(context.Background(), func(outer context.Context) error {
		outerTx := GetDB(outer, db)
		return u.Do(outer, func(inner context.Context) error {
			require.Same(t, outerTx, GetDB(inner, db))
			return insertRecordRow(inner, db, uuid.New(), "ref-nested")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countRecords(t, db))

	// inner failure aborts the whole outer transaction
	err = u.Do(context.Background(), func(outer context.Context) error {
		if err := insertRecordRow(outer, db, uuid.New(), "ref-outer"); err != nil {
			return err
		}
		return u.Do(outer, func(context.Context) error { return errors.New("inner failed") })
	})
	require.Error(t, err)
	assert.Equal(t, int64(1), countRecords(t, db))
}

func TestUnitOfWork_GetDB(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	assert.Equal(t, db, u.GetDB(context.Background()))

	tx := db.Begin()
	defer tx.Rollback()
	txCtx := context.WithValue(context.Background(), ledgerTxKey{}, tx)
	assert.Equal(t, tx, u.GetDB(txCtx))
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	db := newTestDB(t)
	u := NewUnitOfWork(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	called := false
	err = u.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.False(t, called)
}

func TestUnitOfWork_CommitFailureLeavesNoWrites(t *testing.T) {
	db := newLedgerTables(t)
	u := NewUnitOfWork(db)

	origCommit := commitTx
	t.Cleanup(func() { commitTx = origCommit })
	commitTx = func(*gorm.DB) error { return errors.New("forced commit fail") }

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return insertRecordRow(ctx, db, uuid.New(), "ref-commit-fail")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.Zero(t, countRecords(t, db))
}
