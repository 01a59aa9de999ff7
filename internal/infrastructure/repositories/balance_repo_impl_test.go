package repositories

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "onyx.backend/internal/domain/errors"
)

func TestBalanceRepository_GetByUserID(t *testing.T) {
	db := newTestDB(t)
	createProfileTable(t, db)
	repo := NewBalanceRepository(db)
	ctx := context.Background()

	userID := seedProfile(t, db, "100")
	bal, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, bal.UserID)
	assert.True(t, bal.TotalBalance.Equal(decimal.NewFromInt(100)))

	_, err = repo.GetByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBalanceRepository_Increment(t *testing.T) {
	db := newTestDB(t)
	createProfileTable(t, db)
	repo := NewBalanceRepository(db)
	ctx := context.Background()

	userID := seedProfile(t, db, "1000")
	require.NoError(t, repo.Increment(ctx, userID, decimal.NewFromInt(500)))

	bal, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "1500", bal.TotalBalance.String())

	// negative deltas are applied as-is
	require.NoError(t, repo.Increment(ctx, userID, decimal.NewFromInt(-200)))
	bal, err = repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "1300", bal.TotalBalance.String())
}

func TestBalanceRepository_IncrementMissingProfile(t *testing.T) {
	db := newTestDB(t)
	createProfileTable(t, db)
	repo := NewBalanceRepository(db)

	err := repo.Increment(context.Background(), uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBalanceRepository_IncrementStoreError(t *testing.T) {
	db := newTestDB(t)
	repo := NewBalanceRepository(db)

	err := repo.Increment(context.Background(), uuid.New(), decimal.NewFromInt(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBalanceRepository_ConcurrentIncrements(t *testing.T) {
	db := newTestDB(t)
	createProfileTable(t, db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewBalanceRepository(db)
	userID := seedProfile(t, db, "0")

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Increment(context.Background(), userID, decimal.NewFromInt(10))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	bal, err := repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "200", bal.TotalBalance.String())
}

func TestBalanceRepository_IncrementKeepsInterleavedCredit(t *testing.T) {
	db := newTestDB(t)
	createProfileTable(t, db)
	repo := NewBalanceRepository(db)
	userID := seedProfile(t, db, "100")

	fired := interleaveProfileWrite(t, db, userID, "1000")
	require.NoError(t, repo.Increment(context.Background(), userID, decimal.NewFromInt(7)))
	require.Equal(t, 1, *fired, "interleaved writer must run")

	bal, err := repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1107).Equal(bal.TotalBalance), "balance %s lost the interleaved credit", bal.TotalBalance)
}

func TestBalanceRepository_IncrementIsSingleAtomicUpdate(t *testing.T) {
	db := newTestDB(t)
	createProfileTable(t, db)
	repo := NewBalanceRepository(db)
	userID := seedProfile(t, db, "0")

	stmts := recordStatements(t, db)
	require.NoError(t, repo.Increment(context.Background(), userID, decimal.RequireFromString("2.50")))

	require.Len(t, *stmts, 1, "statements: %v", *stmts)
	sql := (*stmts)[0]
	assert.True(t, strings.HasPrefix(strings.ToUpper(sql), "UPDATE"), sql)
	assert.Contains(t, sql, "total_balance + CAST(")
}

func TestBalanceRepository_LedgerTotals(t *testing.T) {
	db := newTestDB(t)
	createProfileTable(t, db)
	createFundingRecordTable(t, db)
	repo := NewBalanceRepository(db)
	funding := NewFundingRepository(db)
	ctx := context.Background()

	consistent := seedProfile(t, db, "50")
	drifted := seedProfile(t, db, "80")
	empty := seedProfile(t, db, "0")

	for _, ref := range []string{"c-1", "c-2"} {
		rec := newRecord(consistent, ref)
		rec.Amount = decimal.NewFromInt(25)
		require.NoError(t, funding.Create(ctx, rec))
	}
	rec := newRecord(drifted, "d-1")
	rec.Amount = decimal.NewFromInt(30)
	require.NoError(t, funding.Create(ctx, rec))

	totals, err := repo.LedgerTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 3)

	byUser := map[uuid.UUID]string{}
	for _, total := range totals {
		byUser[total.UserID] = total.Difference().String()
	}
	assert.Equal(t, "0", byUser[consistent])
	assert.Equal(t, "50", byUser[drifted])
	assert.Equal(t, "0", byUser[empty])
}

func TestBalanceRepository_LedgerTotalsError(t *testing.T) {
	db := newTestDB(t)
	repo := NewBalanceRepository(db)

	_, err := repo.LedgerTotals(context.Background())
	require.Error(t, err)
}
