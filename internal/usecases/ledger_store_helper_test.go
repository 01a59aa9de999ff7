package usecases_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"onyx.backend/internal/infrastructure/repositories"
	"onyx.backend/internal/usecases"
)

// ledgerStore is a sqlite-backed ledger wired through the real repositories.
type ledgerStore struct {
	db      *gorm.DB
	funding *usecases.FundingUsecase
}

func newLedgerStore(t *testing.T) *ledgerStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")

	// sqlite allows a single writer; serialize transactions on one connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec(`CREATE TABLE funding_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		tx_reference TEXT NOT NULL UNIQUE,
		wallet_address TEXT,
		source TEXT NOT NULL,
		created_at DATETIME
	);`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		total_balance NUMERIC NOT NULL DEFAULT 0,
		updated_at DATETIME
	);`).Error)

	uc := usecases.NewFundingUsecase(
		repositories.NewFundingRepository(db),
		repositories.NewBalanceRepository(db),
		repositories.NewUnitOfWork(db),
		5*time.Second,
	)
	return &ledgerStore{db: db, funding: uc}
}

func (s *ledgerStore) seedProfile(t *testing.T, balance string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.db.Exec(
		"INSERT INTO profiles (id, total_balance, updated_at) VALUES (?, CAST(? AS NUMERIC), ?)",
		id.String(), balance, time.Now().UTC(),
	).Error)
	return id
}

func (s *ledgerStore) balance(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	bal, err := repositories.NewBalanceRepository(s.db).GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return bal.TotalBalance
}

func (s *ledgerStore) recordCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Table("funding_records").Count(&count).Error)
	return count
}

func repositoriesBalance(s *ledgerStore) *repositories.BalanceRepositoryImpl {
	return repositories.NewBalanceRepository(s.db)
}

// interleaveCredit makes a second writer credit amount to userID inside the
// ledger transaction right before the first profiles write, i.e. after any
// balance read the sequence may have made.
func (s *ledgerStore) interleaveCredit(t *testing.T, userID uuid.UUID, amount string) *int {
	t.Helper()
	fired := 0
	hook := func(tx *gorm.DB) {
		if fired > 0 {
			return
		}
		sql := strings.ToUpper(strings.TrimSpace(tx.Statement.SQL.String()))
		if tx.Statement.Table != "profiles" && !strings.HasPrefix(sql, "UPDATE PROFILES") {
			return
		}
		fired++
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE profiles SET total_balance = total_balance + CAST(? AS NUMERIC) WHERE id = ?",
			amount, userID.String(),
		); err != nil {
			_ = tx.AddError(err)
		}
	}
	require.NoError(t, s.db.Callback().Update().Before("gorm:update").Register("test:interleave_update", hook))
	require.NoError(t, s.db.Callback().Raw().Before("gorm:raw").Register("test:interleave_raw", hook))
	return &fired
}

// profileStatements collects the SQL of every statement touching profiles.
func (s *ledgerStore) profileStatements(t *testing.T) *[]string {
	t.Helper()
	var stmts []string
	record := func(tx *gorm.DB) {
		sql := tx.Statement.SQL.String()
		if tx.Statement.Table == "profiles" || strings.Contains(strings.ToLower(sql), "profiles") {
			stmts = append(stmts, sql)
		}
	}
	require.NoError(t, s.db.Callback().Query().After("gorm:query").Register("test:record_query", record))
	require.NoError(t, s.db.Callback().Update().After("gorm:update").Register("test:record_update", record))
	require.NoError(t, s.db.Callback().Raw().After("gorm:raw").Register("test:record_raw", record))
	require.NoError(t, s.db.Callback().Row().After("gorm:row").Register("test:record_row", record))
	return &stmts
}
