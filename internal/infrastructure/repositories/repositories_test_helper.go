package repositories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createFundingRecordTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE funding_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		tx_reference TEXT NOT NULL UNIQUE,
		wallet_address TEXT,
		source TEXT NOT NULL,
		created_at DATETIME
	);`)
}

func createProfileTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		total_balance NUMERIC NOT NULL DEFAULT 0,
		updated_at DATETIME
	);`)
}

func seedProfile(t *testing.T, db *gorm.DB, balance string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	mustExec(t, db, "INSERT INTO profiles (id, total_balance, updated_at) VALUES (?, CAST(? AS NUMERIC), ?)", id.String(), balance, time.Now().UTC())
	return id
}

func isProfileWrite(tx *gorm.DB) bool {
	if tx.Statement.Table == "profiles" {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(tx.Statement.SQL.String())), "UPDATE PROFILES")
}

// interleaveProfileWrite credits amount to userID from inside the same
// connection right before the first profiles write issued through db, the
// way a concurrent writer would land between a read and a write.
func interleaveProfileWrite(t *testing.T, db *gorm.DB, userID uuid.UUID, amount string) *int {
	t.Helper()
	fired := 0
	hook := func(tx *gorm.DB) {
		if fired > 0 || !isProfileWrite(tx) {
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
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:interleave_update", hook))
	require.NoError(t, db.Callback().Raw().Before("gorm:raw").Register("test:interleave_raw", hook))
	return &fired
}

// recordStatements collects every SQL statement db executes.
func recordStatements(t *testing.T, db *gorm.DB) *[]string {
	t.Helper()
	var stmts []string
	record := func(tx *gorm.DB) {
		stmts = append(stmts, tx.Statement.SQL.String())
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:record_query", record))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:record_update", record))
	require.NoError(t, db.Callback().Raw().After("gorm:raw").Register("test:record_raw", record))
	require.NoError(t, db.Callback().Row().After("gorm:row").Register("test:record_row", record))
	return &stmts
}
