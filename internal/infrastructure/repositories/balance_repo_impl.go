package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"onyx.backend/internal/domain/entities"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/infrastructure/models"
)

// BalanceRepositoryImpl implements BalanceRepository over the profiles table
type BalanceRepositoryImpl struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepositoryImpl {
	return &BalanceRepositoryImpl{db: db}
}

func (r *BalanceRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserBalance, error) {
	var m models.Profile
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &entities.UserBalance{
		UserID:       m.ID,
		TotalBalance: m.TotalBalance,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// Increment applies delta at the store so concurrent credits never overwrite
// each other.
func (r *BalanceRepositoryImpl) Increment(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) error {
	res := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_balance": gorm.Expr("total_balance + CAST(? AS NUMERIC)", delta.String()),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

type ledgerTotalRow struct {
	UserID    uuid.UUID
	Balance   decimal.Decimal
	LedgerSum decimal.Decimal
}

func (r *BalanceRepositoryImpl) LedgerTotals(ctx context.Context) ([]entities.LedgerTotal, error) {
	var rows []ledgerTotalRow
	err := GetDB(ctx, r.db).WithContext(ctx).
		Table("profiles AS p").
		Select("p.id AS user_id, p.total_balance AS balance, COALESCE(SUM(f.amount), 0) AS ledger_sum").
		Joins("LEFT JOIN funding_records AS f ON f.user_id = p.id").
		Group("p.id, p.total_balance").
		Order("p.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make([]entities.LedgerTotal, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, entities.LedgerTotal{
			UserID:    row.UserID,
			Balance:   row.Balance,
			LedgerSum: row.LedgerSum,
		})
	}
	return totals, nil
}
