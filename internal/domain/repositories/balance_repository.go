package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"onyx.backend/internal/domain/entities"
)

// BalanceRepository defines operations on the per-user balance projection
type BalanceRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserBalance, error)
	// Increment adds delta to the stored balance in a single statement.
	// Returns errors.ErrNotFound when the user has no profile row.
	Increment(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) error
	LedgerTotals(ctx context.Context) ([]entities.LedgerTotal, error)
}
