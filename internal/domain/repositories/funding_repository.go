package repositories

import (
	"context"

	"github.com/google/uuid"
	"onyx.backend/internal/domain/entities"
)

// FundingRepository defines the append-only funding record store
type FundingRepository interface {
	// Create inserts record. A second record with the same TxReference fails
	// with errors.ErrAlreadyExists.
	Create(ctx context.Context, record *entities.FundingRecord) error
	GetByTxReference(ctx context.Context, txReference string) (*entities.FundingRecord, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.FundingRecord, int64, error)
}
