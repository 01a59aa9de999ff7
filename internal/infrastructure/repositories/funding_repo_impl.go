package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"onyx.backend/internal/domain/entities"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/infrastructure/models"
	"onyx.backend/pkg/utils"
)

// FundingRepositoryImpl implements FundingRepository
type FundingRepositoryImpl struct {
	db *gorm.DB
}

func NewFundingRepository(db *gorm.DB) *FundingRepositoryImpl {
	return &FundingRepositoryImpl{db: db}
}

func (r *FundingRepositoryImpl) Create(ctx context.Context, record *entities.FundingRecord) error {
	if record.ID == uuid.Nil {
		record.ID = utils.GenerateUUIDv7()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	m := &models.FundingRecord{
		ID:            record.ID,
		UserID:        record.UserID,
		Amount:        record.Amount,
		Currency:      record.Currency,
		TxReference:   record.TxReference,
		WalletAddress: record.WalletAddress,
		Source:        string(record.Source),
		CreatedAt:     record.CreatedAt,
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tx_reference %s", domainerrors.ErrAlreadyExists, record.TxReference)
		}
		return err
	}
	return nil
}

func (r *FundingRepositoryImpl) GetByTxReference(ctx context.Context, txReference string) (*entities.FundingRecord, error) {
	var m models.FundingRecord
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("tx_reference = ?", txReference).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *FundingRepositoryImpl) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.FundingRecord, int64, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.FundingRecord{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.FundingRecord
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	records := make([]*entities.FundingRecord, 0, len(ms))
	for i := range ms {
		records = append(records, r.toEntity(&ms[i]))
	}
	return records, total, nil
}

func (r *FundingRepositoryImpl) toEntity(m *models.FundingRecord) *entities.FundingRecord {
	return &entities.FundingRecord{
		ID:            m.ID,
		UserID:        m.UserID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		TxReference:   m.TxReference,
		WalletAddress: m.WalletAddress,
		Source:        entities.FundingSource(m.Source),
		CreatedAt:     m.CreatedAt,
	}
}
