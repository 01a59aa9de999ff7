package usecases_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"onyx.backend/internal/domain/entities"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	args := m.Called(ctx, f)
	if err := f(ctx); err != nil {
		return err
	}
	return args.Error(0)
}

// Mock FundingRepository
type MockFundingRepository struct {
	mock.Mock
}

func (m *MockFundingRepository) Create(ctx context.Context, record *entities.FundingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFundingRepository) GetByTxReference(ctx context.Context, txReference string) (*entities.FundingRecord, error) {
	args := m.Called(ctx, txReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FundingRecord), args.Error(1)
}

func (m *MockFundingRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.FundingRecord, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.FundingRecord), args.Get(1).(int64), args.Error(2)
}

// Mock BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserBalance), args.Error(1)
}

func (m *MockBalanceRepository) Increment(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockBalanceRepository) LedgerTotals(ctx context.Context) ([]entities.LedgerTotal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.LedgerTotal), args.Error(1)
}

// Mock FundingRecorder
type MockFundingRecorder struct {
	mock.Mock
}

func (m *MockFundingRecorder) Record(ctx context.Context, in entities.RecordFundingInput) (*entities.RecordFundingResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RecordFundingResult), args.Error(1)
}
