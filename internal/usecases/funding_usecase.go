package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"onyx.backend/internal/domain/entities"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/domain/repositories"
	"onyx.backend/pkg/logger"
	"onyx.backend/pkg/metrics"
	"onyx.backend/pkg/utils"
)

const (
	stageInsert        = "insert"
	stageBalanceUpdate = "balance_update"
	stageCommit        = "commit"

	defaultStoreTimeout = 10 * time.Second
	maxAmountScale      = 2
	defaultPageSize     = 20
	maxPageSize         = 100
)

// stageError tags a ledger failure with the step that produced it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// FundingUsecase owns the ledger sequence shared by every funding entry point
type FundingUsecase struct {
	fundingRepo  repositories.FundingRepository
	balanceRepo  repositories.BalanceRepository
	uow          repositories.UnitOfWork
	storeTimeout time.Duration
}

// NewFundingUsecase creates a new funding usecase
func NewFundingUsecase(
	fundingRepo repositories.FundingRepository,
	balanceRepo repositories.BalanceRepository,
	uow repositories.UnitOfWork,
	storeTimeout time.Duration,
) *FundingUsecase {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &FundingUsecase{
		fundingRepo:  fundingRepo,
		balanceRepo:  balanceRepo,
		uow:          uow,
		storeTimeout: storeTimeout,
	}
}

// storeContext bounds store work and detaches it from client cancellation,
// so an accepted request is never abandoned halfway through the sequence.
func (u *FundingUsecase) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), u.storeTimeout)
}

// Record inserts the funding record and credits the balance in one
// transaction. A repeated TxReference is reported as a duplicate and leaves
// the balance untouched.
func (u *FundingUsecase) Record(ctx context.Context, in entities.RecordFundingInput) (*entities.RecordFundingResult, error) {
	storeCtx, cancel := u.storeContext(ctx)
	defer cancel()

	source := string(in.Source)
	record := &entities.FundingRecord{
		ID:            utils.GenerateUUIDv7(),
		UserID:        in.UserID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		TxReference:   in.TxReference,
		WalletAddress: in.WalletAddress,
		Source:        in.Source,
		CreatedAt:     time.Now().UTC(),
	}

	err := u.uow.Do(storeCtx, func(txCtx context.Context) error {
		if err := u.fundingRepo.Create(txCtx, record); err != nil {
			return &stageError{stage: stageInsert, err: err}
		}
		if err := u.balanceRepo.Increment(txCtx, in.UserID, in.Amount); err != nil {
			return &stageError{stage: stageBalanceUpdate, err: err}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return u.duplicate(ctx, in), nil
		}
		return nil, u.mapRecordError(ctx, in, err)
	}

	result := &entities.RecordFundingResult{Record: record}
	fields := []zap.Field{
		zap.String("user_id", in.UserID.String()),
		zap.String("amount", in.Amount.String()),
		zap.String("currency", in.Currency),
		zap.String("tx_reference", in.TxReference),
		zap.String("source", source),
	}

	readCtx, readCancel := u.storeContext(ctx)
	defer readCancel()
	if bal, err := u.balanceRepo.GetByUserID(readCtx, in.UserID); err != nil {
		logger.Warn(ctx, "Funding recorded but balance read-back failed", append(fields, zap.Error(err))...)
	} else {
		result.Balance = bal
		fields = append(fields, zap.String("new_balance", bal.TotalBalance.String()))
	}

	metrics.FundingEvents.WithLabelValues(source, metrics.OutcomeRecorded).Inc()
	logger.Info(ctx, "Funding recorded", fields...)
	return result, nil
}

func (u *FundingUsecase) duplicate(ctx context.Context, in entities.RecordFundingInput) *entities.RecordFundingResult {
	metrics.FundingEvents.WithLabelValues(string(in.Source), metrics.OutcomeDuplicate).Inc()
	result := &entities.RecordFundingResult{Duplicate: true}

	readCtx, cancel := u.storeContext(ctx)
	defer cancel()
	existing, err := u.fundingRepo.GetByTxReference(readCtx, in.TxReference)
	if err != nil {
		logger.Warn(ctx, "Duplicate funding reference, original record not loaded",
			zap.String("tx_reference", in.TxReference),
			zap.Error(err),
		)
		return result
	}
	result.Record = existing

	if existing.UserID != in.UserID {
		logger.Warn(ctx, "Duplicate funding reference claimed by another user",
			zap.String("tx_reference", in.TxReference),
			zap.String("user_id", in.UserID.String()),
			zap.String("recorded_user_id", existing.UserID.String()),
		)
	} else {
		logger.Info(ctx, "Duplicate funding reference ignored",
			zap.String("tx_reference", in.TxReference),
			zap.String("user_id", in.UserID.String()),
		)
	}
	return result
}

func (u *FundingUsecase) mapRecordError(ctx context.Context, in entities.RecordFundingInput, err error) error {
	stage := stageCommit
	var se *stageError
	if errors.As(err, &se) {
		stage = se.stage
	}

	fields := []zap.Field{
		zap.String("stage", stage),
		zap.String("user_id", in.UserID.String()),
		zap.String("tx_reference", in.TxReference),
		zap.String("source", string(in.Source)),
		zap.Error(err),
	}

	if stage == stageBalanceUpdate && errors.Is(err, domainerrors.ErrNotFound) {
		metrics.FundingEvents.WithLabelValues(string(in.Source), metrics.OutcomeNotFound).Inc()
		logger.Warn(ctx, "Funding rejected, user profile not found", fields...)
		return domainerrors.NotFound("User profile not found")
	}

	metrics.FundingEvents.WithLabelValues(string(in.Source), metrics.OutcomeFailed).Inc()
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Error(ctx, "Funding store call timed out", fields...)
		return domainerrors.StoreError("Store request timed out", err)
	}

	switch stage {
	case stageInsert:
		logger.Error(ctx, "Failed to insert funding record", fields...)
		return domainerrors.StoreError("Failed to record funding", err)
	case stageBalanceUpdate:
		logger.Error(ctx, "Funding recorded but balance update failed, transaction rolled back", fields...)
		return domainerrors.StoreError("Failed to update balance", err)
	default:
		logger.Error(ctx, "Failed to commit funding transaction", fields...)
		return domainerrors.StoreError("Failed to commit funding", err)
	}
}

// RecordDirect validates a wallet-initiated top-up claim and records it.
func (u *FundingUsecase) RecordDirect(ctx context.Context, req *entities.DirectFundingRequest) (*entities.RecordFundingResult, error) {
	if req == nil ||
		strings.TrimSpace(req.UserID) == "" ||
		req.Amount == nil ||
		strings.TrimSpace(req.Currency) == "" ||
		strings.TrimSpace(req.TxReference) == "" ||
		strings.TrimSpace(req.WalletAddress) == "" {
		return nil, domainerrors.MissingFields()
	}

	userID, err := utils.ParseCanonicalUUID(req.UserID)
	if err != nil {
		return nil, domainerrors.ValidationError("Invalid user_id")
	}

	amount := *req.Amount
	if !amount.IsPositive() {
		return nil, domainerrors.ValidationError("Amount must be a positive number")
	}
	if !amount.Equal(amount.Round(maxAmountScale)) {
		return nil, domainerrors.ValidationError("Amount supports at most 2 decimal places")
	}

	wallet := strings.TrimSpace(req.WalletAddress)
	if !common.IsHexAddress(wallet) {
		return nil, domainerrors.ValidationError("Invalid wallet_address")
	}

	return u.Record(ctx, entities.RecordFundingInput{
		UserID:        userID,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		TxReference:   strings.TrimSpace(req.TxReference),
		WalletAddress: null.StringFrom(wallet),
		Source:        entities.FundingSourceWallet,
	})
}

// GetBalance returns the stored balance of a user
func (u *FundingUsecase) GetBalance(ctx context.Context, userID uuid.UUID) (*entities.UserBalance, error) {
	storeCtx, cancel := u.storeContext(ctx)
	defer cancel()

	bal, err := u.balanceRepo.GetByUserID(storeCtx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("User profile not found")
		}
		logger.Error(ctx, "Failed to load balance", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, domainerrors.StoreError("Failed to load balance", err)
	}
	return bal, nil
}

// ListRecords returns one page of a user's funding records, newest first
func (u *FundingUsecase) ListRecords(ctx context.Context, userID uuid.UUID, pagination utils.PaginationParams) ([]*entities.FundingRecord, utils.PaginationMeta, error) {
	pagination = utils.GetPaginationParams(pagination.Page, pagination.Limit).Bounded(defaultPageSize, maxPageSize)

	storeCtx, cancel := u.storeContext(ctx)
	defer cancel()

	records, total, err := u.fundingRepo.ListByUserID(storeCtx, userID, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		logger.Error(ctx, "Failed to list funding records", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, utils.PaginationMeta{}, domainerrors.StoreError("Failed to list funding records", err)
	}
	return records, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}
