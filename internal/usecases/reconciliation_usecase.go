package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"
	"onyx.backend/internal/domain/entities"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/domain/repositories"
	"onyx.backend/pkg/logger"
	"onyx.backend/pkg/metrics"
)

// ReconciliationReport summarizes one reconciliation pass
type ReconciliationReport struct {
	Checked   int
	Divergent []entities.LedgerTotal
}

// ReconciliationUsecase compares stored balances with the funding ledger
type ReconciliationUsecase struct {
	balanceRepo repositories.BalanceRepository
	timeout     time.Duration
}

func NewReconciliationUsecase(balanceRepo repositories.BalanceRepository, timeout time.Duration) *ReconciliationUsecase {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &ReconciliationUsecase{balanceRepo: balanceRepo, timeout: timeout}
}

// Run logs every user whose balance differs from the sum of their funding
// records and publishes the count as a gauge.
func (u *ReconciliationUsecase) Run(ctx context.Context) (*ReconciliationReport, error) {
	storeCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	totals, err := u.balanceRepo.LedgerTotals(storeCtx)
	if err != nil {
		logger.Error(ctx, "Reconciliation query failed", zap.Error(err))
		return nil, domainerrors.StoreError("Failed to load ledger totals", err)
	}

	report := &ReconciliationReport{Checked: len(totals)}
	for _, total := range totals {
		diff := total.Difference()
		if diff.IsZero() {
			continue
		}
		report.Divergent = append(report.Divergent, total)
		logger.Error(ctx, "Balance diverges from funding ledger",
			zap.String("user_id", total.UserID.String()),
			zap.String("balance", total.Balance.String()),
			zap.String("ledger_sum", total.LedgerSum.String()),
			zap.String("difference", diff.String()),
		)
	}

	metrics.LedgerDivergences.Set(float64(len(report.Divergent)))
	logger.Info(ctx, "Reconciliation completed",
		zap.Int("checked", report.Checked),
		zap.Int("divergent", len(report.Divergent)),
	)
	return report, nil
}
