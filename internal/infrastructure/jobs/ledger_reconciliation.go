package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"onyx.backend/internal/usecases"
	"onyx.backend/pkg/logger"
)

const defaultReconcileInterval = 5 * time.Minute

type ledgerReconciler interface {
	Run(ctx context.Context) (*usecases.ReconciliationReport, error)
}

// LedgerReconciliationJob periodically compares balances with the funding ledger
type LedgerReconciliationJob struct {
	reconciler ledgerReconciler
	interval   time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewLedgerReconciliationJob(reconciler ledgerReconciler, interval time.Duration) *LedgerReconciliationJob {
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	return &LedgerReconciliationJob{
		reconciler: reconciler,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

func (j *LedgerReconciliationJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting ledger reconciliation job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Ledger reconciliation job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Ledger reconciliation job stopped")
			return
		case <-ticker.C:
			j.reconcile(ctx)
		}
	}
}

func (j *LedgerReconciliationJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *LedgerReconciliationJob) reconcile(ctx context.Context) {
	report, err := j.reconciler.Run(ctx)
	if err != nil {
		logger.Error(ctx, "Ledger reconciliation pass failed", zap.Error(err))
		return
	}
	if len(report.Divergent) > 0 {
		logger.Warn(ctx, "Ledger reconciliation found divergent balances", zap.Int("count", len(report.Divergent)))
	}
}
