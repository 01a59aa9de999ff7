package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"onyx.backend/internal/config"
	"onyx.backend/internal/infrastructure/repositories"
	"onyx.backend/internal/usecases"
	"onyx.backend/pkg/crypto"
	"onyx.backend/pkg/logger"
)

var Version = "dev"

var openCtlDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
	})
}

var openCtlSQLDB = func(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}

type reconciler interface {
	Run(ctx context.Context) (*usecases.ReconciliationReport, error)
}

type ctlDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (reconciler, io.Closer, error)
	in      io.Reader
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultCtlDeps() ctlDeps {
	return ctlDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (reconciler, io.Closer, error) {
			db, err := openCtlDB(cfg.Database.DSN())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}

			sqlDB, err := openCtlSQLDB(db)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}

			balanceRepo := repositories.NewBalanceRepository(db)
			return usecases.NewReconciliationUsecase(balanceRepo, cfg.Ledger.StoreTimeout), sqlDB, nil
		},
		in:  os.Stdin,
		out: os.Stdout,
	}
}

func newRootCmd(deps ctlDeps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fundingctl",
		Short:         "Operational tooling for the ONYX funding ledger",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(signCmd(deps))
	rootCmd.AddCommand(reconcileCmd(deps))
	return rootCmd
}

func signCmd(deps ctlDeps) *cobra.Command {
	var secret, file string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the provider webhook signature for a payload",
		Long: `Computes hex(HMAC-SHA512(secret, payload)) exactly as the payment provider
does for the x-paystack-signature header. The payload is read from --file, or
from stdin when no file is given. Bytes are signed as-is.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}

			var (
				payload []byte
				err     error
			)
			if file != "" {
				payload, err = os.ReadFile(file)
			} else {
				payload, err = io.ReadAll(deps.in)
			}
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}

			_, _ = fmt.Fprintln(deps.out, crypto.SignPayload(secret, payload))
			return nil
		},
	}

	cmd.Flags().StringVarP(&secret, "secret", "s", "", "provider secret key (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "payload file (defaults to stdin)")
	return cmd
}

func reconcileCmd(deps ctlDeps) *cobra.Command {
	var failOnDivergence bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored balances with the sum of funding records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.loadEnv(); err != nil {
				log.Println("No .env file found, using environment variables")
			}

			cfg := deps.loadCfg()
			logger.Init(cfg.Server.Env)
			defer logger.Sync()

			runner, closer, err := deps.prepare(cfg)
			if err != nil {
				return err
			}
			if closer == nil {
				closer = nopCloser{}
			}
			defer closer.Close()

			report, err := runner.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconciliation failed: %w", err)
			}

			_, _ = fmt.Fprintf(deps.out, "checked=%d divergent=%d\n", report.Checked, len(report.Divergent))
			for _, total := range report.Divergent {
				_, _ = fmt.Fprintf(deps.out, "user_id=%s balance=%s ledger_sum=%s difference=%s\n",
					total.UserID, total.Balance.StringFixed(2), total.LedgerSum.StringFixed(2), total.Difference().StringFixed(2))
			}

			if failOnDivergence && len(report.Divergent) > 0 {
				return fmt.Errorf("%d balances diverge from the funding ledger", len(report.Divergent))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnDivergence, "fail-on-divergence", false, "exit non-zero when any balance diverges")
	return cmd
}

func main() {
	if err := newRootCmd(defaultCtlDeps()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
