package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"onyx.backend/internal/config"
	"onyx.backend/internal/infrastructure/jobs"
	"onyx.backend/internal/infrastructure/repositories"
	"onyx.backend/internal/interfaces/http/handlers"
	"onyx.backend/internal/interfaces/http/middleware"
	"onyx.backend/internal/usecases"
	"onyx.backend/pkg/jwt"
	"onyx.backend/pkg/logger"
	"onyx.backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt:    false,
			TranslateError: true,
		})
	}
	runServer = func(ctx context.Context, srv *http.Server) error {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	signalCtx = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	bootCtx := context.Background()
	logger.Info(bootCtx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := cfg.Validate(); err != nil {
		logger.Error(bootCtx, "Invalid configuration", zap.Error(err))
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Redis only backs HTTP idempotency keys; run without it rather than refuse to start
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Warn(bootCtx, "Redis unavailable, idempotency keys disabled", zap.Error(err))
		redis.SetClient(nil)
	} else {
		logger.Info(bootCtx, "Redis initialized")
		defer redis.Close()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(bootCtx, cfg.Ledger.StoreTimeout)
	if err := sqlDB.PingContext(pingCtx); err != nil {
		logger.Warn(bootCtx, "Database not available, ledger endpoints will return store errors", zap.Error(err))
	} else {
		logger.Info(bootCtx, "Connected to PostgreSQL via GORM")
	}
	pingCancel()

	var tokenVerifier middleware.TokenVerifier
	if cfg.Auth.VerificationKey != "" {
		verifier, err := jwt.NewVerifier(cfg.Auth.VerificationKey, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			return fmt.Errorf("failed to load provider verification key: %w", err)
		}
		tokenVerifier = verifier
		logger.Info(bootCtx, "Provider token guard enabled", zap.String("alg", verifier.Method()))
	}

	// Repositories
	fundingRepo := repositories.NewFundingRepository(db)
	balanceRepo := repositories.NewBalanceRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	fundingUsecase := usecases.NewFundingUsecase(fundingRepo, balanceRepo, uow, cfg.Ledger.StoreTimeout)
	webhookUsecase := usecases.NewWebhookUsecase(fundingUsecase, cfg.Paystack.SecretKey, cfg.Paystack.DefaultCurrency)
	reconciliationUsecase := usecases.NewReconciliationUsecase(balanceRepo, cfg.Ledger.StoreTimeout)

	r := newRouter(cfg.Server.AllowedOrigins, routeDeps{
		fundingHandler: handlers.NewFundingHandler(fundingUsecase),
		webhookHandler: handlers.NewWebhookHandler(webhookUsecase),
		providerAuth:   middleware.ProviderAuthMiddleware(tokenVerifier),
	})

	ctx, stop := signalCtx()
	defer stop()

	if cfg.Ledger.ReconcileEnabled {
		reconcileJob := jobs.NewLedgerReconciliationJob(reconciliationUsecase, cfg.Ledger.ReconcileInterval)
		go reconcileJob.Start(ctx)
		defer reconcileJob.Stop()
	}

	for _, route := range r.Routes() {
		logger.Debug(bootCtx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(bootCtx, "ONYX funding service starting", zap.String("port", cfg.Server.Port))
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info(bootCtx, "Server stopped")
	return nil
}
