package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Paystack PaystackConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	ConnectionURL string
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// DSN prefers an explicit DATABASE_URL (hosted Postgres connection string)
// over the discrete DB_* settings.
func (c DatabaseConfig) DSN() string {
	if c.ConnectionURL != "" {
		return c.ConnectionURL
	}
	return c.URL()
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// PaystackConfig holds the payment provider webhook settings
type PaystackConfig struct {
	SecretKey       string
	DefaultCurrency string
}

// AuthConfig holds the optional provider-token guard for direct funding.
// An empty VerificationKey disables the guard.
type AuthConfig struct {
	VerificationKey string
	Issuer          string
	Audience        string
}

// LedgerConfig holds funding ledger tuning
type LedgerConfig struct {
	StoreTimeout      time.Duration
	ReconcileInterval time.Duration
	ReconcileEnabled  bool
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			ConnectionURL: getEnv("DATABASE_URL", ""),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			DBName:        getEnv("DB_NAME", "onyx"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:  getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Paystack: PaystackConfig{
			SecretKey:       getEnv("PAYSTACK_SECRET_KEY", ""),
			DefaultCurrency: strings.ToUpper(getEnv("PAYSTACK_DEFAULT_CURRENCY", "NGN")),
		},
		Auth: AuthConfig{
			VerificationKey: strings.ReplaceAll(getEnv("AUTH_VERIFICATION_KEY", ""), `\n`, "\n"),
			Issuer:          getEnv("AUTH_ISSUER", ""),
			Audience:        getEnv("AUTH_AUDIENCE", ""),
		},
		Ledger: LedgerConfig{
			StoreTimeout:      getEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
			ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", 5*time.Minute),
			ReconcileEnabled:  getEnvAsBool("RECONCILE_ENABLED", true),
		},
	}
}

// Validate reports settings whose absence must stop the process at startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.ConnectionURL == "" && c.Database.Password == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_PASSWORD is required"))
	}
	if c.Paystack.SecretKey == "" {
		errs = append(errs, errors.New("PAYSTACK_SECRET_KEY is required"))
	}
	if c.Ledger.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
