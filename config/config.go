package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecodepin/ecodepin-api/models"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const DefaultSessionCleanupCron = "@every 1h"

const DefaultAuthProviderURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"

type WalletConfig struct {
	MetaMaskEnabled        bool
	TrustWalletEnabled     bool
	WalletConnectEnabled   bool
	WalletConnectProjectID string
	// PrimaryChainID is the chain every newly linked wallet is pinned to.
	PrimaryChainID    int64
	SupportedChainIDs []int64
}

type Config struct {
	Port                string
	Environment         string
	DatabaseURL         string
	CORSOrigins         []string
	AuthProviderURL     string
	AuthProviderTimeout time.Duration
	SessionTTL          time.Duration
	SessionCleanupCron  string
	StripeAPIKey        string
	LogLevel            string
	RateLimitRPS        int
	RateLimitBurst      int
	Wallets             WalletConfig
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	authTimeout, err := getEnvDuration("AUTH_PROVIDER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	rps, err := getEnvInt("RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, err
	}
	primaryChain, err := getEnvInt("PRIMARY_CHAIN_ID", 137)
	if err != nil {
		return nil, err
	}
	chains, err := parseChainIDs(getEnvOrDefault("SUPPORTED_CHAIN_IDS", "1,137,56"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                getEnvOrDefault("PORT", "8001"),
		Environment:         getEnvOrDefault("APP_ENV", "development"),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", "sqlite://ecodepin.db"),
		CORSOrigins:         splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		AuthProviderURL:     getEnvOrDefault("AUTH_PROVIDER_URL", DefaultAuthProviderURL),
		AuthProviderTimeout: authTimeout,
		SessionTTL:          sessionTTL,
		SessionCleanupCron:  cleanupSchedule(),
		StripeAPIKey:        os.Getenv("STRIPE_API_KEY"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		RateLimitRPS:        rps,
		RateLimitBurst:      burst,
		Wallets: WalletConfig{
			MetaMaskEnabled:        getEnvBool("METAMASK_ENABLED"),
			TrustWalletEnabled:     getEnvBool("TRUST_WALLET_ENABLED"),
			WalletConnectEnabled:   getEnvBool("WALLETCONNECT_ENABLED"),
			WalletConnectProjectID: os.Getenv("WALLETCONNECT_PROJECT_ID"),
			PrimaryChainID:         int64(primaryChain),
			SupportedChainIDs:      chains,
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// InitDB opens the database named by DatabaseURL. postgres:// and
// postgresql:// URLs use postgres; sqlite://<path> (or a bare path) uses sqlite.
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var dialector gorm.Dialector
	switch url := cfg.DatabaseURL; {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		dialector = postgres.Open(url)
	default:
		dialector = sqlite.Open(strings.TrimPrefix(url, "sqlite://"))
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
		}
		return n, nil
	}
	return defaultValue, nil
}

// cleanupSchedule defaults to hourly; an explicitly empty value disables it.
func cleanupSchedule() string {
	if value, ok := os.LookupEnv("SESSION_CLEANUP_CRON"); ok {
		return strings.TrimSpace(value)
	}
	return DefaultSessionCleanupCron
}

func getEnvBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseChainIDs(value string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(value) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id in SUPPORTED_CHAIN_IDS: %q (%w)", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
