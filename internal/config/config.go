package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"assofund/internal/pkg/money"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Dues     DuesConfig
	Notify   NotifyConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// DuesConfig holds the dues ledger knobs. AvgMonthlyDue is the configured
// flat-fee + typical-assistance amount the arrears calculator divides by.
type DuesConfig struct {
	FlatFee       money.Money
	AssistanceFee money.Money
	AvgMonthlyDue money.Money
	ArrearsMonths int
	DueDay        int
	LockTimeout   time.Duration
}

// NotifyConfig holds the outbound notification channel settings
type NotifyConfig struct {
	WebhookURL string
	Channel    string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	dues, err := loadDuesConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Dues:     dues,
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Channel:    getEnv("NOTIFY_CHANNEL", "email"),
		},
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "assofund"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadDuesConfig loads the ledger configuration
func loadDuesConfig() (DuesConfig, error) {
	flatFee, err := money.Parse(getEnv("DUES_FLAT_FEE", "50.00"))
	if err != nil {
		return DuesConfig{}, fmt.Errorf("invalid DUES_FLAT_FEE: %w", err)
	}
	assistanceFee, err := money.Parse(getEnv("DUES_ASSISTANCE_FEE", "25.00"))
	if err != nil {
		return DuesConfig{}, fmt.Errorf("invalid DUES_ASSISTANCE_FEE: %w", err)
	}
	avg, err := money.Parse(getEnv("DUES_AVG_MONTHLY", "75.00"))
	if err != nil {
		return DuesConfig{}, fmt.Errorf("invalid DUES_AVG_MONTHLY: %w", err)
	}

	arrearsMonths, _ := strconv.Atoi(getEnv("DUES_ARREARS_MONTHS", "3"))
	if arrearsMonths < 1 {
		arrearsMonths = 3
	}
	dueDay, _ := strconv.Atoi(getEnv("DUES_DUE_DAY", "10"))
	if dueDay < 1 || dueDay > 31 {
		dueDay = 10
	}
	lockTimeoutMS, _ := strconv.Atoi(getEnv("MEMBER_LOCK_TIMEOUT_MS", "5000"))
	if lockTimeoutMS < 1 {
		lockTimeoutMS = 5000
	}

	return DuesConfig{
		FlatFee:       flatFee,
		AssistanceFee: assistanceFee,
		AvgMonthlyDue: avg,
		ArrearsMonths: arrearsMonths,
		DueDay:        dueDay,
		LockTimeout:   time.Duration(lockTimeoutMS) * time.Millisecond,
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origins
		return "https://app.assofund.org"
	}
	return origins
}
