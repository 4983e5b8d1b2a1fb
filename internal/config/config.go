package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Session  SessionConfig
	Mail     MailConfig
	Cron     CronConfig
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
	Secret          string
	AccessTokenMins int
}

// SessionConfig holds session lifetime configuration
type SessionConfig struct {
	TTLHours int
}

// MailConfig holds SMTP configuration. Mail stays disabled when Host is empty.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CronConfig holds the sweep schedules (cron spec format)
type CronConfig struct {
	SubscriptionSweep string
	DueDateSweep      string
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

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Session:  loadSessionConfig(),
		Mail:     loadMailConfig(),
		Cron:     loadCronConfig(),
	}

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
		DBName:   getEnv(prefix+"DB_NAME", "unibooks"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

// loadSessionConfig loads session lifetime config
func loadSessionConfig() SessionConfig {
	ttl, _ := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "336")) // 14 days
	return SessionConfig{TTLHours: ttl}
}

// loadMailConfig loads SMTP config
func loadMailConfig() MailConfig {
	port, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	return MailConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     port,
		Username: getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASS", ""),
		From:     getEnv("MAIL_FROM", "no-reply@unibooks.local"),
	}
}

// loadCronConfig loads the sweep schedules (daily by default)
func loadCronConfig() CronConfig {
	return CronConfig{
		SubscriptionSweep: getEnv("CRON_SUBSCRIPTION_SWEEP", "0 6 * * *"),
		DueDateSweep:      getEnv("CRON_DUE_DATE_SWEEP", "30 6 * * *"),
	}
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

// MailEnabled returns true when an SMTP host is configured
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != ""
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://unibooks.example.edu"
	}
	return origins
}
