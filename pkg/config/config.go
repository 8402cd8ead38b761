package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the connection string for the configured driver
func (c *DBConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port      string
	Env       string
	AppURL    string
	BodyLimit string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// BillingConfig holds payment processor configuration
type BillingConfig struct {
	SecretKey          string
	WebhookSecret      string
	PriceStarter       string
	PricePro           string
	PriceTeam          string
	TrialDays          int64
	EnforceEventOrder  bool
	CatalogPath        string
	WebhookMaxBodySize int64
}

// AuthConfig holds one-time-code and password settings
type AuthConfig struct {
	OTPLength      int
	OTPTTL         time.Duration
	OTPMaxAttempts int
	BcryptCost     int
}

// MailConfig selects how one-time codes are delivered
type MailConfig struct {
	Driver   string
	SMTPHost string
	SMTPPort string
	Username string
	Password string
	From     string
}

// RFIConfig holds RFI view settings
type RFIConfig struct {
	DueSoonWindow time.Duration
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Billing     BillingConfig
	Auth        AuthConfig
	Mail        MailConfig
	RFI         RFIConfig
}

// Load loads configuration from the optional .env file and environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "rfitrack"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "rfitrack.db"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8080"),
			Env:       getEnv("APP_ENV", "development"),
			AppURL:    strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
			BodyLimit: getEnv("SERVER_BODY_LIMIT", "2M"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
		Billing: BillingConfig{
			SecretKey:          getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:      getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceStarter:       getEnv("STRIPE_PRICE_STARTER", ""),
			PricePro:           getEnv("STRIPE_PRICE_PRO", ""),
			PriceTeam:          getEnv("STRIPE_PRICE_TEAM", ""),
			TrialDays:          int64(getEnvAsInt("BILLING_TRIAL_DAYS", 7)),
			EnforceEventOrder:  getEnvAsBool("BILLING_ENFORCE_EVENT_ORDER", false),
			CatalogPath:        getEnv("BILLING_CATALOG_PATH", ""),
			WebhookMaxBodySize: int64(getEnvAsInt("BILLING_WEBHOOK_MAX_BODY", 65536)),
		},
		Auth: AuthConfig{
			OTPLength:      getEnvAsInt("AUTH_OTP_LENGTH", 6),
			OTPTTL:         getEnvAsDuration("AUTH_OTP_TTL", 10*time.Minute),
			OTPMaxAttempts: getEnvAsInt("AUTH_OTP_MAX_ATTEMPTS", 5),
			BcryptCost:     getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Mail: MailConfig{
			Driver:   getEnv("MAIL_DRIVER", "log"),
			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", "no-reply@localhost"),
		},
		RFI: RFIConfig{
			DueSoonWindow: getEnvAsDuration("RFI_DUE_SOON_WINDOW", 72*time.Hour),
		},
	}

	if config.Server.Env == "production" && config.JWT.SigningKey == "defaultsecretkey" {
		return nil, fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}

	switch config.Mail.Driver {
	case "log":
		// The log driver writes sign-in codes to the logs
		if config.Server.Env == "production" {
			return nil, fmt.Errorf("MAIL_DRIVER=log is not allowed in production, configure smtp")
		}
	case "smtp":
		if config.Mail.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST must be set when MAIL_DRIVER=smtp")
		}
	default:
		return nil, fmt.Errorf("unsupported MAIL_DRIVER %q", config.Mail.Driver)
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("billing_configured", c.Billing.SecretKey != ""),
		zap.Bool("billing_enforce_event_order", c.Billing.EnforceEventOrder),
		zap.String("mail_driver", c.Mail.Driver),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
