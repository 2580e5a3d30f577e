package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"whatsapp-notifier/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	GatewayPartnerBot = "partnerbot"
	GatewayTwilio     = "twilio"
)

const minPollInterval = time.Second

type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DBDriver      string
	DatabaseURL   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBAutoMigrate bool

	// Gateway
	GatewayDriver       string
	GatewayURL          string
	GatewayToken        string
	GatewayTimeout      time.Duration
	TemplateNewSchedule string
	TemplateReminder    string

	// Twilio
	TwilioAccountSID         string
	TwilioAuthToken          string
	TwilioWhatsAppNumber     string
	TwilioContentSIDWelcome  string
	TwilioContentSIDReminder string

	// Scheduler
	CompanyID         *int64
	PollInterval      time.Duration
	BatchSize         int
	TimeZone          string
	BusinessHourStart int
	BusinessHourEnd   int

	// Logging
	LogDir   string
	LogLevel string
}

// Load reads the configuration from the environment, loading .env first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, reading configuration from the environment")
	}

	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "3000"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),

		DBDriver:      strings.ToLower(getEnvWithDefault("DB_DRIVER", DriverPostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        getEnvWithDefault("DB_PORT", "5432"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),

		GatewayDriver:       strings.ToLower(getEnvWithDefault("GATEWAY_DRIVER", GatewayPartnerBot)),
		GatewayURL:          getEnvWithDefault("GATEWAY_URL", os.Getenv("URL")),
		GatewayToken:        os.Getenv("AUTH_TOKEN"),
		GatewayTimeout:      time.Duration(getEnvInt("GATEWAY_TIMEOUT_MS", 30000)) * time.Millisecond,
		TemplateNewSchedule: os.Getenv("TEMPLATE_NEW_SCHEDULE"),
		TemplateReminder:    os.Getenv("TEMPLATE_REMINDER"),

		TwilioAccountSID:         os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:          os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber:     os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		TwilioContentSIDWelcome:  os.Getenv("TWILIO_CONTENT_SID_WELCOME"),
		TwilioContentSIDReminder: os.Getenv("TWILIO_CONTENT_SID_REMINDER"),

		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL_MS", 10000)) * time.Millisecond,
		BatchSize:         getEnvInt("BATCH_SIZE", 20),
		TimeZone:          getEnvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		BusinessHourStart: getEnvInt("BUSINESS_HOUR_START", 8),
		BusinessHourEnd:   getEnvInt("BUSINESS_HOUR_END", 17),

		LogDir:   getEnvWithDefault("LOG_DIR", "logs"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("COMPANY_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid COMPANY_ID %q: %w", raw, err)
		}
		cfg.CompanyID = &id
	}

	return cfg, nil
}

// IsProduction reports whether console logging should be disabled
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves the reference time zone used for business hours and date windows.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// DSN returns DATABASE_URL, or a DSN assembled from the individual DB_* settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == DriverSQLite {
		return c.DBName
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// Validate checks that every setting needed by the selected drivers is present
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" && (c.DBHost == "" || c.DBUser == "" || c.DBName == "") {
			errs = append(errs, errors.New("DATABASE_URL or DB_HOST, DB_USER and DB_NAME are required"))
		}
	case DriverSQLite:
		if c.DSN() == "" {
			errs = append(errs, errors.New("DATABASE_URL or DB_NAME is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	switch c.GatewayDriver {
	case GatewayPartnerBot:
		if c.GatewayURL == "" {
			errs = append(errs, errors.New("GATEWAY_URL is required"))
		}
		if c.GatewayToken == "" {
			errs = append(errs, errors.New("AUTH_TOKEN is required"))
		}
		if c.TemplateNewSchedule == "" || c.TemplateReminder == "" {
			errs = append(errs, errors.New("TEMPLATE_NEW_SCHEDULE and TEMPLATE_REMINDER are required"))
		}
	case GatewayTwilio:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioWhatsAppNumber == "" {
			errs = append(errs, errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER are required"))
		}
		if c.TwilioContentSIDWelcome == "" || c.TwilioContentSIDReminder == "" {
			errs = append(errs, errors.New("TWILIO_CONTENT_SID_WELCOME and TWILIO_CONTENT_SID_REMINDER are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GATEWAY_DRIVER %q", c.GatewayDriver))
	}

	if c.GatewayTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT_MS must be positive"))
	}
	// the cron timer has one second resolution
	if c.PollInterval < minPollInterval {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL_MS must be at least %d", minPollInterval.Milliseconds()))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, errors.New("BATCH_SIZE must be positive"))
	}
	if c.BusinessHourStart < 0 || c.BusinessHourEnd > 24 || c.BusinessHourStart >= c.BusinessHourEnd {
		errs = append(errs, fmt.Errorf("invalid business hours [%d, %d)", c.BusinessHourStart, c.BusinessHourEnd))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err))
	}

	return errors.Join(errs...)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logger.Warn("Ignoring non-numeric environment value, using default", zap.String("key", key))
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
