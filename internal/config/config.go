package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	JWTExpiryHours     int
	AppEnv             string
	LogLevel           string
	PracticeTimezone   string
	Location           *time.Location
	TrashRetentionDays int
	PurgeCron          string
	DispatchCron       string
	DispatchBatchSize  int
	MeetingAPIURL      string
	MeetingAPIKey      string
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioPhoneNumber  string
	AMQPUrl            string
	AuditExchange      string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Logger.Info("No .env file found")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	timezone := getEnv("PRACTICE_TIMEZONE", "UTC")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid PRACTICE_TIMEZONE %q: %w", timezone, err)
	}

	retention := getEnvInt("TRASH_RETENTION_DAYS", 30)
	if retention <= 0 {
		return nil, fmt.Errorf("TRASH_RETENTION_DAYS must be positive")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		JWTExpiryHours:     getEnvInt("JWT_EXPIRY_HOURS", 24),
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		PracticeTimezone:   timezone,
		Location:           location,
		TrashRetentionDays: retention,
		PurgeCron:          getEnv("PURGE_CRON", "0 3 * * *"),
		DispatchCron:       getEnv("DISPATCH_CRON", "@every 1m"),
		DispatchBatchSize:  getEnvInt("DISPATCH_BATCH_SIZE", 100),
		MeetingAPIURL:      getEnv("MEETING_API_URL", ""),
		MeetingAPIKey:      getEnv("MEETING_API_KEY", ""),
		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber:  getEnv("TWILIO_PHONE_NUMBER", ""),
		AMQPUrl:            getEnv("AMQP_URL", ""),
		AuditExchange:      getEnv("AUDIT_EXCHANGE", "practice.audit"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) SMSConfigured() bool {
	return c != nil && c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func (c *Config) MeetingConfigured() bool {
	return c != nil && c.MeetingAPIURL != ""
}
