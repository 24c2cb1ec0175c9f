package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv string
	Port   string

	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	AdminEmailDomain string

	MongoURI    string
	MongoDBName string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr string

	KafkaBroker        string
	KafkaGroupID       string
	OutboxPollInterval time.Duration
	ReconcileInterval  time.Duration

	RBACPolicyPath string

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	LeaveTimezone  string
	ConnectRetries int
}

func Load() *Config {
	return &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "3000"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		AccessTokenTTL:   getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		AdminEmailDomain: strings.ToLower(getEnv("ADMIN_EMAIL_DOMAIN", "admin.com")),

		MongoURI:    getEnv("MONGODB_URI", ""),
		MongoDBName: getEnv("MONGODB_NAME", "ems"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ems"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBroker:        getEnv("KAFKA_BROKER", ""),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "go-ems"),
		OutboxPollInterval: getDuration("OUTBOX_POLL_INTERVAL", 3*time.Second),
		ReconcileInterval:  getDuration("RECONCILE_INTERVAL", 10*time.Minute),

		RBACPolicyPath: getEnv("RBAC_POLICY_PATH", ""),

		MailHost: getEnv("MAIL_HOST", ""),
		MailPort: getInt("MAIL_PORT", 587),
		MailUser: getEnv("MAIL_USER", ""),
		MailPass: getEnv("MAIL_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", ""),

		LeaveTimezone:  getEnv("LEAVE_TIMEZONE", "UTC"),
		ConnectRetries: getInt("CONNECT_RETRIES", 5),
	}
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MongoURI == "" {
		return errors.New("MONGODB_URI is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves LEAVE_TIMEZONE, the zone in which "today" is computed
// for cancellation cut-offs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.LeaveTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
