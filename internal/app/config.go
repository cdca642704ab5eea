package app

import (
	"os"
	"strings"

	"github.com/cratey/cratey/internal/adapters/email"
	"github.com/cratey/cratey/internal/usecase"
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     string
	BaseURL  string
	DSN      string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	SMTP email.SMTPConfig

	RedisURL        string
	AdminAPIKey     string
	SecretKey       string
	MissingProducts usecase.MissingProductPolicy
	SeedDemo        bool
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// LoadConfig reads the process environment. Callers load .env first.
func LoadConfig() Config {
	return Config{
		AppEnv:              strings.ToLower(getenv("APP_ENV", "development")),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		Port:                getenv("PORT", "8080"),
		BaseURL:             strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),
		DSN:                 DSNFromEnv(),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getenv("CURRENCY", "usd")),
		SMTP: email.SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: getenv("SMTP_PORT", "587"),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: getenv("MAIL_FROM", "CRATEY <hello@cratey.com>"),
		},
		RedisURL:        os.Getenv("REDIS_URL"),
		AdminAPIKey:     os.Getenv("ADMIN_API_KEY"),
		SecretKey:       os.Getenv("SECRET_KEY"),
		MissingProducts: usecase.ParseMissingProductPolicy(os.Getenv("FULFILL_MISSING_PRODUCT")),
		SeedDemo:        getenv("SEED_DEMO", "false") == "true",
	}
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// DSNFromEnv returns DB_DSN or builds one from the DB_* parts.
func DSNFromEnv() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := getenv("DB_USER", getenv("POSTGRES_USER", "postgres"))
	pass := getenv("DB_PASSWORD", getenv("POSTGRES_PASSWORD", "postgres"))
	name := getenv("DB_NAME", getenv("POSTGRES_DB", "cratey"))
	ssl := getenv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}
