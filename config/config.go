package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config is the service configuration. Secrets are only ever reported as
// "set" or "not set".
type Config struct {
	Port         string
	DataFile     string
	StoreBackend string
	DatabaseURL  string

	WebhookSecret      string
	StripeAPIKey       string
	SignatureTolerance time.Duration
	MaxBodyBytes       int64

	SendGridAPIKey  string
	NotifyFrom      string
	SlackWebhookURL string

	AdminJWTSecret string

	LogLevel string
	LogDev   bool

	Features Features
}

var envKeys = map[string]string{
	"port":                "PORT",
	"data_file":           "CUSTOMERS_FILE",
	"store_backend":       "STORE_BACKEND",
	"database_url":        "DATABASE_URL",
	"webhook_secret":      "STRIPE_WEBHOOK_SECRET",
	"stripe_api_key":      "STRIPE_SECRET_KEY",
	"signature_tolerance": "WEBHOOK_TOLERANCE",
	"max_body_bytes":      "WEBHOOK_MAX_BODY_BYTES",
	"sendgrid_api_key":    "SENDGRID_API_KEY",
	"notify_from":         "NOTIFY_FROM_EMAIL",
	"slack_webhook_url":   "SLACK_WEBHOOK_URL",
	"admin_jwt_secret":    "ADMIN_JWT_SECRET",
	"log_level":           "LOG_LEVEL",
	"log_dev":             "LOG_DEV",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("data_file", "customers.json")
	v.SetDefault("store_backend", BackendFile)
	v.SetDefault("signature_tolerance", time.Duration(0))
	v.SetDefault("max_body_bytes", int64(64<<10))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dev", false)

	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}
}

// Load reads the configuration from v. Flags bound by the CLI take
// precedence over the environment.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:               v.GetString("port"),
		DataFile:           v.GetString("data_file"),
		StoreBackend:       strings.ToLower(strings.TrimSpace(v.GetString("store_backend"))),
		DatabaseURL:        v.GetString("database_url"),
		WebhookSecret:      strings.TrimSpace(v.GetString("webhook_secret")),
		StripeAPIKey:       strings.TrimSpace(v.GetString("stripe_api_key")),
		SignatureTolerance: v.GetDuration("signature_tolerance"),
		MaxBodyBytes:       v.GetInt64("max_body_bytes"),
		SendGridAPIKey:     v.GetString("sendgrid_api_key"),
		NotifyFrom:         v.GetString("notify_from"),
		SlackWebhookURL:    v.GetString("slack_webhook_url"),
		AdminJWTSecret:     v.GetString("admin_jwt_secret"),
		LogLevel:           v.GetString("log_level"),
		LogDev:             v.GetBool("log_dev"),
		Features:           LoadFeatures(),
	}

	switch cfg.StoreBackend {
	case BackendFile:
		if cfg.DataFile == "" {
			return cfg, fmt.Errorf("data_file must be set for the %q backend", BackendFile)
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL environment variable not set")
		}
	default:
		return cfg, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.SignatureTolerance < 0 {
		return cfg, fmt.Errorf("signature tolerance must be non-negative")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, fmt.Errorf("max body bytes must be positive")
	}
	if cfg.Features.AdminAuthEnabled && cfg.AdminJWTSecret == "" {
		return cfg, fmt.Errorf("ADMIN_JWT_SECRET must be set when admin auth is enabled")
	}

	return cfg, nil
}
