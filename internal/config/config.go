// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the public HTTP API listens on (e.g. :8081).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the session token lifetime (e.g. "2h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// PublicURL is the externally reachable base URL used in confirmation links.
	PublicURL string `mapstructure:"PUBLIC_URL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	SMTPTLS      bool   `mapstructure:"SMTP_TLS"`
	// SMTPDisable routes confirmation emails to the log instead of an SMTP relay.
	SMTPDisable bool `mapstructure:"SMTP_DISABLE"`

	// PsupIDPattern seeds the identifierpattern plugin setting at install.
	PsupIDPattern string `mapstructure:"PSUP_ID_PATTERN"`
	// PsupCurrentSession seeds the currentsession plugin setting; empty means the current year.
	PsupCurrentSession string `mapstructure:"PSUP_CURRENT_SESSION"`
	// PsupDefaultRoleID seeds the defaultroleid plugin setting; 0 means no default role.
	PsupDefaultRoleID int64 `mapstructure:"PSUP_DEFAULT_ROLE_ID"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	// When empty, rollover jobs run in process and events are not published.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// RolloverKafkaTopic carries session rollover jobs to the worker.
	RolloverKafkaTopic string `mapstructure:"ROLLOVER_KAFKA_TOPIC"`
	// EventsKafkaTopic receives user_created / user_loggedin events.
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the rollover worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// RedisAddr enables the distributed rollover lock when set.
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8081")
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "psup-auth")
	v.SetDefault("JWT_AUDIENCE", "psup-platform")
	v.SetDefault("JWT_ACCESS_TTL", "2h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PUBLIC_URL", "http://localhost:8081")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 25)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@localhost")
	v.SetDefault("SMTP_TLS", false)
	v.SetDefault("SMTP_DISABLE", false)
	v.SetDefault("PSUP_ID_PATTERN", "/^[0-9]{6,8}$/")
	v.SetDefault("PSUP_CURRENT_SESSION", "")
	v.SetDefault("PSUP_DEFAULT_ROLE_ID", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ROLLOVER_KAFKA_TOPIC", "psup-rollover")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "psup-events")
	v.SetDefault("KAFKA_GROUP_ID", "psup-rollover-worker")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.PsupDefaultRoleID < 0 {
		return nil, errors.New("config: PSUP_DEFAULT_ROLE_ID must not be negative")
	}

	if !cfg.SMTPDisable && cfg.SMTPHost == "" && cfg.Env == "production" {
		return nil, errors.New("config: SMTP_HOST must be set when APP_ENV=production")
	}

	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 2h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if Kafka is enabled (non-empty list) and to create producers and readers.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MailEnabled reports whether confirmation emails go to an SMTP relay.
func (c *Config) MailEnabled() bool {
	return c != nil && !c.SMTPDisable && c.SMTPHost != ""
}
