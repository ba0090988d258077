// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvProduction is the APP_ENV value that turns on the production checks.
const EnvProduction = "production"

// Fallbacks used by the TTL helpers when the configured value is unset or invalid.
const (
	defaultListCacheTTL  = 60 * time.Second
	defaultAdminTokenTTL = 8 * time.Hour
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the lead store DSN: postgres://... for Postgres, sqlite://path for a local file.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// RedisURL enables the lead listing cache when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// ListCacheTTL is how long a cached lead listing is served (e.g. "60s").
	ListCacheTTL string `mapstructure:"LIST_CACHE_TTL"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. When set, lead events go to Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// LeadEventsTopic is the Kafka topic for lead events.
	LeadEventsTopic string `mapstructure:"LEAD_EVENTS_TOPIC"`
	// KafkaGroupID is the consumer group ID for the event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// Worker-only: Loki URL the event worker pushes to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OTLP gRPC collector; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// AdminPasswordHash is the bcrypt hash of the admin password. Empty leaves admin routes open (non-production only).
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`
	// AdminJWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; empty means an ephemeral key.
	AdminJWTPrivateKey string `mapstructure:"ADMIN_JWT_PRIVATE_KEY"`
	// AdminJWTPublicKey is the PEM-encoded public key or path to file; used with ADMIN_JWT_PRIVATE_KEY.
	AdminJWTPublicKey string `mapstructure:"ADMIN_JWT_PUBLIC_KEY"`
	// AdminJWTIssuer is the iss claim of admin tokens.
	AdminJWTIssuer string `mapstructure:"ADMIN_JWT_ISSUER"`
	// AdminJWTAudience is the aud claim of admin tokens.
	AdminJWTAudience string `mapstructure:"ADMIN_JWT_AUDIENCE"`
	// AdminTokenTTL is the admin session lifetime (e.g. "8h").
	AdminTokenTTL string `mapstructure:"ADMIN_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12. Used by cmd/seed to hash a password.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// CSRFKey authenticates landing page form tokens: 32 raw bytes or 64 hex characters.
	CSRFKey string `mapstructure:"CSRF_KEY"`

	// ExportPath is the default output file of the export command.
	ExportPath string `mapstructure:"EXPORT_PATH"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LIST_CACHE_TTL", "60s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("LEAD_EVENTS_TOPIC", "lead-events")
	v.SetDefault("KAFKA_GROUP_ID", "lead-events-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "lead-capture")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_JWT_PRIVATE_KEY", "")
	v.SetDefault("ADMIN_JWT_PUBLIC_KEY", "")
	v.SetDefault("ADMIN_JWT_ISSUER", "lead-capture")
	v.SetDefault("ADMIN_JWT_AUDIENCE", "lead-capture-admin")
	v.SetDefault("ADMIN_TOKEN_TTL", "8h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("CSRF_KEY", "")
	v.SetDefault("EXPORT_PATH", "leads_exported.xlsx")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			return err
		}
	}
	if c.IsProduction() {
		if c.AdminPasswordHash == "" {
			return errors.New("config: ADMIN_PASSWORD_HASH must be set when APP_ENV=production")
		}
		if c.CSRFKey == "" {
			return errors.New("config: CSRF_KEY must be set when APP_ENV=production")
		}
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), EnvProduction)
}

// CSRFKeyBytes decodes CSRFKey: 32 raw bytes, or 64 hex characters. Returns nil, nil when unset.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	k := strings.TrimSpace(c.CSRFKey)
	switch {
	case k == "":
		return nil, nil
	case len(k) == 32:
		return []byte(k), nil
	case len(k) == 64:
		b, err := hex.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("config: CSRF_KEY is not valid hex: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("config: CSRF_KEY must be 32 bytes or 64 hex characters")
	}
}

// ListCacheDuration parses ListCacheTTL as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) ListCacheDuration() time.Duration {
	return parseTTL(c.ListCacheTTL, defaultListCacheTTL)
}

// AdminTokenDuration parses AdminTokenTTL as a time.Duration. Returns 8h if unset or invalid.
func (c *Config) AdminTokenDuration() time.Duration {
	return parseTTL(c.AdminTokenTTL, defaultAdminTokenTTL)
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if lead events go to Kafka (non-empty list) and to create the producer and worker reader.
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
