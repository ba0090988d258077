package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// configKeys are cleared before each Load so the host environment does not leak in.
var configKeys = []string{
	"HTTP_ADDR", "DATABASE_URL", "APP_ENV", "LOG_LEVEL", "REDIS_URL", "LIST_CACHE_TTL",
	"KAFKA_BROKERS", "LEAD_EVENTS_TOPIC", "KAFKA_GROUP_ID", "LOKI_URL",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME",
	"ADMIN_PASSWORD_HASH", "ADMIN_JWT_PRIVATE_KEY", "ADMIN_JWT_PUBLIC_KEY",
	"ADMIN_JWT_ISSUER", "ADMIN_JWT_AUDIENCE", "ADMIN_TOKEN_TTL", "BCRYPT_COST",
	"CSRF_KEY", "EXPORT_PATH",
}

// cleanEnv unsets every config key and moves into an empty dir so no .env is read.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checks := map[string][2]string{
		"HTTPAddr":         {cfg.HTTPAddr, ":8080"},
		"LogLevel":         {cfg.LogLevel, "info"},
		"ListCacheTTL":     {cfg.ListCacheTTL, "60s"},
		"LeadEventsTopic":  {cfg.LeadEventsTopic, "lead-events"},
		"KafkaGroupID":     {cfg.KafkaGroupID, "lead-events-worker"},
		"ServiceName":      {cfg.ServiceName, "lead-capture"},
		"AdminJWTIssuer":   {cfg.AdminJWTIssuer, "lead-capture"},
		"AdminJWTAudience": {cfg.AdminJWTAudience, "lead-capture-admin"},
		"AdminTokenTTL":    {cfg.AdminTokenTTL, "8h"},
		"ExportPath":       {cfg.ExportPath, "leads_exported.xlsx"},
		"DatabaseURL":      {cfg.DatabaseURL, ""},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to false")
	}
	if cfg.IsProduction() {
		t.Error("empty APP_ENV is not production")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	cleanEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ADMIN_JWT_ISSUER", "custom-issuer")
	t.Setenv("BCRYPT_COST", "14")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.AdminJWTIssuer != "custom-issuer" {
		t.Errorf("AdminJWTIssuer = %q, want %q", cfg.AdminJWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if !cfg.OTLPInsecure {
		t.Error("OTLPInsecure should be true")
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	cleanEnv(t)
	env := "HTTP_ADDR=:7777\nDATABASE_URL=sqlite://leads.db\nLEAD_EVENTS_TOPIC=from-file\n"
	if err := os.WriteFile(filepath.Join(".", ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("LEAD_EVENTS_TOPIC", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7777" || cfg.DatabaseURL != "sqlite://leads.db" {
		t.Errorf(".env values not applied: %+v", cfg)
	}
	if cfg.LeadEventsTopic != "from-env" {
		t.Errorf("LeadEventsTopic = %q, env should override .env", cfg.LeadEventsTopic)
	}
}

func TestLoad_BcryptCostRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false}, // Should default to 12
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_Production(t *testing.T) {
	key := strings.Repeat("k", 32)
	testCases := []struct {
		name    string
		hash    string
		csrf    string
		wantErr string
	}{
		{"missing hash", "", key, "ADMIN_PASSWORD_HASH"},
		{"missing csrf key", "$2a$12$hash", "", "CSRF_KEY"},
		{"short csrf key", "$2a$12$hash", "short", "CSRF_KEY"},
		{"complete", "$2a$12$hash", key, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("APP_ENV", "production")
			t.Setenv("ADMIN_PASSWORD_HASH", tc.hash)
			t.Setenv("CSRF_KEY", tc.csrf)

			cfg, err := Load()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Load: %v", err)
				}
				if !cfg.IsProduction() {
					t.Error("IsProduction should be true")
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Load error = %v, want mention of %s", err, tc.wantErr)
			}
			if cfg != nil {
				t.Error("Load should return nil config on error")
			}
		})
	}
}

func TestCSRFKeyBytes(t *testing.T) {
	raw := strings.Repeat("a", 32)
	hexKey := strings.Repeat("ab", 32)
	testCases := []struct {
		name    string
		key     string
		wantLen int
		wantErr bool
	}{
		{"unset", "", 0, false},
		{"raw", raw, 32, false},
		{"hex", hexKey, 32, false},
		{"bad hex", strings.Repeat("zz", 32), 0, true},
		{"wrong length", "0123456789", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := (&Config{CSRFKey: tc.key}).CSRFKeyBytes()
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if len(b) != tc.wantLen {
				t.Errorf("len = %d, want %d", len(b), tc.wantLen)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	testCases := []struct {
		value     string
		wantCache time.Duration
		wantToken time.Duration
	}{
		{"30s", 30 * time.Second, 30 * time.Second},
		{"", 60 * time.Second, 8 * time.Hour},
		{"invalid", 60 * time.Second, 8 * time.Hour},
		{"0s", 60 * time.Second, 8 * time.Hour},
		{"-5m", 60 * time.Second, 8 * time.Hour},
	}
	for _, tc := range testCases {
		cfg := &Config{ListCacheTTL: tc.value, AdminTokenTTL: tc.value}
		if got := cfg.ListCacheDuration(); got != tc.wantCache {
			t.Errorf("ListCacheDuration(%q) = %v, want %v", tc.value, got, tc.wantCache)
		}
		if got := cfg.AdminTokenDuration(); got != tc.wantToken {
			t.Errorf("AdminTokenDuration(%q) = %v, want %v", tc.value, got, tc.wantToken)
		}
	}
}

func TestKafkaBrokersList(t *testing.T) {
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should give nil list")
	}
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}
}
