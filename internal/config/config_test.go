package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"APP_PORT", "CORS_ALLOWED_ORIGINS", "RECORD_STORE",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN",
	"WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION", "REPORT_RECIPIENT",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "GOOGLE_SHEET_SALES_RANGE",
	"REPORT_CRON_SCHEDULE", "TIMEZONE", "FORECAST_MODE", "REPORT_TOP_N",
	"REPORT_CACHE_TTL_SECONDS", "MONGODB_URI", "MONGODB_DB_NAME",
	"REDIS_ADDRESS", "METRICS_ENABLED", "LOG_LEVEL",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("backend = %q", cfg.Store.Backend)
	}
	if cfg.Reporting.ForecastMode != "window" || cfg.Reporting.TopN != 5 {
		t.Errorf("reporting = %+v", cfg.Reporting)
	}
	if cfg.Reporting.CacheTTL != 5*time.Minute {
		t.Errorf("cache ttl = %s", cfg.Reporting.CacheTTL)
	}
	if cfg.MongoDB.URI != "" || cfg.Redis.Address != "" {
		t.Errorf("optional backends should default to disabled: %+v %+v", cfg.MongoDB, cfg.Redis)
	}
	if cfg.WhatsApp.Enabled() {
		t.Error("whatsapp should be disabled without credentials")
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should default to enabled")
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"APP_PORT=9090",
		"CORS_ALLOWED_ORIGINS=http://a.test, http://b.test",
		"FORECAST_MODE=regression",
		"REPORT_TOP_N=3",
		"WHATSAPP_TOKEN=token",
		"WHATSAPP_PHONE_NUMBER_ID=123",
		"META_VERIFY_TOKEN=verify",
		"METRICS_ENABLED=false",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Reporting.ForecastMode != "regression" || cfg.Reporting.TopN != 3 {
		t.Errorf("reporting = %+v", cfg.Reporting)
	}
	if !cfg.WhatsApp.Enabled() || cfg.Metrics.Enabled {
		t.Errorf("unexpected toggles: whatsapp=%v metrics=%v", cfg.WhatsApp.Enabled(), cfg.Metrics.Enabled)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"REPORT_CRON_SCHEDULE", "every day", "REPORT_CRON_SCHEDULE"},
		{"TIMEZONE", "Mars/Olympus", "TIMEZONE"},
		{"FORECAST_MODE", "median", "FORECAST_MODE"},
		{"REPORT_TOP_N", "0", "REPORT_TOP_N"},
		{"REPORT_TOP_N", "five", "REPORT_TOP_N"},
		{"RECORD_STORE", "postgres", "RECORD_STORE"},
		{"RECORD_STORE", "sheets", "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{"METRICS_ENABLED", "maybe", "METRICS_ENABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(missingEnvFile(t))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestWhatsAppRequiresVerifyToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "123")

	_, err := Load(missingEnvFile(t))
	if err == nil || !strings.Contains(err.Error(), "META_VERIFY_TOKEN") {
		t.Fatalf("expected META_VERIFY_TOKEN error, got %v", err)
	}
}
