package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"APP_NAME", "APP_ENVIRONMENT", "APP_DEBUG",
		"SERVER_HOST", "SERVER_PORT",
		"DATABASE_HOST", "DATABASE_PORT", "DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_DBNAME",
		"REDIS_HOST", "REDIS_PORT", "REDIS_ENABLED",
		"JWT_SECRET",
		"BOOKING_PENDING_TTL", "BOOKING_MAX_LINE_ITEMS",
		"EXPIRY_SCAN_INTERVAL", "EXPIRY_BATCH_SIZE",
		"NOTIFY_WEBHOOK_URL", "UPLOAD_DIR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "event-management-api" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "event-management-api")
	}
	if cfg.App.Environment != "development" {
		t.Errorf("App.Environment = %q, want %q", cfg.App.Environment, "development")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want %d", cfg.Redis.Port, 6379)
	}
	if cfg.Booking.PendingTTL != 2*time.Hour {
		t.Errorf("Booking.PendingTTL = %v, want %v", cfg.Booking.PendingTTL, 2*time.Hour)
	}
	if cfg.Booking.MaxLineItems != 2 {
		t.Errorf("Booking.MaxLineItems = %d, want %d", cfg.Booking.MaxLineItems, 2)
	}
	if cfg.Expiry.ScanInterval != 5*time.Second {
		t.Errorf("Expiry.ScanInterval = %v, want %v", cfg.Expiry.ScanInterval, 5*time.Second)
	}
	if cfg.Expiry.BatchSize != 100 {
		t.Errorf("Expiry.BatchSize = %d, want %d", cfg.Expiry.BatchSize, 100)
	}
	if cfg.Notify.WebhookURL != "" {
		t.Errorf("Notify.WebhookURL = %q, want empty", cfg.Notify.WebhookURL)
	}
}

func TestLoad_WithEnvOverride(t *testing.T) {
	clearEnv(t)
	os.Setenv("APP_NAME", "test-app")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("DATABASE_HOST", "db.example.com")
	os.Setenv("BOOKING_PENDING_TTL", "30m")
	os.Setenv("BOOKING_MAX_LINE_ITEMS", "5")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "test-app")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.example.com")
	}
	if cfg.Booking.PendingTTL != 30*time.Minute {
		t.Errorf("Booking.PendingTTL = %v, want %v", cfg.Booking.PendingTTL, 30*time.Minute)
	}
	if cfg.Booking.MaxLineItems != 5 {
		t.Errorf("Booking.MaxLineItems = %d, want %d", cfg.Booking.MaxLineItems, 5)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass",
		DBName:   "events",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=user password=pass dbname=events sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"default secret in production", func(c *Config) { c.App.Environment = "production" }, true},
		{"zero pending ttl", func(c *Config) { c.Booking.PendingTTL = 0 }, true},
		{"zero max line items", func(c *Config) { c.Booking.MaxLineItems = 0 }, true},
		{"zero scan interval", func(c *Config) { c.Expiry.ScanInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
