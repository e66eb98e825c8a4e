package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t,
		"APP_NAME", "APP_VERSION", "APP_ENV", "APP_PORT",
		"HTTP_WRITE_TIMEOUT", "HTTP_DOWNLOAD_TIMEOUT", "HTTP_REQUEST_TIMEOUT",
		"DB_HOST", "LOOKUP_DB_HOST", "LOOKUP_DB_NAME",
		"SALUDPLUS_BASE_URL", "SALUDPLUS_COOKIE", "SALUDPLUS_NUMBERING_TIMEOUT",
		"SALUDPLUS_RATE_LIMIT_RPS", "SALUDPLUS_MAX_CONNS_PER_HOST",
		"SALUDPLUS_LEGACY_SEARCH_ENABLED", "SALUDPLUS_LEGACY_SEARCH_TIMEOUT",
	)
	t.Setenv("AUTH_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "ms_saludplus_facturas" {
		t.Errorf("expected default app name 'ms_saludplus_facturas', got %q", cfg.App.Name)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.SaludPlus.BaseURL != "https://balance.saludplus.co" {
		t.Errorf("unexpected default base URL %q", cfg.SaludPlus.BaseURL)
	}
	if cfg.SaludPlus.NumberingTimeout != 10*time.Second {
		t.Errorf("expected numbering timeout 10s, got %v", cfg.SaludPlus.NumberingTimeout)
	}
	if cfg.SaludPlus.LegacySearchTimeout != 8*time.Second {
		t.Errorf("expected legacy search timeout 8s, got %v", cfg.SaludPlus.LegacySearchTimeout)
	}
	if !cfg.SaludPlus.LegacySearchEnabled {
		t.Error("expected legacy search enabled by default")
	}
	if cfg.SaludPlus.RateLimitRPS != 0 {
		t.Errorf("expected rate limiting disabled, got %d rps", cfg.SaludPlus.RateLimitRPS)
	}
	if cfg.Database.Configured() || cfg.Lookup.Configured() {
		t.Error("databases must be disabled without a host")
	}
	if cfg.Lookup.Database != "saludplus" {
		t.Errorf("unexpected lookup database name %q", cfg.Lookup.Database)
	}
}

func TestLoad_WithCustomValues(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SALUDPLUS_BASE_URL", "https://staging.saludplus.co/")
	t.Setenv("SALUDPLUS_COOKIE", " ASP.NET_SessionId=abc ")
	t.Setenv("SALUDPLUS_RATE_LIMIT_RPS", "5")
	t.Setenv("LOOKUP_DB_HOST", "replica")
	t.Setenv("LOOKUP_DB_PORT", "6543")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.SaludPlus.BaseURL != "https://staging.saludplus.co" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.SaludPlus.BaseURL)
	}
	if cfg.SaludPlus.Cookie != "ASP.NET_SessionId=abc" {
		t.Errorf("expected trimmed cookie, got %q", cfg.SaludPlus.Cookie)
	}
	if cfg.SaludPlus.RateLimitRPS != 5 {
		t.Errorf("expected 5 rps, got %d", cfg.SaludPlus.RateLimitRPS)
	}
	if !cfg.Lookup.Configured() || cfg.Lookup.Port != 6543 {
		t.Errorf("unexpected lookup settings %+v", cfg.Lookup)
	}
}

func TestLoad_InvalidSaludPlusSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"negative rate limit", "SALUDPLUS_RATE_LIMIT_RPS", "-1"},
		{"zero connections", "SALUDPLUS_MAX_CONNS_PER_HOST", "0"},
		{"zero numbering timeout", "SALUDPLUS_NUMBERING_TIMEOUT", "0s"},
		{"empty base url", "SALUDPLUS_BASE_URL", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_ENABLED", "false")
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_AuthEnabled_MissingIssuerURI(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_ISSUER_URI", "")
	t.Setenv("JWT_JWK_SET_URI", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_ISSUER_URI is missing")
	}
	if err.Error() != "invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_AuthEnabled_MissingJWKSetURI(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_ISSUER_URI", "https://issuer.example.com")
	t.Setenv("JWT_JWK_SET_URI", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_JWK_SET_URI is missing")
	}
	if err.Error() != "invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestHTTPSettings_Address(t *testing.T) {
	if addr := (HTTPSettings{Port: 8080}).Address(); addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", addr)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"FALSE value", "FALSE", true, false},
		{"invalid value", "invalid", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			if result := getEnvAsBool("TEST_BOOL", tt.fallback); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback int
		expected int
	}{
		{"valid int", "123", 0, 123},
		{"zero", "0", 999, 0},
		{"invalid value", "not-a-number", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.envValue)
			if result := getEnvAsInt("TEST_INT", tt.fallback); result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback time.Duration
		expected time.Duration
	}{
		{"valid duration", "10s", 0, 10 * time.Second},
		{"minutes", "5m", 0, 5 * time.Minute},
		{"invalid value", "not-a-duration", 30 * time.Second, 30 * time.Second},
		{"empty value", "", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)
			if result := getEnvAsDuration("TEST_DURATION", tt.fallback); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsCSV(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback []string
		expected []string
	}{
		{"multiple values", "value1,value2", []string{"default"}, []string{"value1", "value2"}},
		{"empty values filtered", "value1,, ,value2", []string{"default"}, []string{"value1", "value2"}},
		{"only spaces", " , , ", []string{"default"}, []string{"default"}},
		{"empty string", "", []string{"a", "b"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CSV", tt.envValue)

			result := getEnvAsCSV("TEST_CSV", tt.fallback)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d values, got %d", len(tt.expected), len(result))
			}
			for i, expected := range tt.expected {
				if result[i] != expected {
					t.Errorf("expected[%d] %q, got %q", i, expected, result[i])
				}
			}
		})
	}
}
