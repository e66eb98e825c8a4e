package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App       AppSettings
	HTTP      HTTPSettings
	Auth      AuthSettings
	Log       LogSettings
	Database  DatabaseSettings
	Lookup    DatabaseSettings
	Audit     AuditSettings
	SaludPlus SaludPlusSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration // Context deadline of JSON endpoints
	DownloadTimeout time.Duration // Context deadline of the PDF endpoint
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

// DatabaseSettings describes one PostgreSQL connection. An empty Host leaves
// the connection disabled.
type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Configured reports whether the connection should be attempted.
func (d DatabaseSettings) Configured() bool {
	return d.Host != "" && d.Database != ""
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

type SaludPlusSettings struct {
	BaseURL             string
	Cookie              string        // Session used when the caller sends none
	APITimeout          time.Duration // Per-call timeout of the shared HTTP client
	NumberingTimeout    time.Duration
	RateLimitRPS        int // 0 disables pacing
	MaxConnsPerHost     int
	LegacySearchEnabled bool
	LegacySearchTimeout time.Duration
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_saludplus_facturas"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
			RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
			DownloadTimeout: getEnvAsDuration("HTTP_DOWNLOAD_TIMEOUT", 80*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: loadDatabase("DB", "ms_saludplus_facturas"),
		Lookup:   loadDatabase("LOOKUP_DB", "saludplus"),
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", true),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", true),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
		SaludPlus: SaludPlusSettings{
			BaseURL:             strings.TrimRight(strings.TrimSpace(getEnv("SALUDPLUS_BASE_URL", "https://balance.saludplus.co")), "/"),
			Cookie:              strings.TrimSpace(os.Getenv("SALUDPLUS_COOKIE")),
			APITimeout:          getEnvAsDuration("SALUDPLUS_API_TIMEOUT", 60*time.Second),
			NumberingTimeout:    getEnvAsDuration("SALUDPLUS_NUMBERING_TIMEOUT", 10*time.Second),
			RateLimitRPS:        getEnvAsInt("SALUDPLUS_RATE_LIMIT_RPS", 0),
			MaxConnsPerHost:     getEnvAsInt("SALUDPLUS_MAX_CONNS_PER_HOST", 20),
			LegacySearchEnabled: getEnvAsBool("SALUDPLUS_LEGACY_SEARCH_ENABLED", true),
			LegacySearchTimeout: getEnvAsDuration("SALUDPLUS_LEGACY_SEARCH_TIMEOUT", 8*time.Second),
		},
	}

	if cfg.SaludPlus.BaseURL == "" {
		return cfg, errors.New("invalid config: SALUDPLUS_BASE_URL cannot be empty")
	}
	if cfg.SaludPlus.RateLimitRPS < 0 {
		return cfg, errors.New("invalid config: SALUDPLUS_RATE_LIMIT_RPS cannot be negative")
	}
	if cfg.SaludPlus.MaxConnsPerHost <= 0 {
		return cfg, errors.New("invalid config: SALUDPLUS_MAX_CONNS_PER_HOST must be greater than 0")
	}
	if cfg.SaludPlus.NumberingTimeout <= 0 || cfg.SaludPlus.LegacySearchTimeout <= 0 {
		return cfg, errors.New("invalid config: SaludPlus timeouts must be positive")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// loadDatabase reads <prefix>_HOST, <prefix>_PORT and friends.
func loadDatabase(prefix, defaultName string) DatabaseSettings {
	return DatabaseSettings{
		Host:            strings.TrimSpace(os.Getenv(prefix + "_HOST")),
		Port:            getEnvAsInt(prefix+"_PORT", 5432),
		Database:        getEnv(prefix+"_NAME", defaultName),
		User:            getEnv(prefix+"_USER", "postgres"),
		Password:        getEnv(prefix+"_PASSWORD", ""),
		SSLMode:         getEnv(prefix+"_SSL_MODE", "disable"),
		MaxOpenConns:    getEnvAsInt(prefix+"_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt(prefix+"_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration(prefix+"_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
