package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port           string   `yaml:"port" env:"SERVER_PORT"`
		Mode           string   `yaml:"mode" env:"SERVER_MODE"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
		CookieSecure   bool     `yaml:"cookie_secure" env:"SERVER_COOKIE_SECURE"`
		MigrationsDir  string   `yaml:"migrations_dir" env:"SERVER_MIGRATIONS_DIR"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret            string `yaml:"secret" env:"JWT_SECRET"`
		SessionExpiration string `yaml:"session_expiration" env:"JWT_SESSION_EXPIRATION"`
		Issuer            string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Admin struct {
		Email        string `yaml:"email" env:"ADMIN_EMAIL"`
		PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
		// Password is accepted only outside production, for local setups
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	} `yaml:"admin"`

	Catalog struct {
		Source string   `yaml:"source" env:"CATALOG_SOURCE"`
		URLs   []string `yaml:"urls" env:"CATALOG_URLS"`
		Format string   `yaml:"format" env:"CATALOG_FORMAT"`
		TTL    string   `yaml:"ttl" env:"CATALOG_TTL"`
	} `yaml:"catalog"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	Mail struct {
		APIKey     string `yaml:"api_key" env:"MAIL_API_KEY"`
		BaseURL    string `yaml:"base_url" env:"MAIL_BASE_URL"`
		From       string `yaml:"from" env:"MAIL_FROM"`
		ReplyTo    string `yaml:"reply_to" env:"MAIL_REPLY_TO"`
		AdminInbox string `yaml:"admin_inbox" env:"MAIL_ADMIN_INBOX"`
		PortalURL  string `yaml:"portal_url" env:"MAIL_PORTAL_URL"`
	} `yaml:"mail"`

	RateLimit struct {
		Enabled      bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		LoginMax     int    `yaml:"login_max" env:"RATE_LIMIT_LOGIN_MAX"`
		LoginWindow  string `yaml:"login_window" env:"RATE_LIMIT_LOGIN_WINDOW"`
		SubmitMax    int    `yaml:"submit_max" env:"RATE_LIMIT_SUBMIT_MAX"`
		SubmitWindow string `yaml:"submit_window" env:"RATE_LIMIT_SUBMIT_WINDOW"`
		DraftMax     int    `yaml:"draft_max" env:"RATE_LIMIT_DRAFT_MAX"`
		DraftWindow  string `yaml:"draft_window" env:"RATE_LIMIT_DRAFT_WINDOW"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled" env:"OTEL_ENABLED"`
		ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
		Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		Insecure    bool    `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE"`
		SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLER_RATIO"`
	} `yaml:"tracing"`
}

// Catalog source kinds
const (
	CatalogSourceStatic      = "static"
	CatalogSourceSpreadsheet = "spreadsheet"
)

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.AllowedOrigins = []string{"http://localhost:3000"}
	config.Server.MigrationsDir = "migrations"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "exchange_intake"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.SessionExpiration = "24h"
	config.JWT.Issuer = "exchange-intake"

	config.Catalog.Source = CatalogSourceStatic
	config.Catalog.Format = "auto"
	config.Catalog.TTL = "60s"

	config.Redis.Addr = "localhost:6379"

	config.Mail.BaseURL = "https://api.resend.com"

	config.RateLimit.Enabled = true
	config.RateLimit.LoginMax = 5
	config.RateLimit.LoginWindow = "15m"
	config.RateLimit.SubmitMax = 10
	config.RateLimit.SubmitWindow = "1h"
	config.RateLimit.DraftMax = 30
	config.RateLimit.DraftWindow = "1h"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Tracing.ServiceName = "exchange-intake"
	config.Tracing.SampleRatio = 0.1
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Admin.Email == "" {
		return fmt.Errorf("admin email is required")
	}
	if config.Admin.PasswordHash == "" && config.Admin.Password == "" {
		return fmt.Errorf("admin password hash is required")
	}
	if config.IsProduction() && config.Admin.PasswordHash == "" {
		return fmt.Errorf("admin password hash is required in production")
	}

	switch config.Catalog.Source {
	case CatalogSourceStatic:
	case CatalogSourceSpreadsheet:
		if len(config.Catalog.URLs) == 0 {
			return fmt.Errorf("catalog urls are required for the spreadsheet source")
		}
	default:
		return fmt.Errorf("unknown catalog source %q", config.Catalog.Source)
	}

	durations := map[string]string{
		"JWT session expiration":   config.JWT.SessionExpiration,
		"catalog ttl":              config.Catalog.TTL,
		"database conn lifetime":   config.Database.ConnMaxLifetime,
		"login rate limit window":  config.RateLimit.LoginWindow,
		"submit rate limit window": config.RateLimit.SubmitWindow,
		"draft rate limit window":  config.RateLimit.DraftWindow,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	if config.Tracing.SampleRatio < 0 || config.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing sample ratio must be between 0 and 1")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
