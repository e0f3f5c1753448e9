package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DBDriver         string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" env-default:"5s"`
	AutoMigrate      bool          `env:"AUTO_MIGRATE" env-default:"true"`
	JWTSecretKey     string        `env:"JWT_SECRET_KEY"`
	ServerPort       int           `env:"SERVER_PORT" env-default:"8080"`
	AllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	Export           ExportConfig
}

// ExportConfig describes the R2 bucket standings exports are written to.
// Export is disabled when any field is empty.
type ExportConfig struct {
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`
}

func (e ExportConfig) Enabled() bool {
	return e.R2AccountID != "" && e.R2AccessKeyID != "" && e.R2SecretAccessKey != "" &&
		e.R2BucketName != "" && e.R2PublicBaseURL != ""
}

var (
	ErrDatabaseURLMissing = errors.New("DATABASE_URL environment variable is not set")
	ErrJWTSecretMissing   = errors.New("JWT_SECRET_KEY environment variable is not set")
	ErrUnknownDriver      = errors.New("unknown DB_DRIVER")
)

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Отсутствие .env не считаем ошибкой.
	_ = godotenv.Load()

	var cfg Config
	// cleanenv берёт env-default только для отсутствующих переменных,
	// поэтому пустые строки из .env снимаем заранее.
	unsetEmpty(reflect.TypeOf(cfg))
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// unsetEmpty removes every env variable named by t's `env` tags that is set
// to an empty string.
func unsetEmpty(t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if key, ok := field.Tag.Lookup("env"); ok {
			if v, set := os.LookupEnv(key); set && v == "" {
				os.Unsetenv(key)
			}
			continue
		}
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			unsetEmpty(field.Type)
		}
	}
}

// Validate checks required settings. The JWT secret is checked separately by
// RequireJWT since only the HTTP server needs it.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLMissing
	}
	switch c.DBDriver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	return nil
}

// RequireJWT is checked by the serve command only.
func (c *Config) RequireJWT() error {
	if c.JWTSecretKey == "" {
		return ErrJWTSecretMissing
	}
	return nil
}
