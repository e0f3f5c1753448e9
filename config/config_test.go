package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults applied",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost/db"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverPostgres, cfg.DBDriver)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.True(t, cfg.AutoMigrate)
				assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
				assert.False(t, cfg.Export.Enabled())
			},
		},
		{
			name: "empty values fall back to defaults",
			env: map[string]string{
				"DATABASE_URL":         "postgres://localhost/db",
				"SERVER_PORT":          "",
				"DB_DRIVER":            "",
				"CORS_ALLOWED_ORIGINS": "",
				"AUTO_MIGRATE":         "",
				"DB_CONNECT_TIMEOUT":   "",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverPostgres, cfg.DBDriver)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
				assert.True(t, cfg.AutoMigrate)
				assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
			},
		},
		{
			name:    "missing database url",
			env:     map[string]string{},
			wantErr: ErrDatabaseURLMissing,
		},
		{
			name: "unknown driver",
			env: map[string]string{
				"DATABASE_URL": "x",
				"DB_DRIVER":    "oracle",
			},
			wantErr: ErrUnknownDriver,
		},
		{
			name: "sqlite driver and origins list",
			env: map[string]string{
				"DATABASE_URL":         "file:dev.db",
				"DB_DRIVER":            "sqlite",
				"CORS_ALLOWED_ORIGINS": "http://a.test,http://b.test",
				"SERVER_PORT":          "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverSQLite, cfg.DBDriver)
				assert.Equal(t, 9000, cfg.ServerPort)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DATABASE_URL", "DB_DRIVER", "SERVER_PORT", "CORS_ALLOWED_ORIGINS",
				"JWT_SECRET_KEY", "AUTO_MIGRATE", "DB_CONNECT_TIMEOUT"} {
				unsetenv(t, key)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestRequireJWT(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.RequireJWT(), ErrJWTSecretMissing)

	cfg.JWTSecretKey = "secret"
	assert.NoError(t, cfg.RequireJWT())
}

// unsetenv removes key for the duration of the test. t.Setenv registers the
// restore of the previous value.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
