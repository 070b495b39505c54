package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPLITLEDGER_AUTH_SECRET", "s3cret")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, "sql", cfg.Revocation.Backend)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load(viper.New(), "")
	assert.True(t, errors.Is(err, ErrMissingSecret), "got %v", err)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
database:
  driver: pgx
  dsn: postgres://ledger@localhost/ledger
auth:
  secret: from-file
  access_ttl: 1m
revocation:
  backend: redis
`), 0o600))
	t.Setenv("SPLITLEDGER_AUTH_SECRET", "from-env")
	t.Setenv("SPLITLEDGER_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, "redis", cfg.Revocation.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	t.Setenv("SPLITLEDGER_AUTH_SECRET", "s3cret")
	t.Setenv("SPLITLEDGER_DATABASE_DRIVER", "oracle")

	_, err := Load(viper.New(), "")
	assert.Error(t, err)
}
