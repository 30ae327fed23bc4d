package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.StorageDriver)
	require.Equal(t, 0.5, cfg.DepreciationFactor)
	require.Equal(t, "INR", cfg.DefaultCurrency)
	require.Equal(t, 8080, cfg.HTTPPort)
	require.True(t, cfg.AutoMigrate)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  id: portal-test
  http_port: 8181
storage:
  driver: postgres
  postgres_url: postgres://file/db
  auto_migrate: false
dependencies:
  kafka_brokers: ["a:9092", " ", "b:9092"]
workers:
  outbox_poll_seconds: 7
  month_close_schedule: "0 1 1 * *"
commission:
  depreciation_factor: 0
  statement_cache_seconds: 30
http:
  rate_limit_rps: 5.5
`)
	t.Setenv("POSTGRES_URL", "postgres://env/db")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("DEFAULT_CURRENCY", "usd")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "portal-test", cfg.ServiceID)
	require.Equal(t, 8181, cfg.HTTPPort)
	require.Equal(t, DriverPostgres, cfg.StorageDriver)
	require.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	require.False(t, cfg.AutoMigrate)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 7*time.Second, cfg.OutboxPollInterval)
	require.Equal(t, "0 1 1 * *", cfg.MonthCloseSpec)
	require.Equal(t, 0.0, cfg.DepreciationFactor)
	require.Equal(t, 30*time.Second, cfg.StatementCacheTTL)
	require.Equal(t, 5.5, cfg.RateLimitRPS)
	require.Equal(t, 3, cfg.RateLimitBurst)
	require.Equal(t, "USD", cfg.DefaultCurrency)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("postgres needs url", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		_, err := LoadConfig("")
		require.ErrorContains(t, err, "DB_URL")
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := LoadConfig("")
		require.ErrorContains(t, err, "unknown storage driver")
	})
	t.Run("factor out of range", func(t *testing.T) {
		t.Setenv("RENEWAL_DEPRECIATION_FACTOR", "1.5")
		_, err := LoadConfig("")
		require.ErrorContains(t, err, "depreciation")
	})
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "service: [unterminated"))
		require.Error(t, err)
	})
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("PORTAL_INT", "nope")
	t.Setenv("PORTAL_FLOAT", "x")
	t.Setenv("PORTAL_BOOL", "maybe")
	require.Equal(t, 4, envInt("PORTAL_INT", 4))
	require.Equal(t, 0.25, envFloat("PORTAL_FLOAT", 0.25))
	require.True(t, envBool("PORTAL_BOOL", true))
	require.Equal(t, []string{"x"}, envCSV("PORTAL_UNSET_CSV", []string{"x"}))
}
