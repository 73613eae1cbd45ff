package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/ledger/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/ledger.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"EUR", "USD"}, cfg.Ledger.Currencies)
	assert.False(t, cfg.Ledger.RequireCategory)
	assert.Equal(t, "ledger", cfg.AMQP.Exchange)
	assert.Empty(t, cfg.AMQP.URL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEDGER_SERVER_PORT", "9090")
	t.Setenv("LEDGER_LEDGER_CURRENCIES", "eur, chf")
	t.Setenv("LEDGER_LEDGER_REQUIRE_CATEGORY", "true")
	t.Setenv("LEDGER_AUTH_TOKEN_TTL", "90m")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"EUR", "CHF"}, cfg.Ledger.Currencies)
	assert.True(t, cfg.Ledger.RequireCategory)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)

	rules := cfg.LedgerRules()
	assert.True(t, rules.Currencies.Contains(models.Currency("CHF")))
	assert.False(t, rules.Currencies.Contains(models.Currency("USD")))
	assert.True(t, rules.RequireCategory)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	content := `
server:
  port: 7000
database:
  path: /tmp/ledger-test.db
ledger:
  currencies: [EUR]
  reconcile_workers: 8
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/tmp/ledger-test.db", cfg.Database.Path)
	assert.Equal(t, []string{"EUR"}, cfg.Ledger.Currencies)
	assert.Equal(t, 8, cfg.Ledger.ReconcileWorkers)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "ledger.db"},
			Auth:     AuthConfig{TokenTTL: time.Hour},
			Ledger:   LedgerConfig{Currencies: []string{"EUR"}, ReconcileWorkers: 1},
			Log:      LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"empty path", func(c *Config) { c.Database.Path = "" }, "database path"},
		{"no currencies", func(c *Config) { c.Ledger.Currencies = nil }, "at least one currency"},
		{"bad currency", func(c *Config) { c.Ledger.Currencies = []string{"EURO"} }, "invalid currency code"},
		{"bad amqp scheme", func(c *Config) { c.AMQP.URL = "http://broker"; c.AMQP.Exchange = "x" }, "AMQP URL scheme"},
		{"amqp without exchange", func(c *Config) { c.AMQP.URL = "amqp://broker" }, "exchange name"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "invalid log level"},
		{"zero workers", func(c *Config) { c.Ledger.ReconcileWorkers = 0 }, "reconcile workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	c := &Config{Log: LogConfig{Level: "info", Format: "xml"}}
	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{"invalid port", "database path", "token ttl", "log format"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")), "a missing file is not an error")

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LEDGER_TEST_DOTENV") })
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("LEDGER_TEST_DOTENV"))
}
