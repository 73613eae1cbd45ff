// Package config loads server configuration from defaults, an optional
// YAML file, a .env file and LEDGER_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmynk/ledger/internal/ledger"
	"github.com/mmynk/ledger/internal/models"
)

// EnvPrefix namespaces every environment variable, e.g. LEDGER_SERVER_PORT.
const EnvPrefix = "LEDGER"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
	AMQP     AMQPConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type LedgerConfig struct {
	Currencies       []string
	RequireCategory  bool
	ReconcileWorkers int
}

// AMQPConfig enables balance notifications when URL is set.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

type LogConfig struct {
	Level  string
	Format string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "./data/ledger.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("ledger.currencies", []string{"EUR", "USD"})
	v.SetDefault("ledger.require_category", false)
	v.SetDefault("ledger.reconcile_workers", 4)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "ledger")
	v.SetDefault("amqp.routing_key", "balances.changed")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadDotEnv loads path into the process environment if it exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configFile (or ./ledger.yaml when empty and present) and the
// environment into v, and returns the validated configuration.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{Port: v.GetInt("server.port")},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Ledger: LedgerConfig{
			Currencies:       stringList(v.Get("ledger.currencies")),
			RequireCategory:  v.GetBool("ledger.require_category"),
			ReconcileWorkers: v.GetInt("ledger.reconcile_workers"),
		},
		AMQP: AMQPConfig{
			URL:        v.GetString("amqp.url"),
			Exchange:   v.GetString("amqp.exchange"),
			RoutingKey: v.GetString("amqp.routing_key"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringList accepts a YAML list or a comma separated string such as
// LEDGER_LEDGER_CURRENCIES=EUR,USD.
func stringList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate returns every problem found, not only the first.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}

	if c.Database.Path == "" {
		problems = append(problems, "database path cannot be empty")
	}

	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token ttl %v: must be positive", c.Auth.TokenTTL))
	}

	if len(c.Ledger.Currencies) == 0 {
		problems = append(problems, "at least one currency must be configured")
	}
	for _, code := range c.Ledger.Currencies {
		if len(code) != 3 {
			problems = append(problems, fmt.Sprintf("invalid currency code '%s': must be three letters", code))
		}
	}
	if c.Ledger.ReconcileWorkers < 1 {
		problems = append(problems, fmt.Sprintf("invalid reconcile workers %d: must be at least 1", c.Ledger.ReconcileWorkers))
	}

	if c.AMQP.URL != "" {
		if parsed, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQP.Exchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// LedgerRules converts the ledger section into ledger.Config.
func (c *Config) LedgerRules() ledger.Config {
	return ledger.Config{
		Currencies:      models.NewCurrencySet(c.Ledger.Currencies...),
		RequireCategory: c.Ledger.RequireCategory,
	}
}
