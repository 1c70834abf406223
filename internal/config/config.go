package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"ledger/internal/core"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Storage
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string

	// Recurring scheduler
	SchedulerEnabled      bool
	SchedulerRunAt        string
	SchedulerTimezone     string
	SchedulerRunOnStartup bool

	// Domain defaults
	BudgetDefaultThreshold decimal.Decimal
	PageSizeDefault        int
	PageSizeMax            int

	// Rate limiting, per client IP
	RateLimitRPS   float64
	RateLimitBurst int

	// Logging
	LogLevel  string
	LogFormat string
}

var validBackends = []string{"sqlite", "postgres", "memory"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("data_backend", "sqlite")
	v.SetDefault("sqlite_db_path", "./data/ledger.db")
	v.SetDefault("postgres_url", "")
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "ledger")
	v.SetDefault("amqp_queue", "transaction_events")
	v.SetDefault("google_spreadsheet_id", "")
	v.SetDefault("google_sheet_name", "Transactions")
	v.SetDefault("google_credentials_file", "")
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("scheduler_run_at", "03:00")
	v.SetDefault("scheduler_timezone", "Local")
	v.SetDefault("scheduler_run_on_startup", false)
	v.SetDefault("budget_default_threshold", core.DefaultWarningThreshold.String())
	v.SetDefault("page_size_default", core.DefaultPageSize)
	v.SetDefault("page_size_max", core.MaxPageSize)
	v.SetDefault("rate_limit_rps", 10.0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads defaults, then the optional config file, then the environment.
// Environment variables are the upper-cased keys (SQLITE_DB_PATH, AMQP_URL).
// An empty configFile falls back to $LEDGER_CONFIG, then ./ledger.yaml if present.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = os.Getenv("LEDGER_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	threshold, err := decimal.NewFromString(v.GetString("budget_default_threshold"))
	if err != nil {
		return nil, fmt.Errorf("invalid budget_default_threshold %q: %w", v.GetString("budget_default_threshold"), err)
	}

	return &Config{
		Port:            v.GetString("port"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),

		DataBackend:  strings.ToLower(v.GetString("data_backend")),
		SQLiteDBPath: v.GetString("sqlite_db_path"),
		PostgresURL:  v.GetString("postgres_url"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),
		AMQPQueue:    v.GetString("amqp_queue"),

		GoogleSpreadsheetID:   v.GetString("google_spreadsheet_id"),
		GoogleSheetName:       v.GetString("google_sheet_name"),
		GoogleCredentialsFile: v.GetString("google_credentials_file"),

		SchedulerEnabled:      v.GetBool("scheduler_enabled"),
		SchedulerRunAt:        v.GetString("scheduler_run_at"),
		SchedulerTimezone:     v.GetString("scheduler_timezone"),
		SchedulerRunOnStartup: v.GetBool("scheduler_run_on_startup"),

		BudgetDefaultThreshold: threshold,
		PageSizeDefault:        v.GetInt("page_size_default"),
		PageSizeMax:            v.GetInt("page_size_max"),

		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),

		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
	}, nil
}

// Location resolves SchedulerTimezone; "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.SchedulerTimezone == "" || c.SchedulerTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.SchedulerTimezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresURL == "" {
			errors = append(errors, "Postgres URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL '%s': scheme must be 'postgres' or 'postgresql'", c.PostgresURL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}

	if _, err := time.Parse("15:04", c.SchedulerRunAt); err != nil {
		errors = append(errors, fmt.Sprintf("invalid scheduler run time '%s': must be HH:MM", c.SchedulerRunAt))
	}
	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid scheduler timezone '%s': %v", c.SchedulerTimezone, err))
	}

	if !core.ValidThreshold(c.BudgetDefaultThreshold) {
		errors = append(errors, fmt.Sprintf("invalid budget default threshold %s: must be greater than 0 and at most 1", c.BudgetDefaultThreshold))
	}

	if c.PageSizeMax < 1 || c.PageSizeMax > 1000 {
		errors = append(errors, fmt.Sprintf("invalid max page size %d: must be between 1 and 1000", c.PageSizeMax))
	}
	if c.PageSizeDefault < 1 || c.PageSizeDefault > c.PageSizeMax {
		errors = append(errors, fmt.Sprintf("invalid default page size %d: must be between 1 and the max page size", c.PageSizeDefault))
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
