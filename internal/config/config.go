package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

type Config struct {
	// Database. DATABASE_URL wins over the discrete fields when set.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBName      string `envconfig:"DB_NAME" default:"albion_marketplace"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	// API
	APIPort         int    `envconfig:"API_PORT" default:"3001"`
	APIKey          string `envconfig:"API_KEY"`
	CORSAllowOrigin string `envconfig:"CORS_ALLOW_ORIGIN" default:"*"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Charts
	ChartTimezone    string `envconfig:"CHART_TIMEZONE" default:"UTC"`
	ChartWindowDays  int    `envconfig:"CHART_WINDOW_DAYS" default:"7"`
	ChartPaletteSize int    `envconfig:"CHART_PALETTE_SIZE" default:"5"`

	// Item name cache (optional)
	RedisURL    string        `envconfig:"REDIS_URL"`
	ItemNameTTL time.Duration `envconfig:"ITEM_NAME_TTL" default:"1h"`

	// Price collector (optional)
	CollectorEnabled   bool          `envconfig:"COLLECTOR_ENABLED" default:"false"`
	CollectorInterval  time.Duration `envconfig:"COLLECTOR_INTERVAL" default:"1h"`
	CollectorBaseURL   string        `envconfig:"COLLECTOR_BASE_URL" default:"https://west.albion-online-data.com"`
	CollectorLocations []string      `envconfig:"COLLECTOR_LOCATIONS" default:"Caerleon,Bridgewatch,Fort Sterling,Lymhurst,Martlock,Thetford"`

	// Slack or Discord webhook for collector alerts (optional)
	NotifyWebhookURL string `envconfig:"NOTIFY_WEBHOOK_URL"`
	NotifyName       string `envconfig:"NOTIFY_NAME" default:"AlbionMarketCollector"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var err error

	if c.APIPort <= 0 || c.APIPort > 65535 {
		err = multierr.Append(err, fmt.Errorf("API_PORT %d out of range", c.APIPort))
	}
	if c.DatabaseURL == "" && c.DBName == "" {
		err = multierr.Append(err, errors.New("DB_NAME or DATABASE_URL is required"))
	}
	if _, locErr := c.Location(); locErr != nil {
		err = multierr.Append(err, fmt.Errorf("CHART_TIMEZONE: %w", locErr))
	}
	if c.ChartWindowDays < 1 || c.ChartWindowDays > 31 {
		err = multierr.Append(err, fmt.Errorf("CHART_WINDOW_DAYS must be between 1 and 31, got %d", c.ChartWindowDays))
	}
	if c.ChartPaletteSize < 1 {
		err = multierr.Append(err, errors.New("CHART_PALETTE_SIZE must be at least 1"))
	}
	if c.CollectorEnabled {
		if c.CollectorInterval < time.Minute {
			err = multierr.Append(err, fmt.Errorf("COLLECTOR_INTERVAL must be at least 1m, got %s", c.CollectorInterval))
		}
		if u, urlErr := url.Parse(c.CollectorBaseURL); urlErr != nil || u.Scheme == "" || u.Host == "" {
			err = multierr.Append(err, fmt.Errorf("COLLECTOR_BASE_URL %q is not an absolute URL", c.CollectorBaseURL))
		}
		if len(c.CollectorLocations) == 0 {
			err = multierr.Append(err, errors.New("COLLECTOR_LOCATIONS is empty"))
		}
	}

	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Warnings lists settings that are legal but probably unintended.
func (c *Config) Warnings() []string {
	var out []string
	if c.APIKey == "" {
		out = append(out, "API_KEY not set - REST API has no authentication")
	}
	if c.RedisURL == "" {
		out = append(out, "REDIS_URL not set - item names are read from the database on every request")
	}
	return out
}

// Location resolves CHART_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ChartTimezone)
}

func (c *Config) Log(l zerolog.Logger) {
	l.Info().
		Str("db", fmt.Sprintf("%s:%d/%s", c.DBHost, c.DBPort, c.DBName)).
		Bool("db_url", c.DatabaseURL != "").
		Int("api_port", c.APIPort).
		Bool("api_auth", c.APIKey != "").
		Str("chart_timezone", c.ChartTimezone).
		Int("chart_window_days", c.ChartWindowDays).
		Bool("redis", c.RedisURL != "").
		Bool("collector", c.CollectorEnabled).
		Dur("collector_interval", c.CollectorInterval).
		Strs("collector_locations", c.CollectorLocations).
		Bool("notify_webhook", c.NotifyWebhookURL != "").
		Msg("configuration loaded")
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
