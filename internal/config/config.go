// Package config loads and validates harvester configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends accepted by storage.backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendGCS      = "gcs"
	BackendLocal    = "local"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Sitemap SitemapConfig `mapstructure:"sitemap"`
	Browser BrowserConfig `mapstructure:"browser"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the query service.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig holds the shared secret guarding admin endpoints.
type AuthConfig struct {
	AdminAPIKey string `mapstructure:"admin_api_key"`
}

// HarvestConfig governs the crawl loop.
type HarvestConfig struct {
	SitemapURL          string  `mapstructure:"sitemap_url"`
	ListingsMarker      string  `mapstructure:"listings_marker"`
	SourceName          string  `mapstructure:"source_name"`
	RequestDelaySeconds float64 `mapstructure:"request_delay_seconds"`
	TestDelaySeconds    float64 `mapstructure:"test_delay_seconds"`
	ProgressEvery       int     `mapstructure:"progress_every"`
	SummaryEvery        int     `mapstructure:"summary_every"`
}

// SitemapConfig configures sitemap downloads.
type SitemapConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// BrowserConfig configures the headless page loader.
type BrowserConfig struct {
	PrimaryMarker       string `mapstructure:"primary_marker"`
	FallbackMarker      string `mapstructure:"fallback_marker"`
	PrimaryWaitSeconds  int    `mapstructure:"primary_wait_seconds"`
	FallbackWaitSeconds int    `mapstructure:"fallback_wait_seconds"`
	NavTimeoutSeconds   int    `mapstructure:"nav_timeout_seconds"`
	WindowWidth         int    `mapstructure:"window_width"`
	WindowHeight        int    `mapstructure:"window_height"`
	UserAgent           string `mapstructure:"user_agent"`
}

// StorageConfig selects where listings are persisted.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	LocalDir   string `mapstructure:"local_dir"`
	GCSBucket  string `mapstructure:"gcs_bucket"`
	GCSPrefix  string `mapstructure:"gcs_prefix"`
}

// DBConfig controls access to Postgres.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for persisted-listing notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features and the optional log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// Load builds a Config from disk/environment, reading a .env file from the
// working directory when one exists.
func Load(path string) (Config, error) {
	return LoadWithEnvFile(path, ".env")
}

// LoadWithEnvFile is Load with an explicit dotenv path. Variables already set
// in the process environment win over the file.
func LoadWithEnvFile(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("auth.admin_api_key", "HARVESTER_AUTH_ADMIN_API_KEY", "ADMIN_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind admin key: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("auth.admin_api_key", "default_admin_key")
	v.SetDefault("harvest.sitemap_url", "https://weworkremotely.com/sitemap.xml")
	v.SetDefault("harvest.listings_marker", "/listings/")
	v.SetDefault("harvest.source_name", "WeWorkRemotely")
	v.SetDefault("harvest.request_delay_seconds", 3)
	v.SetDefault("harvest.test_delay_seconds", 1)
	v.SetDefault("harvest.progress_every", 10)
	v.SetDefault("harvest.summary_every", 50)
	v.SetDefault("sitemap.timeout_seconds", 30)
	v.SetDefault("sitemap.user_agent", "remote-jobs-harvester/0.1")
	v.SetDefault("sitemap.respect_robots", false)
	v.SetDefault("browser.primary_marker", ".listing-header-container")
	v.SetDefault("browser.fallback_marker", ".lis-container")
	v.SetDefault("browser.primary_wait_seconds", 15)
	v.SetDefault("browser.fallback_wait_seconds", 5)
	v.SetDefault("browser.nav_timeout_seconds", 30)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.sqlite_path", "harvester.db")
	v.SetDefault("storage.local_dir", "data/jobs")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.gcs_prefix", "jobs")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "jobs")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Auth.AdminAPIKey == "" {
		return fmt.Errorf("auth.admin_api_key must be set")
	}
	if c.Harvest.SitemapURL == "" {
		return fmt.Errorf("harvest.sitemap_url must be set")
	}
	if c.Harvest.ListingsMarker == "" {
		return fmt.Errorf("harvest.listings_marker must be set")
	}
	if c.Harvest.RequestDelaySeconds < 0 || c.Harvest.TestDelaySeconds < 0 {
		return fmt.Errorf("harvest delays must be >= 0")
	}
	if c.Harvest.ProgressEvery <= 0 || c.Harvest.SummaryEvery <= 0 {
		return fmt.Errorf("harvest.progress_every and harvest.summary_every must be > 0")
	}
	if c.Sitemap.TimeoutSeconds <= 0 {
		return fmt.Errorf("sitemap.timeout_seconds must be > 0")
	}
	if c.Browser.PrimaryWaitSeconds <= 0 || c.Browser.FallbackWaitSeconds <= 0 {
		return fmt.Errorf("browser waits must be > 0")
	}
	if c.Browser.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0")
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser window size must be > 0")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path must be set for the sqlite backend")
		}
	case BackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres backend")
		}
		if c.DB.MaxConns <= 0 {
			return fmt.Errorf("db.max_conns must be > 0")
		}
	case BackendLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// RequestDelay is the pause between listing pages during a crawl.
func (h HarvestConfig) RequestDelay() time.Duration {
	return seconds(h.RequestDelaySeconds)
}

// TestDelay is the pause between listing pages when scraping explicit URLs.
func (h HarvestConfig) TestDelay() time.Duration {
	return seconds(h.TestDelaySeconds)
}

// Timeout bounds a single sitemap download.
func (s SitemapConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
