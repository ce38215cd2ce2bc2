package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"

	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/remote"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "puzzlecrawl"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PUZZLECRAWL_"

	// RegistryFile is the session registry's file name in the config dir.
	RegistryFile = "sessions.json"

	// DefaultRateMean is the mean pause between two requests of one session.
	DefaultRateMean = 10 * time.Second

	// DefaultRateStddev is the spread of the pause.
	DefaultRateStddev = 2 * time.Second

	// DefaultRateFloor is the shortest pause ever granted.
	DefaultRateFloor = 1 * time.Second
)

// Config holds all settings. It is populated once at startup and passed
// down explicitly.
type Config struct {
	// StoreDir is the root of the content-addressed store.
	StoreDir string `env:"STORE_DIR"`

	// CacheDir holds raw downloaded pages.
	CacheDir string `env:"CACHE_DIR"`

	// DBDir holds the provenance ledger. Empty disables it.
	DBDir string `env:"DB_DIR"`

	// RegistryPath is the session registry file.
	RegistryPath string `env:"REGISTRY"`

	// BaseURL is the puzzle site root.
	BaseURL string `env:"BASE_URL"`

	// Proxy is an optional SOCKS5 proxy in "host:port" form.
	Proxy string `env:"PROXY"`

	// UserAgent is sent with every request.
	UserAgent string `env:"USER_AGENT"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `env:"TIMEOUT"`

	// MaxBodySize caps a response body in bytes.
	MaxBodySize int64 `env:"MAX_BODY_SIZE"`

	// RateMean, RateStddev and RateFloor shape the pause between requests.
	RateMean   time.Duration `env:"RATE_MEAN"`
	RateStddev time.Duration `env:"RATE_STDDEV"`
	RateFloor  time.Duration `env:"RATE_FLOOR"`

	// LastYear is the last event year crawled. Zero means the current year.
	LastYear int `env:"LAST_YEAR"`

	// MetricsFile, when set, receives crawl counters in Prometheus text format.
	MetricsFile string `env:"METRICS_FILE"`

	// Verbose enables debug logging.
	Verbose bool `env:"VERBOSE"`

	// LogJSON selects JSON log output.
	LogJSON bool `env:"LOG_JSON"`

	// ConfigFilePath is the YAML file in use, if any.
	ConfigFilePath string
}

// NewConfig returns a Config with defaults filled in.
func NewConfig() *Config {
	return &Config{
		StoreDir:     filepath.Join(XDGDataDir(), "store"),
		CacheDir:     filepath.Join(XDGCacheDir(), "pages"),
		DBDir:        XDGDataDir(),
		RegistryPath: filepath.Join(XDGConfigDir(), RegistryFile),
		BaseURL:      remote.DefaultBaseURL,
		UserAgent:    remote.DefaultUserAgent,
		Timeout:      remote.DefaultTimeout,
		MaxBodySize:  remote.DefaultMaxBodySize,
		RateMean:     DefaultRateMean,
		RateStddev:   DefaultRateStddev,
		RateFloor:    DefaultRateFloor,
	}
}

// XDGDataDir returns the XDG data directory, e.g. ~/.local/share/puzzlecrawl.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory, e.g. ~/.config/puzzlecrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory, e.g. ~/.cache/puzzlecrawl.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ApplyEnv overrides fields from PUZZLECRAWL_* variables that are set.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(nil)
}

// applyEnv reads overrides from environ, or from the process environment
// when environ is nil.
func (c *Config) applyEnv(environ map[string]string) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// EffectiveLastYear resolves LastYear against now.
func (c *Config) EffectiveLastYear(now time.Time) int {
	if c.LastYear != 0 {
		return c.LastYear
	}
	return now.Year()
}

// Validate returns the first problem found.
func (c *Config) Validate() error {
	if c.StoreDir == "" || c.CacheDir == "" || c.RegistryPath == "" {
		return ErrEmptyPath
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RateMean <= 0 || c.RateStddev < 0 || c.RateFloor < 0 {
		return ErrInvalidRate
	}
	if c.LastYear != 0 && c.LastYear < model.FirstYear {
		return ErrInvalidLastYear
	}
	return nil
}
