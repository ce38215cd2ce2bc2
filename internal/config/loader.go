package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for.
const DefaultConfigFile = ".puzzlecrawl"

// File mirrors the YAML configuration file. Zero fields leave the current
// value untouched.
type File struct {
	StoreDir    string        `yaml:"store_dir,omitempty"`
	CacheDir    string        `yaml:"cache_dir,omitempty"`
	DBDir       string        `yaml:"db_dir,omitempty"`
	Registry    string        `yaml:"registry,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Proxy       string        `yaml:"proxy,omitempty"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxBodySize int64         `yaml:"max_body_size,omitempty"`
	RateMean    time.Duration `yaml:"rate_mean,omitempty"`
	RateStddev  time.Duration `yaml:"rate_stddev,omitempty"`
	RateFloor   time.Duration `yaml:"rate_floor,omitempty"`
	LastYear    int           `yaml:"last_year,omitempty"`
	MetricsFile string        `yaml:"metrics_file,omitempty"`
}

// LoadConfigFile reads a YAML configuration file.
// A missing file yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply copies the non-zero fields of f onto c.
func (f *File) Apply(c *Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v time.Duration) {
		if v != 0 {
			*dst = v
		}
	}

	setString(&c.StoreDir, f.StoreDir)
	setString(&c.CacheDir, f.CacheDir)
	setString(&c.DBDir, f.DBDir)
	setString(&c.RegistryPath, f.Registry)
	setString(&c.BaseURL, f.BaseURL)
	setString(&c.Proxy, f.Proxy)
	setString(&c.UserAgent, f.UserAgent)
	setString(&c.MetricsFile, f.MetricsFile)
	setDuration(&c.Timeout, f.Timeout)
	setDuration(&c.RateMean, f.RateMean)
	setDuration(&c.RateStddev, f.RateStddev)
	setDuration(&c.RateFloor, f.RateFloor)
	if f.MaxBodySize != 0 {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.LastYear != 0 {
		c.LastYear = f.LastYear
	}
}

// FindConfigFile returns the configuration file to use:
// configPath if given and present, else .puzzlecrawl in the current
// directory, else in the home directory. It returns "" when none exists.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		if p := filepath.Join(cwd, DefaultConfigFile); fileExists(p) {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if p := filepath.Join(home, DefaultConfigFile); fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load builds a Config from defaults, the configuration file and the
// environment. An explicit configPath that does not exist is an error;
// a missing implicit file is not.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()

	path := FindConfigFile(configPath)
	if configPath != "" && path == "" {
		return nil, ErrConfigNotFound
	}
	if path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		f.Apply(cfg)
		cfg.ConfigFilePath = path
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
