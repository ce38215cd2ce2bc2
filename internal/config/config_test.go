package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig documents the defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("directories live under XDG paths", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.StoreDir, XDGDataDir()) {
			t.Errorf("StoreDir = %q, want under %q", cfg.StoreDir, XDGDataDir())
		}
		if !strings.HasPrefix(cfg.CacheDir, XDGCacheDir()) {
			t.Errorf("CacheDir = %q, want under %q", cfg.CacheDir, XDGCacheDir())
		}
		if cfg.RegistryPath != filepath.Join(XDGConfigDir(), "sessions.json") {
			t.Errorf("RegistryPath = %q", cfg.RegistryPath)
		}
	})

	t.Run("default rate is 10s with 2s spread", func(t *testing.T) {
		t.Parallel()
		if cfg.RateMean != 10*time.Second || cfg.RateStddev != 2*time.Second || cfg.RateFloor != time.Second {
			t.Errorf("unexpected rate: %v %v %v", cfg.RateMean, cfg.RateStddev, cfg.RateFloor)
		}
	})

	t.Run("default base URL", func(t *testing.T) {
		t.Parallel()
		if cfg.BaseURL != "https://adventofcode.com/" {
			t.Errorf("BaseURL = %q", cfg.BaseURL)
		}
	})

	t.Run("no proxy and no year bound", func(t *testing.T) {
		t.Parallel()
		if cfg.Proxy != "" || cfg.LastYear != 0 {
			t.Errorf("Proxy = %q, LastYear = %d", cfg.Proxy, cfg.LastYear)
		}
	})

	t.Run("defaults validate", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}

// TestConfigValidate covers each validation error.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "empty store dir", modify: func(c *Config) { c.StoreDir = "" }, wantErr: ErrEmptyPath},
		{name: "empty registry", modify: func(c *Config) { c.RegistryPath = "" }, wantErr: ErrEmptyPath},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "zero rate mean", modify: func(c *Config) { c.RateMean = 0 }, wantErr: ErrInvalidRate},
		{name: "negative spread", modify: func(c *Config) { c.RateStddev = -time.Second }, wantErr: ErrInvalidRate},
		{name: "negative floor", modify: func(c *Config) { c.RateFloor = -time.Second }, wantErr: ErrInvalidRate},
		{name: "year before first event", modify: func(c *Config) { c.LastYear = 2014 }, wantErr: ErrInvalidLastYear},
		{name: "explicit last year", modify: func(c *Config) { c.LastYear = 2020 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveLastYear(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC)

	cfg := NewConfig()
	if got := cfg.EffectiveLastYear(now); got != 2024 {
		t.Errorf("EffectiveLastYear() = %d, want 2024", got)
	}
	cfg.LastYear = 2019
	if got := cfg.EffectiveLastYear(now); got != 2019 {
		t.Errorf("EffectiveLastYear() = %d, want 2019", got)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("overrides set variables only", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		wantCache := cfg.CacheDir
		err := cfg.applyEnv(map[string]string{
			"PUZZLECRAWL_STORE_DIR": "/srv/puzzles",
			"PUZZLECRAWL_PROXY":     "127.0.0.1:1080",
			"PUZZLECRAWL_RATE_MEAN": "3s",
			"PUZZLECRAWL_LAST_YEAR": "2022",
			"UNRELATED":             "x",
		})
		if err != nil {
			t.Fatalf("applyEnv() error = %v", err)
		}
		if cfg.StoreDir != "/srv/puzzles" || cfg.Proxy != "127.0.0.1:1080" {
			t.Errorf("StoreDir = %q, Proxy = %q", cfg.StoreDir, cfg.Proxy)
		}
		if cfg.RateMean != 3*time.Second || cfg.LastYear != 2022 {
			t.Errorf("RateMean = %v, LastYear = %d", cfg.RateMean, cfg.LastYear)
		}
		if cfg.CacheDir != wantCache {
			t.Errorf("CacheDir changed to %q", cfg.CacheDir)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.applyEnv(map[string]string{"PUZZLECRAWL_TIMEOUT": "soon"}); err == nil {
			t.Error("expected error for malformed duration")
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		f, err := LoadConfigFile("/nonexistent/path/.puzzlecrawl")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if f != nil {
			t.Error("expected nil file when not found")
		}
	})

	t.Run("loads and applies valid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `store_dir: /data/puzzles
proxy: 127.0.0.1:9050
rate_mean: 15s
last_year: 2023
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		f, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		wantTimeout := cfg.Timeout
		f.Apply(cfg)

		if cfg.StoreDir != "/data/puzzles" || cfg.Proxy != "127.0.0.1:9050" {
			t.Errorf("StoreDir = %q, Proxy = %q", cfg.StoreDir, cfg.Proxy)
		}
		if cfg.RateMean != 15*time.Second || cfg.LastYear != 2023 {
			t.Errorf("RateMean = %v, LastYear = %d", cfg.RateMean, cfg.LastYear)
		}
		if cfg.Timeout != wantTimeout {
			t.Errorf("Timeout changed to %v", cfg.Timeout)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("{}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("explicit file is applied and recorded", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("user_agent: tester\n"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.UserAgent != "tester" || cfg.ConfigFilePath != configPath {
			t.Errorf("UserAgent = %q, ConfigFilePath = %q", cfg.UserAgent, cfg.ConfigFilePath)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("%s dir %q does not end in %q", name, dir, AppName)
		}
	}
}
