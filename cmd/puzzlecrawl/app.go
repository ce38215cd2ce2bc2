package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/puzzlecrawl/internal/config"
	"github.com/nao1215/puzzlecrawl/internal/crawler"
	"github.com/nao1215/puzzlecrawl/internal/database"
	"github.com/nao1215/puzzlecrawl/internal/log"
	"github.com/nao1215/puzzlecrawl/internal/metrics"
	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/ratelimit"
	"github.com/nao1215/puzzlecrawl/internal/rawcache"
	"github.com/nao1215/puzzlecrawl/internal/remote"
	"github.com/nao1215/puzzlecrawl/internal/store"
)

// addStoreFlags registers the flags of commands that touch the store.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store-dir", "", "Root of the content-addressed store")
	cmd.Flags().String("db-dir", "", "Directory of the provenance database")
	cmd.Flags().String("registry", "", "Session registry file")
}

// addRemoteFlags registers the flags of commands that talk to the site.
func addRemoteFlags(cmd *cobra.Command) {
	addStoreFlags(cmd)
	cmd.Flags().String("cache-dir", "", "Raw page cache directory")
	cmd.Flags().String("base-url", "", "Puzzle site root")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	cmd.Flags().Duration("timeout", 0, "Timeout of a single request")
	cmd.Flags().String("metrics-file", "", "Write crawl counters to this file in Prometheus text format")
}

// loadSettings resolves the configuration of cmd: defaults, configuration
// file, environment, then flags the user set.
func loadSettings(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)
	slog.SetDefault(logger)
	if cfg.ConfigFilePath != "" {
		logger.Debug("configuration loaded", "file", cfg.ConfigFilePath)
	}
	return cfg, logger, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	stringFlags := map[string]*string{
		"store-dir":    &cfg.StoreDir,
		"cache-dir":    &cfg.CacheDir,
		"db-dir":       &cfg.DBDir,
		"registry":     &cfg.RegistryPath,
		"base-url":     &cfg.BaseURL,
		"proxy":        &cfg.Proxy,
		"metrics-file": &cfg.MetricsFile,
	}
	for name, dst := range stringFlags {
		if changed(name) {
			*dst = flags.Lookup(name).Value.String()
		}
	}

	var err error
	if changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed("last-year") {
		if cfg.LastYear, err = flags.GetInt("last-year"); err != nil {
			return err
		}
	}
	if changed("verbose") {
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return err
		}
	}
	if changed("log-json") {
		if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
			return err
		}
	}
	return nil
}

func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// crawlEnv holds what every crawl of one invocation shares.
//
// Design decision: pacing is per credential. Each credential gets its own
// limiter the first time a fetcher is built for it, so one identity's
// pacing never delays another's first request. Callers still crawl
// identities one after another.
type crawlEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	cache   *rawcache.Cache
	client  *remote.Client
	ledger  *database.Ledger
	metrics *metrics.Metrics
	runID   string

	// limiters holds one limiter per credential seen in this invocation.
	limiters map[model.Credential]*ratelimit.Limiter
}

// openCrawlEnv wires the store, cache, client, ledger and metrics. Limiters
// are created per credential by fetcher.
// The ledger is skipped when no database directory is configured.
func openCrawlEnv(cfg *config.Config, logger *slog.Logger) (*crawlEnv, error) {
	opts := []remote.ClientOption{
		remote.WithBaseURL(cfg.BaseURL),
		remote.WithTimeout(cfg.Timeout),
		remote.WithUserAgent(cfg.UserAgent),
		remote.WithMaxBodySize(cfg.MaxBodySize),
	}
	if cfg.Proxy != "" {
		opts = append(opts, remote.WithProxy(cfg.Proxy))
	}
	client, err := remote.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	env := &crawlEnv{
		cfg:      cfg,
		logger:   logger,
		store:    store.New(cfg.StoreDir, store.WithLogger(logger)),
		cache:    rawcache.New(cfg.CacheDir, rawcache.WithLogger(logger)),
		client:   client,
		metrics:  metrics.New(),
		runID:    database.NewRunID(),
		limiters: make(map[model.Credential]*ratelimit.Limiter),
	}

	if cfg.DBDir != "" {
		ledger, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		env.ledger = ledger
		logger.Debug("database opened", "path", ledger.Path(), "run_id", env.runID)
	}
	return env, nil
}

// Close writes the metrics file, if configured, and closes the ledger.
func (e *crawlEnv) Close() error {
	var errs []error
	if e.cfg.MetricsFile != "" {
		if err := e.metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if e.ledger != nil {
		errs = append(errs, e.ledger.Close())
	}
	return errors.Join(errs...)
}

// limiter returns the limiter pacing credential, creating it on first use.
func (e *crawlEnv) limiter(credential model.Credential) *ratelimit.Limiter {
	if l, ok := e.limiters[credential]; ok {
		return l
	}
	seed := uint64(time.Now().UnixNano()) + uint64(len(e.limiters)) //nolint:gosec // seed only
	l := ratelimit.New(ratelimit.GaussianJitter(e.cfg.RateMean, e.cfg.RateStddev, e.cfg.RateFloor, seed))
	e.limiters[credential] = l
	return l
}

// fetcher returns a Fetcher that sends credential, paced by that
// credential's limiter.
func (e *crawlEnv) fetcher(credential model.Credential) *remote.Fetcher {
	opts := []remote.FetcherOption{
		remote.WithLogger(e.logger),
		remote.WithObserver(e.metrics),
	}
	if e.ledger != nil {
		opts = append(opts, remote.WithObserver(database.NewFetchLog(e.ledger, e.runID, e.logger)))
	}
	return remote.NewFetcher(e.client.Session(credential), e.cache, e.limiter(credential), opts...)
}

// controller returns a Controller crawling as identity.
func (e *crawlEnv) controller(identity model.Identity, credential model.Credential) *crawler.Controller {
	opts := []crawler.Option{
		crawler.WithRecorder(e.metrics),
		crawler.WithRunID(e.runID),
		crawler.WithLastYear(e.cfg.EffectiveLastYear(time.Now())),
		crawler.WithLogger(e.logger),
	}
	if e.ledger != nil {
		opts = append(opts, crawler.WithLedger(e.ledger))
	}
	return crawler.NewController(e.fetcher(credential), e.store, identity, opts...)
}

// ledgerPath is where the ledger of cfg lives, or "" when disabled.
func ledgerPath(cfg *config.Config) string {
	if cfg.DBDir == "" {
		return ""
	}
	return filepath.Join(cfg.DBDir, database.FileName)
}
