package remote

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/rawcache"
	"github.com/nao1215/puzzlecrawl/internal/ratelimit"
)

// Getter performs a single network request for a remote path.
// *Session implements it.
type Getter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Source tells where a page body came from.
type Source string

const (
	// SourceCache marks pages served from the raw page cache.
	SourceCache Source = "cache"

	// SourceNetwork marks pages fetched from the service.
	SourceNetwork Source = "network"
)

// FetchEvent describes one Fetch call after it completes.
type FetchEvent struct {
	Identity model.Identity
	Path     string
	Source   Source
	Bytes    int
	Waited   time.Duration
	Err      error
	At       time.Time
}

// Observer is notified of every fetch. Metrics and the provenance ledger
// implement it.
type Observer interface {
	ObserveFetch(ctx context.Context, event FetchEvent)
}

// Fetcher resolves pages through the raw page cache, falling back to the
// network under the rate limiter.
type Fetcher struct {
	// getter performs authenticated requests for one credential.
	getter Getter

	// cache is consulted before the network and filled after it.
	cache *rawcache.Cache

	// limiter paces the credential's network requests. Cache hits skip it.
	limiter *ratelimit.Limiter

	observers []Observer
	logger    *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithObserver registers an observer. May be given several times.
func WithObserver(observer Observer) FetcherOption {
	return func(f *Fetcher) {
		if observer != nil {
			f.observers = append(f.observers, observer)
		}
	}
}

// NewFetcher creates a Fetcher. The limiter paces one credential: give
// every credential its own, and share it between fetchers of the same
// credential.
func NewFetcher(getter Getter, cache *rawcache.Cache, limiter *ratelimit.Limiter, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		getter:  getter,
		cache:   cache,
		limiter: limiter,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch returns the page at path as seen by identity.
//
// With a known identity the cache is consulted first and a hit issues no
// network request. Pages fetched with NoIdentity always go to the network and
// are cached by content hash. A non-success response is returned as
// *RemoteFetchError and nothing is cached.
func (f *Fetcher) Fetch(ctx context.Context, path string, identity model.Identity, suffix string) (model.Page, error) {
	page := model.Page{Path: path, Identity: identity}

	if identity.Known() {
		entry, ok, err := f.cache.Get(identity, path, suffix)
		if err != nil {
			return page, err
		}
		if ok {
			page.Body = entry.Body
			page.FetchedAt = entry.StoredAt
			page.FromCache = true
			f.notify(ctx, FetchEvent{
				Identity: identity, Path: path, Source: SourceCache,
				Bytes: len(entry.Body), At: time.Now(),
			})
			return page, nil
		}
	}

	start := time.Now()
	if err := f.limiter.AwaitTurn(ctx); err != nil {
		return page, err
	}
	waited := time.Since(start)

	f.logger.Info("downloading", "path", path, "identity", string(identity), "delay", waited.Round(100*time.Millisecond))
	body, err := f.getter.Get(ctx, path)
	if err != nil {
		f.notify(ctx, FetchEvent{
			Identity: identity, Path: path, Source: SourceNetwork,
			Waited: waited, Err: err, At: time.Now(),
		})
		return page, err
	}

	entry, err := f.cache.Put(identity, path, suffix, body)
	if err != nil {
		return page, err
	}

	page.Body = entry.Body
	page.FetchedAt = entry.StoredAt
	f.notify(ctx, FetchEvent{
		Identity: identity, Path: path, Source: SourceNetwork,
		Bytes: len(entry.Body), Waited: waited, At: time.Now(),
	})
	return page, nil
}

func (f *Fetcher) notify(ctx context.Context, event FetchEvent) {
	for _, o := range f.observers {
		o.ObserveFetch(ctx, event)
	}
}
