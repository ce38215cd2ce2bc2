package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

var (
	// ErrIdentityNotFound is returned when the profile page carries no
	// recognizable account number.
	ErrIdentityNotFound = errors.New("no account number found on profile page")

	// ErrAmbiguousIdentity is returned when the profile page carries more
	// than one account number.
	ErrAmbiguousIdentity = errors.New("more than one account number found on profile page")
)

// ProfilePath is the page the account number is read from.
const ProfilePath = "settings"

// anonymousUser matches the account number the settings page displays.
var anonymousUser = regexp.MustCompile(`\(anonymous user #(\d+)\)`)

// PageFetcher fetches a page. *remote.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, path string, identity model.Identity, suffix string) (model.Page, error)
}

// Strategy derives an identity using a fetcher bound to the credential.
type Strategy interface {
	Resolve(ctx context.Context, fetcher PageFetcher) (model.Identity, error)
}

// Cache memoizes resolutions per credential.
type Cache interface {
	Get(credential model.Credential) (model.Identity, bool)
	Put(credential model.Credential, identity model.Identity)
}

// MemoryCache is a process-lifetime Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[model.Credential]model.Identity
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[model.Credential]model.Identity)}
}

// Get implements Cache.
func (c *MemoryCache) Get(credential model.Credential) (model.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.entries[credential]
	return id, ok
}

// Put implements Cache.
func (c *MemoryCache) Put(credential model.Credential, identity model.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[credential] = identity
}

// Len returns the number of memoized credentials.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Resolver maps credentials to identities.
type Resolver struct {
	strategy Strategy
	cache    Cache
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithStrategy replaces the default ProfilePage strategy.
func WithStrategy(strategy Strategy) Option {
	return func(r *Resolver) {
		r.strategy = strategy
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategy == nil {
		r.strategy = ProfilePage{}
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve returns the identity for credential, consulting the cache first.
// fetcher must send credential on its requests.
func (r *Resolver) Resolve(ctx context.Context, credential model.Credential, fetcher PageFetcher) (model.Identity, error) {
	if id, ok := r.cache.Get(credential); ok {
		return id, nil
	}

	id, err := r.strategy.Resolve(ctx, fetcher)
	if err != nil {
		return model.NoIdentity, fmt.Errorf("failed to resolve identity: %w", err)
	}

	r.logger.Debug("resolved identity", "identity", string(id))
	r.cache.Put(credential, id)
	return id, nil
}

// ProfilePage reads the anonymous user number from the settings page.
type ProfilePage struct{}

// Resolve implements Strategy.
func (ProfilePage) Resolve(ctx context.Context, fetcher PageFetcher) (model.Identity, error) {
	page, err := fetcher.Fetch(ctx, ProfilePath, model.NoIdentity, ".html")
	if err != nil {
		return model.NoIdentity, err
	}
	return ParseProfile(page.Text())
}

// ParseProfile extracts the account number from a settings page.
// Exactly one occurrence is required.
func ParseProfile(page string) (model.Identity, error) {
	matches := anonymousUser.FindAllStringSubmatch(page, -1)
	switch len(matches) {
	case 0:
		return model.NoIdentity, ErrIdentityNotFound
	case 1:
		return model.Identity(matches[0][1]), nil
	default:
		return model.NoIdentity, ErrAmbiguousIdentity
	}
}

// FixedResponse fingerprints an account by hashing a page whose content is
// fixed per account, such as an early puzzle input.
type FixedResponse struct {
	// Path is the page to hash.
	Path string

	// Suffix is the cache file suffix for the page.
	Suffix string
}

// Resolve implements Strategy.
func (s FixedResponse) Resolve(ctx context.Context, fetcher PageFetcher) (model.Identity, error) {
	page, err := fetcher.Fetch(ctx, s.Path, model.NoIdentity, s.Suffix)
	if err != nil {
		return model.NoIdentity, err
	}
	return model.Identity(model.Hexdigest(page.Body)), nil
}
