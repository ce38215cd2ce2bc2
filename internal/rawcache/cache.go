package rawcache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/puzzlecrawl/internal/fsutil"
	"github.com/nao1215/puzzlecrawl/internal/model"
)

// Subdirectories of the cache root.
const (
	userDir  = "user"
	otherDir = "other"
)

// ErrIdentityRequired is returned by Get for identity-less pages, which can
// only be located after their body is known.
var ErrIdentityRequired = errors.New("identity required to look up a page before fetching it")

// Entry is a cache hit.
type Entry struct {
	// Body is the cached page body.
	Body []byte

	// Path is the cache file location.
	Path string

	// StoredAt is when the entry was written.
	StoredAt time.Time
}

// Cache is a directory of raw page bodies.
type Cache struct {
	root   string
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates a Cache rooted at root. The directory is created lazily.
func New(root string, opts ...Option) *Cache {
	c := &Cache{root: root}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Escape maps a remote path onto a flat file name.
// "-" is doubled before "/" becomes "-", so distinct paths never collide:
// "2021/day/5" -> "2021-day-5", "a-b" -> "a--b".
func Escape(path string) string {
	path = strings.TrimPrefix(path, "/")
	return strings.ReplaceAll(strings.ReplaceAll(path, "-", "--"), "/", "-")
}

// IdentityPath returns the cache location of a page fetched as identity.
func (c *Cache) IdentityPath(identity model.Identity, path, suffix string) string {
	return filepath.Join(c.root, userDir, string(identity), Escape(path)+suffix)
}

// ContentPath returns the cache location of an identity-less page body.
func (c *Cache) ContentPath(body []byte, suffix string) string {
	return filepath.Join(c.root, otherDir, string(model.Hexdigest(body))+suffix)
}

// Get returns the cached page for (identity, path) if present.
// The boolean is false on a miss.
func (c *Cache) Get(identity model.Identity, path, suffix string) (Entry, bool, error) {
	if !identity.Known() {
		return Entry{}, false, ErrIdentityRequired
	}

	location := c.IdentityPath(identity, path, suffix)
	body, err := os.ReadFile(location) //nolint:gosec // path derived from cache root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to read cache entry %s: %w", location, err)
	}

	info, err := os.Stat(location)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to stat cache entry %s: %w", location, err)
	}

	c.logger.Debug("using cache", "path", location)
	return Entry{Body: body, Path: location, StoredAt: info.ModTime()}, true, nil
}

// Put stores body for (identity, path), or by content hash when identity is
// unknown. Storing identical content again leaves the entry untouched.
func (c *Cache) Put(identity model.Identity, path, suffix string, body []byte) (Entry, error) {
	var location string
	if identity.Known() {
		location = c.IdentityPath(identity, path, suffix)
	} else {
		location = c.ContentPath(body, suffix)
	}

	if existing, err := os.ReadFile(location); err == nil { //nolint:gosec // path derived from cache root
		info, statErr := os.Stat(location)
		if statErr != nil {
			return Entry{}, fmt.Errorf("failed to stat cache entry %s: %w", location, statErr)
		}
		if !bytes.Equal(existing, body) {
			// A page for the same identity and path changed upstream.
			// The first copy stays authoritative.
			c.logger.Warn("cache entry differs from fetched page, keeping cached copy",
				"path", location,
			)
		}
		return Entry{Body: existing, Path: location, StoredAt: info.ModTime()}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Entry{}, fmt.Errorf("failed to read cache entry %s: %w", location, err)
	}

	c.logger.Debug("populating cache", "path", location)
	if err := fsutil.WriteFileExclusive(location, body, 0o600); err != nil {
		if errors.Is(err, fsutil.ErrExists) {
			// Lost a race with a concurrent writer; the cache is append-only.
			return c.Put(identity, path, suffix, body)
		}
		return Entry{}, fmt.Errorf("failed to write cache entry: %w", err)
	}
	return Entry{Body: body, Path: location, StoredAt: time.Now()}, nil
}
