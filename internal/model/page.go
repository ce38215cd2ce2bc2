package model

import "time"

// Page is a raw page body obtained from the remote service, either over the
// network or from the raw page cache.
type Page struct {
	// Path is the remote path relative to the service root (e.g. "2021/day/5").
	Path string `json:"path"`

	// Identity is the identity the page was fetched as. NoIdentity marks pages
	// without user-specific content; those are cached by content hash.
	Identity Identity `json:"identity,omitempty"`

	// Body is the raw response body.
	Body []byte `json:"-"`

	// FetchedAt is when the body was first obtained from the network.
	// For cache hits this is the time the cache entry was written.
	FetchedAt time.Time `json:"fetched_at"`

	// FromCache is true when no network request was made.
	FromCache bool `json:"from_cache"`
}

// Text returns the body as a string.
func (p Page) Text() string {
	return string(p.Body)
}
