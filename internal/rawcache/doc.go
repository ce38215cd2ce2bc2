// Package rawcache persists raw page bodies fetched from the remote service.
//
// Pages fetched as a known identity are cached per (identity, path) under
// user/{identity}/{escaped path}{suffix}. Pages without user-specific content
// are cached by the hash of their body under other/{hash}{suffix}; two
// sessions that fetch byte-identical content converge on the same entry.
//
// The cache is append-only: entries are never deleted or modified, and
// failed fetches are never cached.
package rawcache
