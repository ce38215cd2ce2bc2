// Package fsutil provides crash-safe file writes shared by the cache,
// the content store and the session registry.
package fsutil
