// Package database provides the SQLite provenance ledger.
//
// The content store records what was obtained but not when or by whom. The
// Ledger fills that gap:
//   - artifacts: the first time each identity obtained each stored
//     artifact (identity, kind, puzzle key, stem)
//   - fetches: one row per page request, stamped with the run id, so a run
//     can be audited after the fact
//
// The store tree stays the system of record; the ledger can be deleted and
// rebuilt by re-running a crawl over the raw page cache, whose file times
// preserve the original fetch times.
//
// SQLite comes from modernc.org/sqlite, which is CGO-free.
package database
