package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/puzzlecrawl/internal/model"
)

// FileName is the ledger file inside the data directory.
const FileName = "puzzlecrawl.db"

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02 15:04:05.000"

// Ledger stores provenance for stored artifacts and page fetches.
type Ledger struct {
	db     *sql.DB
	dbPath string
}

// Options configures Ledger behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the ledger in dbDir.
func Open(dbDir string, opts Options) (*Ledger, error) {
	dbPath := filepath.Join(dbDir, FileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Ledger{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createTables() error {
	schema := `
	-- First sighting of each artifact per identity
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity TEXT NOT NULL,
		kind TEXT NOT NULL,
		year INTEGER NOT NULL,
		day INTEGER NOT NULL,
		part INTEGER NOT NULL DEFAULT 0,
		stem TEXT NOT NULL,
		first_seen TEXT NOT NULL,
		run_id TEXT NOT NULL,
		UNIQUE(identity, kind, year, day, part, stem)
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_key ON artifacts(year, day, part);
	CREATE INDEX IF NOT EXISTS idx_artifacts_identity ON artifacts(identity);

	-- Every page request, cached or not
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		identity TEXT NOT NULL,
		path TEXT NOT NULL,
		source TEXT NOT NULL,
		bytes INTEGER NOT NULL DEFAULT 0,
		waited_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_run ON fetches(run_id);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// Artifact is one provenance row.
type Artifact struct {
	ID        int64
	Identity  model.Identity
	Kind      model.Kind
	Key       model.PuzzleKey
	Stem      model.Stem
	FirstSeen time.Time
	RunID     string
}

// RecordArtifact records that identity obtained an artifact. When the
// artifact is already recorded, the earlier timestamp wins.
func (l *Ledger) RecordArtifact(ctx context.Context, a Artifact) error {
	query := `
	INSERT INTO artifacts (identity, kind, year, day, part, stem, first_seen, run_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(identity, kind, year, day, part, stem) DO UPDATE SET
		first_seen = excluded.first_seen,
		run_id = excluded.run_id
	WHERE excluded.first_seen < artifacts.first_seen
	`

	_, err := l.db.ExecContext(ctx, query,
		string(a.Identity),
		string(a.Kind),
		a.Key.Year,
		a.Key.Day,
		a.Key.Part,
		string(a.Stem),
		formatTimestamp(a.FirstSeen),
		a.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}
	return nil
}

// FirstSeen returns when identity first obtained the artifact.
// The boolean is false if it was never recorded.
func (l *Ledger) FirstSeen(ctx context.Context, identity model.Identity, kind model.Kind, key model.PuzzleKey, stem model.Stem) (time.Time, bool, error) {
	query := `
	SELECT first_seen FROM artifacts
	WHERE identity = ? AND kind = ? AND year = ? AND day = ? AND part = ? AND stem = ?
	`

	var timestamp string
	err := l.db.QueryRowContext(ctx, query,
		string(identity), string(kind), key.Year, key.Day, key.Part, string(stem),
	).Scan(&timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get first sighting: %w", err)
	}
	return parseTimestamp(timestamp), true, nil
}

// ArtifactFilter narrows ListArtifacts. Zero fields match everything.
type ArtifactFilter struct {
	Identity model.Identity
	Kind     model.Kind
	Year     int
}

// ListArtifacts returns provenance rows ordered by puzzle key.
func (l *Ledger) ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]Artifact, error) {
	query := `
	SELECT id, identity, kind, year, day, part, stem, first_seen, run_id
	FROM artifacts
	WHERE 1=1
	`
	args := make([]any, 0, 3)

	if filter.Identity.Known() {
		query += " AND identity = ?"
		args = append(args, string(filter.Identity))
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Year != 0 {
		query += " AND year = ?"
		args = append(args, filter.Year)
	}
	query += " ORDER BY year, day, part, identity"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var results []Artifact
	for rows.Next() {
		var (
			a                    Artifact
			identity, kind, stem string
			timestamp            string
		)
		if err := rows.Scan(&a.ID, &identity, &kind, &a.Key.Year, &a.Key.Day, &a.Key.Part, &stem, &timestamp, &a.RunID); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Identity = model.Identity(identity)
		a.Kind = model.Kind(kind)
		a.Stem = model.Stem(stem)
		a.FirstSeen = parseTimestamp(timestamp)
		results = append(results, a)
	}
	return results, rows.Err()
}

// FetchRecord is one page request.
type FetchRecord struct {
	ID        int64
	RunID     string
	Identity  model.Identity
	Path      string
	Source    string
	Bytes     int
	Waited    time.Duration
	Error     string
	Timestamp time.Time
}

// RecordFetch appends a fetch log row.
func (l *Ledger) RecordFetch(ctx context.Context, r FetchRecord) error {
	query := `
	INSERT INTO fetches (run_id, identity, path, source, bytes, waited_ms, error, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		r.RunID,
		string(r.Identity),
		r.Path,
		r.Source,
		r.Bytes,
		r.Waited.Milliseconds(),
		r.Error,
		formatTimestamp(r.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// FetchCounts summarizes the fetch log.
type FetchCounts struct {
	Total  int
	Failed int
	// BySource counts successful fetches per source.
	BySource map[string]int
}

// CountFetches summarizes the fetches of one run, or of all runs when runID
// is empty.
func (l *Ledger) CountFetches(ctx context.Context, runID string) (FetchCounts, error) {
	query := `
	SELECT source, error != '', COUNT(*) FROM fetches
	WHERE (? = '' OR run_id = ?)
	GROUP BY source, error != ''
	`

	rows, err := l.db.QueryContext(ctx, query, runID, runID)
	if err != nil {
		return FetchCounts{}, fmt.Errorf("failed to count fetches: %w", err)
	}
	defer rows.Close()

	counts := FetchCounts{BySource: make(map[string]int)}
	for rows.Next() {
		var (
			source string
			failed bool
			n      int
		)
		if err := rows.Scan(&source, &failed, &n); err != nil {
			return FetchCounts{}, fmt.Errorf("failed to scan fetch count: %w", err)
		}
		counts.Total += n
		if failed {
			counts.Failed += n
		} else {
			counts.BySource[source] += n
		}
	}
	return counts, rows.Err()
}

// LastRunID returns the run of the most recent fetch. The boolean is false
// for an empty log.
func (l *Ledger) LastRunID(ctx context.Context) (string, bool, error) {
	var runID string
	err := l.db.QueryRowContext(ctx, `SELECT run_id FROM fetches ORDER BY id DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read last run: %w", err)
	}
	return runID, true, nil
}

// Stats summarizes the ledger.
type Stats struct {
	Artifacts  int
	Identities int
	Fetches    int
	Runs       int
}

// Stats returns ledger-wide totals.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := l.db.QueryRowContext(ctx, `
	SELECT
		(SELECT COUNT(*) FROM artifacts),
		(SELECT COUNT(DISTINCT identity) FROM artifacts),
		(SELECT COUNT(*) FROM fetches),
		(SELECT COUNT(DISTINCT run_id) FROM fetches)
	`).Scan(&s.Artifacts, &s.Identities, &s.Fetches, &s.Runs)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read ledger stats: %w", err)
	}
	return s, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

// timestampFormats contains the timestamp formats the ledger may hold.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp tries each known format and returns zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
