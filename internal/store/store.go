package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nao1215/puzzlecrawl/internal/fsutil"
	"github.com/nao1215/puzzlecrawl/internal/model"
)

// FileExt is the extension of every stored artifact.
const FileExt = ".txt"

// filePerm is the permission of stored artifacts.
const filePerm = 0o644

var (
	// ErrCollision is the error form of ResultCollision.
	ErrCollision = errors.New("different content already stored at path")

	// ErrInvalidKind is returned for unknown artifact kinds.
	ErrInvalidKind = errors.New("invalid artifact kind")

	// ErrPartRequired is returned when an answer key has no part.
	ErrPartRequired = errors.New("answer key requires a part")
)

// WriteResult is the outcome of WriteIfAbsent.
type WriteResult int

const (
	// ResultCreated means the file did not exist and was written.
	ResultCreated WriteResult = iota

	// ResultUnchanged means the file already held identical content.
	ResultUnchanged

	// ResultCollision means the file held different content and was kept.
	ResultCollision
)

// String returns the result name used in logs and metrics labels.
func (r WriteResult) String() string {
	switch r {
	case ResultCreated:
		return "created"
	case ResultUnchanged:
		return "unchanged"
	case ResultCollision:
		return "collision"
	default:
		return "unknown"
	}
}

// Err returns ErrCollision for ResultCollision and nil otherwise.
func (r WriteResult) Err() error {
	if r == ResultCollision {
		return ErrCollision
	}
	return nil
}

// Store is a content-addressed artifact tree on the local filesystem.
type Store struct {
	root   string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store rooted at root. Directories are created on demand.
func New(root string, opts ...Option) *Store {
	s := &Store{root: root}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Root returns the store root.
func (s *Store) Root() string {
	return s.root
}

// PathFor returns the location of an artifact.
func (s *Store) PathFor(kind model.Kind, key model.PuzzleKey, stem model.Stem) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if err := key.Validate(); err != nil {
		return "", err
	}
	if err := stem.Validate(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, fmt.Sprintf("%04d", key.Year), fmt.Sprintf("%02d", key.Day), kind.Dir())
	if kind == model.KindAnswer {
		if key.Part == 0 {
			return "", ErrPartRequired
		}
		dir = filepath.Join(dir, strconv.Itoa(key.Part))
	}
	return filepath.Join(dir, string(stem)+FileExt), nil
}

// WriteIfAbsent writes content to path unless the path is occupied.
// The file appears complete or not at all. An occupied path is compared
// byte for byte: identical content yields ResultUnchanged, different content
// is logged and yields ResultCollision.
func (s *Store) WriteIfAbsent(path string, content []byte) (WriteResult, error) {
	existing, ok, err := s.Read(path)
	if err != nil {
		return 0, err
	}
	if !ok {
		err := fsutil.WriteFileExclusive(path, content, filePerm)
		if err == nil {
			s.logger.Debug("created artifact", "path", path)
			return ResultCreated, nil
		}
		if !errors.Is(err, fsutil.ErrExists) {
			return 0, fmt.Errorf("failed to write artifact %s: %w", path, err)
		}
		// Another writer got there first; judge its content instead.
		if existing, _, err = s.Read(path); err != nil {
			return 0, err
		}
	}

	if bytes.Equal(existing, content) {
		s.logger.Debug("reusing artifact", "path", path)
		return ResultUnchanged, nil
	}

	s.logger.Warn("artifact collision, keeping existing content",
		"path", path,
		"existing_bytes", len(existing),
		"new_bytes", len(content),
	)
	return ResultCollision, nil
}

// Put stores a blob at its content address.
func (s *Store) Put(blob model.ContentBlob) (WriteResult, string, error) {
	path, err := s.PathFor(blob.Kind, blob.Key, blob.Stem)
	if err != nil {
		return 0, "", err
	}
	result, err := s.WriteIfAbsent(path, blob.Content)
	return result, path, err
}

// Read returns the content at path. The boolean is false if absent.
func (s *Store) Read(path string) ([]byte, bool, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path built by PathFor
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return content, true, nil
}

// Exists reports whether an artifact is present at path.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreatePlaceholder creates an empty artifact for content that is curated by
// hand. An existing file is kept and a warning logged. The boolean reports
// whether a file was created.
func (s *Store) CreatePlaceholder(path string) (bool, error) {
	return s.createCurated(path, nil)
}

// CreateCurated is CreatePlaceholder with initial content.
func (s *Store) CreateCurated(path string, content []byte) (bool, error) {
	return s.createCurated(path, content)
}

func (s *Store) createCurated(path string, content []byte) (bool, error) {
	err := fsutil.WriteFileExclusive(path, content, filePerm)
	if errors.Is(err, fsutil.ErrExists) {
		s.logger.Warn("artifact already exists", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create artifact %s: %w", path, err)
	}
	s.logger.Debug("created curated artifact", "path", path, "bytes", len(content))
	return true, nil
}
