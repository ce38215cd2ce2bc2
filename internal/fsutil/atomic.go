package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrExists is returned by WriteFileExclusive when the target already exists.
var ErrExists = errors.New("file already exists")

// DirPerm is the permission used for directories created on demand.
const DirPerm = 0o750

// WriteFileAtomic writes content to path using a temp file and rename.
// Readers observe either the previous file or the complete new one.
func WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	tmpPath, err := writeTemp(path, content, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteFileExclusive writes content to path only if path does not exist.
// The file appears fully written or not at all; when another writer wins
// the race, ErrExists is returned and the existing file is left untouched.
func WriteFileExclusive(path string, content []byte, perm os.FileMode) error {
	tmpPath, err := writeTemp(path, content, perm)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	// link(2) refuses to replace an existing target.
	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("linking temp file: %w", err)
	}
	return nil
}

func writeTemp(path string, content []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Same directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("syncing to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return "", fmt.Errorf("setting permissions: %w", err)
	}

	success = true
	return tmpPath, nil
}
