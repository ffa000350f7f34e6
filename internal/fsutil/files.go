package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ReadFileOpt reads path, reporting ok=false instead of an error when the
// file does not exist.
func ReadFileOpt(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// EnsureContainingDir creates the parent directory of the file at path.
func EnsureContainingDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("FS_CREATE_DIR: %s: %w", dir, err)
	}
	return nil
}

// RemoveDirIfExists deletes dir and everything below it. A missing dir is
// not an error.
func RemoveDirIfExists(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("FS_DELETE_DIR: %s: %w", dir, err)
	}
	return nil
}
