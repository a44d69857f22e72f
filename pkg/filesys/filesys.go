// Package filesys provides the small set of file system helpers the store
// actually needs: creating its data directory, checking whether a path
// exists, and listing segment/catalog files.
package filesys

import (
	"errors"
	"os"
	"path/filepath"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at the specified path with the given permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		if err == nil {
			return os.ErrExist
		}
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, permission)
}

// DeleteDir deletes a directory and all its contents recursively.
func DeleteDir(path string) error {
	return os.RemoveAll(path)
}

// ReadDir reads the directory specified by `dirName` and returns a list of
// matching file paths. `dirName` may contain glob patterns (e.g. "mydir/*").
func ReadDir(dirName string) ([]string, error) {
	return filepath.Glob(dirName)
}

// Exists checks if a file or directory at the given `path` exists.
// It returns true if the file/directory exists, false if it does not,
// and an error if there's any other issue checking its status.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
