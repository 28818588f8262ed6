// Package naming computes output file paths and avoids overwriting
// existing files.
package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Resolve returns desired if nothing exists at that path. Otherwise it
// appends "-1", "-2", ... to the file stem, keeping the extension, and
// returns the first candidate that does not exist.
//
// Resolve only reads the file system. The result is not reserved, so a
// concurrent writer can still claim it before the caller creates the file;
// callers should create it with O_EXCL.
func Resolve(desired string) (string, error) {
	free, err := notExists(desired)
	if err != nil || free {
		return desired, err
	}

	dir := filepath.Dir(desired)
	base := filepath.Base(desired)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, counter, ext))
		free, err := notExists(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
}

// notExists uses Lstat so a dangling symlink still counts as taken.
func notExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
