package dispatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// writeExclusive creates path and writes data to it. It never replaces an
// existing file: if path already exists it returns ErrDestinationExists.
// A partially written file is removed.
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, path)
		}
		return fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("%w: sync %s: %v", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	return nil
}
