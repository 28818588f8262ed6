// Package scan discovers image files under a directory tree.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNotADirectory indicates the scan root is missing or not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIO indicates a directory could not be listed.
	ErrIO = errors.New("scan i/o error")
)

// IOError reports a directory that could not be listed or inspected.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// Result is one discovered image.
type Result struct {
	AbsPath string `json:"absolute_path"`
	RelPath string `json:"relative_path"` // AbsPath with the scan root stripped
}

// Supported image extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsImageFile reports whether path has a supported image extension.
// Matching is case-insensitive.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Images walks root depth-first and returns every file with a supported
// image extension. Results are sorted by RelPath.
//
// Directories are visited from an explicit stack. Symlinked directories are
// not descended into, so link cycles cannot loop the walk; symlinks that
// resolve to regular files are reported like regular files.
func Images(root string) ([]Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &IOError{Path: root, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
		}
		return nil, &IOError{Path: abs, Err: err}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	var results []Result
	stack := []string{abs}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &IOError{Path: dir, Err: err}
		}

		for _, d := range entries {
			path := filepath.Join(dir, d.Name())
			if d.IsDir() {
				stack = append(stack, path)
				continue
			}
			if !IsImageFile(path) || !isFile(path, d) {
				continue
			}

			rel, err := filepath.Rel(abs, path)
			if err != nil {
				return nil, &IOError{Path: path, Err: err}
			}
			results = append(results, Result{AbsPath: path, RelPath: rel})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].RelPath < results[j].RelPath })
	return results, nil
}

func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	// Dangling links are skipped.
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
