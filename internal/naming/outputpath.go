package naming

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TargetExt is the extension of every output file.
const TargetExt = ".webp"

// OutputPath builds the desired output path for one source image.
//
//	mirror, rel set:  <root>/<dir(rel)>/<stem(rel)>.webp
//	otherwise:        <root>/<stem(source)>.webp
//
// The stem is NFC-normalized so decomposed names (as produced by macOS
// file systems) map to the same output name as their composed form.
// ErrPathTraversal is returned if rel would place the file outside root.
func OutputPath(root, source, rel string, mirror bool) (string, error) {
	if mirror && rel != "" {
		rel = filepath.Clean(rel)
		path := filepath.Join(root, filepath.Dir(rel), outputName(filepath.Base(rel)))
		if err := ValidatePath(path, root); err != nil {
			return "", err
		}
		return path, nil
	}
	return filepath.Join(root, outputName(filepath.Base(source))), nil
}

func outputName(base string) string {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return norm.NFC.String(stem) + TargetExt
}

// ValidatePath ensures path lies strictly within root.
func ValidatePath(path, root string) error {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(root)

	if !strings.HasSuffix(cleanRoot, string(filepath.Separator)) {
		cleanRoot += string(filepath.Separator)
	}
	if !strings.HasPrefix(cleanPath, cleanRoot) {
		return ErrPathTraversal
	}
	return nil
}
