package naming

import "errors"

// ErrPathTraversal indicates a relative placement would escape the output root.
var ErrPathTraversal = errors.New("path traversal detected")
