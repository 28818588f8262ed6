package dispatch

import "errors"

var (
	// ErrIO indicates a directory or output file could not be created or written.
	ErrIO = errors.New("dispatch i/o error")

	// ErrDestinationExists indicates the resolved output name was claimed by
	// another writer between resolution and creation.
	ErrDestinationExists = errors.New("destination file already exists")
)
