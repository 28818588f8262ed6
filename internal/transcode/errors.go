package transcode

import (
	"errors"
	"fmt"
)

var (
	// ErrIO indicates the source could not be read or inspected.
	ErrIO = errors.New("transcode i/o error")

	// ErrDecode indicates the input is not a recognized or intact image.
	ErrDecode = errors.New("decode image")

	// ErrEncode indicates the encoder rejected the pixel buffer or quality.
	ErrEncode = errors.New("encode webp")
)

// DecodeError wraps a decoder failure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode image: %v", e.Err) }

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// EncodeError wraps an encoder failure.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode webp: %v", e.Err) }

func (e *EncodeError) Unwrap() []error { return []error{ErrEncode, e.Err} }
