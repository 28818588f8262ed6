package dispatch

import "path/filepath"

// fallbackName is the output stem for in-memory tasks without a usable name.
const fallbackName = "image"

// Task is one source image to compress. It is either a file on disk
// (SourcePath, optionally RelPath) or an in-memory image (Name, Data).
type Task struct {
	SourcePath string `json:"source_path,omitempty"`
	// RelPath is the source path relative to a scan root. Empty for
	// explicitly listed files.
	RelPath string `json:"relative_path,omitempty"`

	// Name is the original file name of an in-memory image; only its base
	// is used, as the output stem.
	Name string `json:"name,omitempty"`
	// Data holds the encoded source image. A non-nil Data makes this an
	// in-memory task and SourcePath is ignored.
	Data []byte `json:"-"`
}

// InMemory reports whether the task carries its own image bytes.
func (t Task) InMemory() bool {
	return t.Data != nil
}

// Source identifies the task's input in events and logs.
func (t Task) Source() string {
	if t.InMemory() {
		return t.name()
	}
	return t.SourcePath
}

func (t Task) name() string {
	base := filepath.Base(t.Name)
	if t.Name == "" || base == "." || base == string(filepath.Separator) {
		return fallbackName
	}
	return base
}

// Options apply to every task of a batch.
type Options struct {
	Quality    float32 // 0-100, passed to the encoder unchecked
	OutputRoot string
	Mirror     bool // recreate RelPath's directories under OutputRoot
}

// Outcome describes one written output file.
type Outcome struct {
	FinalPath      string
	OriginalSize   int64
	CompressedSize int64
}

// Batch is the handle for one dispatch call.
type Batch struct {
	ID    string
	Tasks int

	done chan struct{}
}

// Done is closed once every task has finished or failed.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until every task has finished or failed.
func (b *Batch) Wait() {
	<-b.done
}
