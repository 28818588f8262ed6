// Package dispatch runs batches of image compression tasks on a bounded
// worker pool and reports each result as an event.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/webpress/internal/events"
	"github.com/vmunix/webpress/internal/naming"
	"github.com/vmunix/webpress/internal/transcode"
)

// Dispatcher fans tasks out across a fixed number of workers.
type Dispatcher struct {
	pub     Publisher
	workers int
	logger  *slog.Logger

	// encode and encodeData are transcode.File and transcode.Encode;
	// replaced in tests.
	encode     func(path string, quality float32) (*transcode.Result, error)
	encodeData func(data []byte, quality float32) (*transcode.Result, error)
}

// NewDispatcher creates a dispatcher. workers <= 0 means GOMAXPROCS.
func NewDispatcher(pub Publisher, workers int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{
		pub:     pub,
		workers: workers,
		logger:  logger,
		encode:     transcode.File,
		encodeData: transcode.Encode,
	}
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Dispatch creates the output root and starts compressing tasks in the
// background. It returns before any task completes.
//
// Each task produces exactly one event: ImageCompressed on success or
// ImageFailed, plus an error log record, on failure. A failing task never
// affects the others. The only error returned is failure to create the
// output root, in which case no task runs. Batches cannot be cancelled;
// cancellation of ctx is ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []Task, opts Options) (*Batch, error) {
	if opts.OutputRoot == "" {
		return nil, fmt.Errorf("%w: output root is empty", ErrIO)
	}
	if err := os.MkdirAll(opts.OutputRoot, 0755); err != nil {
		return nil, fmt.Errorf("%w: create output root: %v", ErrIO, err)
	}

	ctx = context.WithoutCancel(ctx)
	tasks = slices.Clone(tasks)
	batch := &Batch{
		ID:    uuid.NewString(),
		Tasks: len(tasks),
		done:  make(chan struct{}),
	}
	logger := d.logger.With("batch_id", batch.ID)

	d.publish(ctx, logger, &events.BatchStarted{
		BaseEvent:  events.NewBatchEvent(events.EventBatchStarted),
		BatchID:    batch.ID,
		TaskCount:  len(tasks),
		OutputRoot: opts.OutputRoot,
		Quality:    opts.Quality,
		Mirror:     opts.Mirror,
	})
	logger.Info("batch started",
		"tasks", len(tasks),
		"workers", d.workers,
		"output_root", opts.OutputRoot,
		"quality", opts.Quality,
		"mirror", opts.Mirror)

	go func() {
		defer close(batch.done)

		var g errgroup.Group
		g.SetLimit(d.workers)
		for i, t := range tasks {
			g.Go(func() error {
				d.run(ctx, logger, batch.ID, i, t, opts)
				return nil
			})
		}
		_ = g.Wait()

		logger.Debug("batch workers finished", "tasks", len(tasks))
	}()

	return batch, nil
}

// run executes one task and publishes its event.
func (d *Dispatcher) run(ctx context.Context, logger *slog.Logger, batchID string, idx int, t Task, opts Options) {
	logger = logger.With("task", idx, "source", t.Source())

	out, err := d.process(t, opts)
	if err != nil {
		logger.Error("compress failed", "error", err)
		d.publish(ctx, logger, &events.ImageFailed{
			BaseEvent:  events.NewImageEvent(events.EventImageFailed, idx),
			BatchID:    batchID,
			SourcePath: t.Source(),
			Reason:     err.Error(),
		})
		return
	}

	logger.Debug("compressed",
		"dest", out.FinalPath,
		"original_size", out.OriginalSize,
		"compressed_size", out.CompressedSize)
	d.publish(ctx, logger, &events.ImageCompressed{
		BaseEvent:      events.NewImageEvent(events.EventImageCompressed, idx),
		BatchID:        batchID,
		SourcePath:     t.Source(),
		FinalPath:      out.FinalPath,
		OriginalSize:   out.OriginalSize,
		CompressedSize: out.CompressedSize,
	})
}

// process transcodes t, picks a collision-free output path and writes it.
func (d *Dispatcher) process(t Task, opts Options) (out *Outcome, err error) {
	// A codec panic fails this task only.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	var (
		res     *transcode.Result
		desired string
	)
	if t.InMemory() {
		// In-memory images have no tree to mirror.
		if res, err = d.encodeData(t.Data, opts.Quality); err != nil {
			return nil, err
		}
		desired, err = naming.OutputPath(opts.OutputRoot, t.name(), "", false)
	} else {
		if res, err = d.encode(t.SourcePath, opts.Quality); err != nil {
			return nil, err
		}
		desired, err = naming.OutputPath(opts.OutputRoot, t.SourcePath, t.RelPath, opts.Mirror)
	}
	if err != nil {
		return nil, err
	}
	// Concurrent callers may race here; MkdirAll tolerates existing dirs.
	if err := os.MkdirAll(filepath.Dir(desired), 0755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrIO, err)
	}

	final, err := naming.Resolve(desired)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := writeExclusive(final, res.Data); err != nil {
		return nil, err
	}

	return &Outcome{
		FinalPath:      final,
		OriginalSize:   res.OriginalSize,
		CompressedSize: res.CompressedSize,
	}, nil
}

func (d *Dispatcher) publish(ctx context.Context, logger *slog.Logger, e events.Event) {
	if d.pub == nil {
		return
	}
	if err := d.pub.Publish(ctx, e); err != nil {
		logger.Error("failed to publish event", "type", e.EventType(), "error", err)
	}
}
