package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/webpress/internal/config"
	"github.com/vmunix/webpress/internal/dispatch"
	"github.com/vmunix/webpress/internal/events"
)

var compressCmd = &cobra.Command{
	Use:   "compress <file|dir|->...",
	Short: "Compress images to WebP",
	Long: `Compress images to WebP.

Directories are scanned for supported images; files are compressed as given.
A "-" argument reads one image from standard input, written as --name.
Output goes to --output, else the remembered output path, else the
compress.output_dir config value. An explicit --output is remembered.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompressCmd,
}

func init() {
	rootCmd.AddCommand(compressCmd)
	compressCmd.Flags().Float32P("quality", "q", 0, "WebP quality 0-100 (default from config)")
	compressCmd.Flags().StringP("output", "o", "", "Output directory")
	compressCmd.Flags().Bool("mirror", false, "Recreate scanned directory structure under the output directory")
	compressCmd.Flags().String("name", "stdin", "File name for the image read from \"-\"")
}

// batchSummary is the JSON output of compress.
type batchSummary struct {
	BatchID         string                    `json:"batch_id"`
	OutputRoot      string                    `json:"output_root"`
	Tasks           int                       `json:"tasks"`
	Compressed      []*events.ImageCompressed `json:"compressed"`
	Failed          []*events.ImageFailed     `json:"failed"`
	OriginalBytes   int64                     `json:"original_bytes"`
	CompressedBytes int64                     `json:"compressed_bytes"`
}

func (s *batchSummary) add(e events.Event) {
	switch ev := e.(type) {
	case *events.ImageCompressed:
		s.Compressed = append(s.Compressed, ev)
		s.OriginalBytes += ev.OriginalSize
		s.CompressedBytes += ev.CompressedSize
	case *events.ImageFailed:
		s.Failed = append(s.Failed, ev)
	}
}

func (s *batchSummary) received() int {
	return len(s.Compressed) + len(s.Failed)
}

func runCompressCmd(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	quality := e.cfg.Compress.QualityValue()
	if cmd.Flags().Changed("quality") {
		quality, _ = cmd.Flags().GetFloat32("quality")
		if err := config.CheckQuality(quality); err != nil {
			return fmt.Errorf("--quality: %w", err)
		}
	}

	e.startService()
	defer e.Close()

	output, _ := cmd.Flags().GetString("output")
	mirror := e.cfg.Compress.Mirror
	if cmd.Flags().Changed("mirror") {
		mirror, _ = cmd.Flags().GetBool("mirror")
	}

	root, err := e.svc.ResolveOutputPath(output, e.cfg.Compress.OutputDir)
	if err != nil {
		return fmt.Errorf("%w: pass --output or run 'webpress config set output_path <dir>'", err)
	}
	if root, err = filepath.Abs(root); err != nil {
		return err
	}

	paths, fromStdin := splitStdinArg(args)
	tasks, err := e.svc.TasksFor(paths)
	if err != nil {
		return err
	}
	if fromStdin {
		name, _ := cmd.Flags().GetString("name")
		task, err := e.svc.TaskFromReader(name, cmd.InOrStdin())
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		fmt.Println("No images found")
		return nil
	}

	ch := e.bus.Subscribe(len(tasks), events.EventImageCompressed, events.EventImageFailed)
	batch, err := e.svc.CompressBatch(cmd.Context(), tasks, quality, root, mirror)
	if err != nil {
		return err
	}

	if output != "" {
		if err := e.svc.SetOutputPath(root); err != nil {
			e.logger.Warn("failed to remember output path", "error", err)
		}
	}

	summary := &batchSummary{BatchID: batch.ID, OutputRoot: root, Tasks: batch.Tasks}
	if !jsonOutput {
		fmt.Printf("Compressing %d images into %s (quality %g, %d workers)\n\n", batch.Tasks, root, quality, e.dispatcher.Workers())
	}
	collectBatch(batch, ch, func(ev events.Event) {
		summary.add(ev)
		if !jsonOutput {
			printEventLine(ev)
		}
	})

	if jsonOutput {
		printJSON(summary)
	} else {
		printSummary(summary)
	}

	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d images failed", len(summary.Failed), summary.Tasks)
	}
	return nil
}

// splitStdinArg removes every "-" from args and reports whether one was
// present. Standard input is read once however often "-" appears.
func splitStdinArg(args []string) (paths []string, stdin bool) {
	for _, a := range args {
		if a == "-" {
			stdin = true
			continue
		}
		paths = append(paths, a)
	}
	return paths, stdin
}

// collectBatch forwards this batch's per-image events until one has arrived
// for every task or the batch finishes. Events already buffered when the
// batch finishes are still delivered. Batch-level events and events from
// other batches are skipped.
func collectBatch(batch *dispatch.Batch, ch <-chan events.Event, fn func(events.Event)) {
	received := 0
	handle := func(ev events.Event) {
		if ev.EntityType() != events.EntityImage {
			return
		}
		if b, ok := ev.(events.Batched); ok && b.Batch() != batch.ID {
			return
		}
		fn(ev)
		received++
	}

	for received < batch.Tasks {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			handle(ev)
		case <-batch.Done():
			for received < batch.Tasks {
				select {
				case ev, ok := <-ch:
					if !ok {
						return
					}
					handle(ev)
				default:
					return
				}
			}
		}
	}
}

func printEventLine(e events.Event) {
	switch ev := e.(type) {
	case *events.ImageCompressed:
		fmt.Printf("  ok    %s -> %s (%s -> %s, %.0f%%)\n",
			ev.SourcePath, ev.FinalPath,
			humanize.Bytes(uint64(ev.OriginalSize)), humanize.Bytes(uint64(ev.CompressedSize)),
			ev.Ratio()*100)
	case *events.ImageFailed:
		fmt.Printf("  FAIL  %s: %s\n", ev.SourcePath, ev.Reason)
	}
}

func printSummary(s *batchSummary) {
	fmt.Printf("\n%d compressed, %d failed of %d", len(s.Compressed), len(s.Failed), s.Tasks)
	if missing := s.Tasks - s.received(); missing > 0 {
		fmt.Printf(" (%d unreported)", missing)
	}
	fmt.Println()
	if s.OriginalBytes > 0 {
		fmt.Printf("%s -> %s (saved %s)\n",
			humanize.Bytes(uint64(s.OriginalBytes)),
			humanize.Bytes(uint64(s.CompressedBytes)),
			humanize.Bytes(uint64(max(s.OriginalBytes-s.CompressedBytes, 0))))
	}
}
