// Package app wires scanning, dispatch and settings into the command
// surface used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/webpress/internal/config"
	"github.com/vmunix/webpress/internal/dispatch"
	"github.com/vmunix/webpress/internal/scan"
)

// ErrNoOutputPath is returned when a batch has no output root and none is
// remembered or configured.
var ErrNoOutputPath = errors.New("no output path")

// Service is the application command surface.
type Service struct {
	dispatcher *dispatch.Dispatcher
	settings   *config.SettingsStore
	logger     *slog.Logger
}

func NewService(dispatcher *dispatch.Dispatcher, settings *config.SettingsStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger.With("component", "app"),
	}
}

// ListImagesUnderDirectory returns every supported image below root.
func (s *Service) ListImagesUnderDirectory(root string) ([]scan.Result, error) {
	results, err := scan.Images(root)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("scanned directory", "root", root, "images", len(results))
	return results, nil
}

// CompressBatch starts compressing tasks into outputRoot. It returns once
// the batch is accepted; per-image results arrive as events.
func (s *Service) CompressBatch(ctx context.Context, tasks []dispatch.Task, quality float32, outputRoot string, mirror bool) (*dispatch.Batch, error) {
	return s.dispatcher.Dispatch(ctx, tasks, dispatch.Options{
		Quality:    quality,
		OutputRoot: outputRoot,
		Mirror:     mirror,
	})
}

// GetOutputPath returns the remembered output directory, or "".
func (s *Service) GetOutputPath() (string, error) {
	return s.settings.Get()
}

// SetOutputPath remembers path as the output directory.
func (s *Service) SetOutputPath(path string) error {
	if err := s.settings.Set(path); err != nil {
		return err
	}
	s.logger.Debug("output path saved", "path", path)
	return nil
}

// ResolveOutputPath picks the output root for a batch: explicit wins, then
// the remembered path, then fallback.
func (s *Service) ResolveOutputPath(explicit, fallback string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	remembered, err := s.GetOutputPath()
	if err != nil {
		return "", err
	}
	if remembered != "" {
		return remembered, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoOutputPath
}

// TasksFor expands paths into tasks. Directories are scanned and keep their
// relative placement; files become explicit tasks.
func (s *Service) TasksFor(paths []string) ([]dispatch.Task, error) {
	var tasks []dispatch.Task
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}

		if info.IsDir() {
			results, err := s.ListImagesUnderDirectory(p)
			if err != nil {
				return nil, err
			}
			for _, r := range results {
				tasks = append(tasks, dispatch.Task{SourcePath: r.AbsPath, RelPath: r.RelPath})
			}
			continue
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		tasks = append(tasks, dispatch.Task{SourcePath: abs})
	}
	return tasks, nil
}

// TaskFromReader reads one encoded image from r into an in-memory task whose
// output is named after name.
func (s *Service) TaskFromReader(name string, r io.Reader) (dispatch.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dispatch.Task{}, fmt.Errorf("read %s: %w", name, err)
	}
	if data == nil {
		data = []byte{}
	}
	s.logger.Debug("read in-memory image", "name", name, "bytes", len(data))
	return dispatch.Task{Name: name, Data: data}, nil
}
