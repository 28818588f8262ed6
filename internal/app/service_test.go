package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/webpress/internal/config"
	"github.com/vmunix/webpress/internal/dispatch"
	"github.com/vmunix/webpress/internal/events"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func newTestService(t *testing.T) (*Service, *events.Bus) {
	t.Helper()
	bus := events.NewBus(nil, nil)
	t.Cleanup(func() { _ = bus.Close() })

	settings := config.NewSettingsStore(filepath.Join(t.TempDir(), "settings.toml"))
	return NewService(dispatch.NewDispatcher(bus, 2, nil), settings, nil), bus
}

func collect(t *testing.T, ch <-chan events.Event, n int) []events.Event {
	t.Helper()
	var got []events.Event
	timeout := time.After(10 * time.Second)
	for len(got) < n {
		select {
		case e := <-ch:
			got = append(got, e)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(got), n)
		}
	}
	return got
}

func TestService_ListImagesUnderDirectory(t *testing.T) {
	svc, _ := newTestService(t)
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a.png"))
	writePNG(t, filepath.Join(root, "sub", "b.png"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	results, err := svc.ListImagesUnderDirectory(root)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.png", results[0].RelPath)
	assert.Equal(t, filepath.Join("sub", "b.png"), results[1].RelPath)
}

func TestService_CompressBatch(t *testing.T) {
	svc, bus := newTestService(t)
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "x", "one.png"))
	writePNG(t, filepath.Join(src, "two.png"))
	out := filepath.Join(t.TempDir(), "out")

	tasks, err := svc.TasksFor([]string{src})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	ch := bus.Subscribe(len(tasks), events.EventImageCompressed, events.EventImageFailed)
	batch, err := svc.CompressBatch(context.Background(), tasks, 75, out, true)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Tasks)

	for _, e := range collect(t, ch, 2) {
		require.Equal(t, events.EventImageCompressed, e.EventType())
	}
	batch.Wait()

	assert.FileExists(t, filepath.Join(out, "x", "one.webp"))
	assert.FileExists(t, filepath.Join(out, "two.webp"))
}

func TestService_CompressBatch_OutputRootFailure(t *testing.T) {
	svc, _ := newTestService(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := svc.CompressBatch(context.Background(), nil, 75, filepath.Join(blocker, "out"), false)
	assert.ErrorIs(t, err, dispatch.ErrIO)
}

func TestService_OutputPath(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.GetOutputPath()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, svc.SetOutputPath("/tmp/out"))
	got, err = svc.GetOutputPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", got)
}

func TestService_ResolveOutputPath(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ResolveOutputPath("", "")
	assert.ErrorIs(t, err, ErrNoOutputPath)

	got, err := svc.ResolveOutputPath("", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/fallback", got)

	require.NoError(t, svc.SetOutputPath("/remembered"))
	got, err = svc.ResolveOutputPath("", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/remembered", got)

	got, err = svc.ResolveOutputPath("/explicit", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/explicit", got)
}

func TestService_TasksFor(t *testing.T) {
	svc, _ := newTestService(t)
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "dir", "a.png"))
	writePNG(t, filepath.Join(root, "loose.png"))

	tasks, err := svc.TasksFor([]string{filepath.Join(root, "dir"), filepath.Join(root, "loose.png")})
	require.NoError(t, err)
	assert.Equal(t, []dispatch.Task{
		{SourcePath: filepath.Join(root, "dir", "a.png"), RelPath: "a.png"},
		{SourcePath: filepath.Join(root, "loose.png")},
	}, tasks)

	_, err = svc.TasksFor([]string{filepath.Join(root, "missing.png")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestService_TaskFromReader(t *testing.T) {
	svc, _ := newTestService(t)

	task, err := svc.TaskFromReader("scan.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, dispatch.Task{Name: "scan.png", Data: []byte("pixels")}, task)
	assert.True(t, task.InMemory())

	empty, err := svc.TaskFromReader("empty.png", strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, empty.InMemory(), "empty input is still an in-memory task")

	_, err = svc.TaskFromReader("broken", iotest.ErrReader(errors.New("pipe closed")))
	assert.ErrorContains(t, err, "pipe closed")
}
