package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsStore_GetMissingFile(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "settings.toml"))

	got, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSettingsStore_SetThenGet(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "webpress", "settings.toml"))

	require.NoError(t, store.Set("/tmp/out"))
	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", got)

	require.NoError(t, store.Set("/srv/images"))
	got, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, "/srv/images", got)
}

func TestSettingsStore_RecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store := NewSettingsStore(path)
	require.NoError(t, store.Set("/tmp/out"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "output_path = \"/tmp/out\"\n", string(data))
}

func TestSettingsStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewSettingsStore(filepath.Join(dir, "settings.toml"))
	require.NoError(t, store.Set("/a"))
	require.NoError(t, store.Set("/b"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "settings.toml", entries[0].Name())
}

func TestSettingsStore_ReadsHandWrittenRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("# remembered\noutput_path = '/mnt/photos'\n"), 0644))

	got, err := NewSettingsStore(path).Get()
	require.NoError(t, err)
	assert.Equal(t, "/mnt/photos", got)
}

func TestSettingsStore_EmptyRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	got, err := NewSettingsStore(path).Get()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSettingsStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("output_path = [unterminated"), 0644))

	_, err := NewSettingsStore(path).Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSettings)
}

func TestSettingsStore_Unreadable(t *testing.T) {
	// A directory at the record path cannot be read as a file.
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.Mkdir(path, 0755))

	_, err := NewSettingsStore(path).Get()
	assert.ErrorIs(t, err, ErrSettings)
}

func TestSettingsStore_SetFailure(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits not enforced")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(dir, 0555))

	err := NewSettingsStore(filepath.Join(dir, "settings.toml")).Set("/x")
	assert.ErrorIs(t, err, ErrSettings)
}
