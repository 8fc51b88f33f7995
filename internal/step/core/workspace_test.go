package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridflow/gridflow/internal/shared/logging"
	"github.com/gridflow/gridflow/internal/storage"
	"github.com/gridflow/gridflow/internal/uri"
)

func localURI(t *testing.T, path string) uri.URI {
	t.Helper()
	parsed, err := uri.Parse(path)
	require.NoError(t, err)
	return parsed
}

func TestInitOutput_CreatesLocation(t *testing.T) {
	store := storage.NewLocalManager()
	out := localURI(t, filepath.Join(t.TempDir(), "out"))

	require.NoError(t, InitOutput(store, out, false, logging.NewNop()))
	require.True(t, store.Exists(out))
}

func TestInitOutput_IdempotentWithoutClean(t *testing.T) {
	store := storage.NewLocalManager()
	dir := filepath.Join(t.TempDir(), "out")
	out := localURI(t, dir)

	require.NoError(t, InitOutput(store, out, false, logging.NewNop()))
	marker := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(marker, []byte("keep"), 0o644))

	// A second init without clean never deletes existing contents.
	require.NoError(t, InitOutput(store, out, false, logging.NewNop()))
	_, err := os.Stat(marker)
	require.NoError(t, err)
}

func TestInitOutput_CleanRemovesExistingContents(t *testing.T) {
	store := storage.NewLocalManager()
	dir := filepath.Join(t.TempDir(), "out")
	out := localURI(t, dir)

	require.NoError(t, InitOutput(store, out, false, logging.NewNop()))
	marker := filepath.Join(dir, "stale.txt")
	require.NoError(t, os.WriteFile(marker, []byte("stale"), 0o644))

	require.NoError(t, InitOutput(store, out, true, logging.NewNop()))
	require.True(t, store.Exists(out))
	_, err := os.Stat(marker)
	require.True(t, os.IsNotExist(err))
}

func TestInitOutput_SchemeMismatch(t *testing.T) {
	store := storage.NewLocalManager()
	out := localURI(t, "agave://storage/out")

	err := InitOutput(store, out, false, logging.NewNop())
	require.True(t, errors.Is(err, ErrAddressing))
}

func TestEnumerateMap(t *testing.T) {
	store := storage.NewLocalManager()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.fq"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.fq"), []byte("x"), 0o644))

	names, err := EnumerateMap(store, localURI(t, dir))
	require.NoError(t, err)
	require.Equal(t, []string{"a.fq", "b.fq"}, names)
}

func TestEnumerateMap_Failures(t *testing.T) {
	store := storage.NewLocalManager()

	_, err := EnumerateMap(store, localURI(t, "agave://storage/data"))
	require.True(t, errors.Is(err, ErrAddressing))

	_, err = EnumerateMap(store, localURI(t, filepath.Join(t.TempDir(), "missing")))
	require.True(t, errors.Is(err, ErrStorage))
}
