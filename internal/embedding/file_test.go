package embedding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	key := Key("mri brain")
	store.Put(key, []float32{0.1, 0.2, 0.3})
	require.NoError(t, store.Save())

	// Reopen and verify persistence.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	vec, ok := reopened.Get(key)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 1, reopened.Len())
}

func TestFileStoreMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Zero(t, store.Len())

	_, ok := store.Get(Key("anything"))
	assert.False(t, ok)
}

func TestFileStoreCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not json{"), 0644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	// Nothing written yet; Save must not create the file.
	require.NoError(t, store.Save())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	store.Put(Key("x"), []float32{1})
	require.NoError(t, store.Save())
	_, statErr = os.Stat(path)
	assert.NoError(t, statErr)
}

func TestFileStoreNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	store.Put(Key("x"), []float32{1, 2})
	require.NoError(t, store.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.json", entries[0].Name())
}

func TestFileStoreCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	store.Put(Key("x"), []float32{1})
	require.NoError(t, store.Save())

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
