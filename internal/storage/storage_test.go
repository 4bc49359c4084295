package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, "/public")

	url, storagePath, err := store.Save("teams/abc.png", []byte("logo-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/public/teams/abc.png", url)

	data, err := os.ReadFile(storagePath)
	require.NoError(t, err)
	assert.Equal(t, "logo-bytes", string(data))

	require.NoError(t, store.Delete(storagePath))
	_, err = os.Stat(storagePath)
	assert.True(t, os.IsNotExist(err))

	// Deleting again is not an error.
	require.NoError(t, store.Delete(storagePath))
}

func TestDiskStoreSandboxesPaths(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, "/public")

	_, storagePath, err := store.Save("../../escape.png", []byte("x"))
	require.NoError(t, err)

	rel, err := filepath.Rel(dir, storagePath)
	require.NoError(t, err)
	assert.NotContains(t, rel, "..", "stored file must stay under the store root")
}

func TestDiskStoreDeleteEmptyPath(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/public")
	assert.NoError(t, store.Delete(""))
}
