package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportStoreSaveAndOpen(t *testing.T) {
	store, err := NewExportStore(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("2025-2026/10A1.csv", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "2025-2026/10A1.csv", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	buf := make([]byte, 16)
	n, _ := file.Read(buf)
	assert.Equal(t, "payload", string(buf[:n]))
}

func TestExportStoreDeleteIsIdempotent(t *testing.T) {
	store, err := NewExportStore(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("a/b.csv", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(rel))
	_, err = store.Open(rel)
	assert.Error(t, err)

	// A second delete of the same path must not fail.
	assert.NoError(t, store.Delete(rel))
}

func TestExportStoreCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewExportStore(dir)
	require.NoError(t, err)

	_, err = store.Save("2025-2026/stale.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("2025-2026/fresh.csv", []byte("new"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "2025-2026", "stale.csv"), past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("2025-2026", "stale.csv")}, deleted)

	file, err := store.Open("2025-2026/fresh.csv")
	require.NoError(t, err)
	file.Close() //nolint:errcheck
}
