package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportArchiveSaveAndList(t *testing.T) {
	archive, err := NewImportArchive(t.TempDir())
	require.NoError(t, err)

	rel, err := archive.Save("c1", []byte("day,time_slot,subject,faculty\n"))
	require.NoError(t, err)
	assert.Equal(t, "c1", filepath.Dir(rel))
	assert.Equal(t, ".csv", filepath.Ext(rel))

	names, err := archive.List("c1")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, filepath.Base(rel), names[0])
}

func TestImportArchiveRejectsEmptyClassroom(t *testing.T) {
	archive, err := NewImportArchive(t.TempDir())
	require.NoError(t, err)

	_, err = archive.Save("", []byte("x"))
	assert.Error(t, err)
}

func TestImportArchiveListUnknownClassroom(t *testing.T) {
	archive, err := NewImportArchive(t.TempDir())
	require.NoError(t, err)

	names, err := archive.List("nope")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestImportArchiveCleanup(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewImportArchive(dir)
	require.NoError(t, err)

	rel, err := archive.Save("c1", []byte("old"))
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, rel), old, old))

	fresh, err := archive.Save("c2", []byte("fresh"))
	require.NoError(t, err)

	deleted, err := archive.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{rel}, deleted)

	names, err := archive.List("c2")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, filepath.Base(fresh), names[0])
}
