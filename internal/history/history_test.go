package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Append("echo hi", "/tmp", "session-1")
	require.NoError(t, err)
	_, err = store.Append("ls", "/tmp", "session-1")
	require.NoError(t, err)

	entries, err := store.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Oldest first, so the shell can replay them in submission order.
	assert.Equal(t, "echo hi", entries[0].Command)
	assert.Equal(t, "ls", entries[1].Command)
}

func TestAppendKeepsBlankLines(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Append("", "/tmp", "session-1")
	require.NoError(t, err)

	entries, err := store.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Command)
}

func TestFinishRecordsExitCode(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.Append("false", "/tmp", "session-1")
	require.NoError(t, err)

	entry, err = store.Finish(entry, 1)
	require.NoError(t, err)
	assert.True(t, entry.ExitCode.Valid)
	assert.Equal(t, int32(1), entry.ExitCode.Int32)
}

func TestRecentFiltersByDirectory(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Append("make", "/a", "session-1")
	require.NoError(t, err)
	_, err = store.Append("make test", "/b", "session-1")
	require.NoError(t, err)

	entries, err := store.Recent("/b", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "make test", entries[0].Command)
}

func TestRecentByPrefix(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Append("git status", "/tmp", "session-1")
	require.NoError(t, err)
	_, err = store.Append("echo hi", "/tmp", "session-1")
	require.NoError(t, err)

	entries, err := store.RecentByPrefix("git", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "git status", entries[0].Command)
}

func TestDeleteMissingEntry(t *testing.T) {
	store := newTestStore(t)

	err := store.Delete(42)
	assert.Error(t, err)
}
