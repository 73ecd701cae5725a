package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := NewProgressStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveProgress("wallet-a", "Hero", 12, 4500))

	level, xp, ok, err := store.LoadProgress("wallet-a", "Hero")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12, level)
	assert.Equal(t, int64(4500), xp)
}

func TestLoadMissing(t *testing.T) {
	store, err := NewProgressStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, _, ok, err := store.LoadProgress("wallet-a", "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveOverwrites(t *testing.T) {
	store, err := NewProgressStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveProgress("wallet-a", "Hero", 1, 0))
	require.NoError(t, store.SaveProgress("wallet-a", "Hero", 2, 150))

	level, xp, ok, err := store.LoadProgress("wallet-a", "Hero")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, level)
	assert.Equal(t, int64(150), xp)
}

func TestListProgress(t *testing.T) {
	store, err := NewProgressStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveProgress("wallet-a", "Hero", 3, 300))
	require.NoError(t, store.SaveProgress("wallet-b", "Rogue", 7, 2100))

	records, err := store.ListProgress()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
