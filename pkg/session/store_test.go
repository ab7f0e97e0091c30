package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *fakeClock) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "sessions"), ttl)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clock.now
	return store, clock
}

func TestAppendAndHistory(t *testing.T) {
	store, clock := newTestStore(t, time.Hour)

	require.NoError(t, store.Append("ops-1", Entry{Prompt: "first", Consensus: "a", Cost: decimal.RequireFromString("0.01")}))
	clock.t = clock.t.Add(10 * time.Minute)
	require.NoError(t, store.Append("ops-1", Entry{Prompt: "second", Consensus: "b"}))

	entries, err := store.History("ops-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Prompt)
	assert.Equal(t, "second", entries[1].Prompt)
	assert.True(t, decimal.RequireFromString("0.01").Equal(entries[0].Cost))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(store.Dir())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
		info, err = os.Stat(filepath.Join(store.Dir(), "ops-1.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestHistoryPrunesExpired(t *testing.T) {
	store, clock := newTestStore(t, time.Hour)

	require.NoError(t, store.Append("s", Entry{Prompt: "old"}))
	clock.t = clock.t.Add(50 * time.Minute)
	require.NoError(t, store.Append("s", Entry{Prompt: "new"}))
	clock.t = clock.t.Add(20 * time.Minute)

	entries, err := store.History("s")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Prompt)

	clock.t = clock.t.Add(2 * time.Hour)
	entries, err = store.History("s")
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = os.Stat(filepath.Join(store.Dir(), "s.json"))
	assert.True(t, os.IsNotExist(err), "fully expired session file is removed")
}

func TestHistoryMissingSession(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	entries, err := store.History("nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrune(t *testing.T) {
	store, clock := newTestStore(t, time.Hour)
	require.NoError(t, store.Append("a", Entry{Prompt: "x"}))
	clock.t = clock.t.Add(90 * time.Minute)
	require.NoError(t, store.Append("b", Entry{Prompt: "y"}))

	removed, err := store.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := store.History("b")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInvalidSessionID(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, store.Append(id, Entry{}), id)
		_, err := store.History(id)
		assert.Error(t, err, id)
	}
}

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore("", time.Hour)
	assert.Error(t, err)
	_, err = NewStore(t.TempDir(), 0)
	assert.Error(t, err)
}
