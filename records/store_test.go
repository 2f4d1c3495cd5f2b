package records

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "renders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	rec := Record{ID: "abc123", Mode: ModeAsync, Status: StatusCompleted, VideoURL: "https://x/v.mp4", Duration: 2.5}
	require.NoError(t, s.Put(rec))

	got, err := s.Get("abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "https://x/v.mp4", got.VideoURL)
	require.Equal(t, 2.5, got.Duration)
	require.False(t, got.Timestamp.IsZero())

	missing, err := s.Get("nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.Error(t, s.Put(Record{}))
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	require.NoError(t, s.Put(Record{ID: "a", Status: StatusFailed, Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, s.Put(Record{ID: "b", Status: StatusCompleted, Timestamp: now}))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].ID)
	require.Equal(t, "a", list[1].ID)

	require.NoError(t, s.Delete("b"))
	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestCleanupOldRecords(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	require.NoError(t, s.Put(Record{ID: "old", Timestamp: now.Add(-31 * 24 * time.Hour)}))
	require.NoError(t, s.Put(Record{ID: "fresh", Timestamp: now.Add(-time.Hour)}))

	n, err := s.CleanupOldRecords(30 * 24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	old, err := s.Get("old")
	require.NoError(t, err)
	require.Nil(t, old)
	fresh, err := s.Get("fresh")
	require.NoError(t, err)
	require.NotNil(t, fresh)
}

func TestCheckHealth(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CheckHealth())

	var nilStore *Store
	require.Error(t, nilStore.CheckHealth())
}
