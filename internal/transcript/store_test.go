package transcript

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"classsync/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "transcript.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func msg(id, body string, ts time.Time) types.Message {
	return types.Message{
		ID:        id,
		SenderID:  "p1",
		Body:      body,
		Timestamp: ts,
		Kind:      types.MessageKindChat,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, "math-101", msg("m1", "first", base)))
	require.NoError(t, s.Record(ctx, "math-101", msg("m2", "second", base.Add(time.Minute))))
	require.NoError(t, s.Record(ctx, "physics-2", msg("m3", "elsewhere", base)))

	got, err := s.Recent(ctx, "math-101", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "first", got[0].Body)
	require.Equal(t, "second", got[1].Body)
}

func TestStore_RecentLimitKeepsNewest(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, "math-101",
			msg(string(rune('a'+i)), "b", base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := s.Recent(ctx, "math-101", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest two, still oldest first.
	require.Equal(t, "d", got[0].ID)
	require.Equal(t, "e", got[1].ID)
}

func TestStore_DuplicateIDIgnored(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, "math-101", msg("m1", "original", ts)))
	require.NoError(t, s.Record(ctx, "math-101", msg("m1", "replayed", ts)))

	got, err := s.Recent(ctx, "math-101", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "original", got[0].Body)
}

func TestStore_Prune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, "math-101", msg("old", "stale", base)))
	require.NoError(t, s.Record(ctx, "math-101", msg("new", "fresh", base.Add(time.Hour))))

	removed, err := s.Prune(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	got, err := s.Recent(ctx, "math-101", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new", got[0].ID)
}

func TestStore_SystemKindAccepted(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	m := msg("sys1", "teacher joined", time.Now())
	m.Kind = types.MessageKindSystem
	require.NoError(t, s.Record(ctx, "math-101", m))

	got, err := s.Recent(ctx, "math-101", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, types.MessageKindSystem, got[0].Kind)
}
