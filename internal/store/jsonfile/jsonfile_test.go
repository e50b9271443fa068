package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/store"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	user := models.User{Username: "alice", PasswordHash: "h", State: models.NewState()}
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, 0, got.State.TotalSeconds)

	_, err = s.GetUser(ctx, "bob")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.CreateUser(ctx, user)
	require.ErrorIs(t, err, store.ErrUserExists)
}

func TestStateRoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "h", State: models.NewState()}))

	st := models.State{
		TotalSeconds:        42,
		CoinsSpent:          3,
		Cards:               []models.CardLevel{models.LevelF},
		CoinsClaimed:        2,
		CoinEventsTriggered: 2,
	}
	require.NoError(t, s.PutUserState(ctx, "alice", st))

	// Reopen from disk: the last persisted state must come back intact.
	s2, err := Open(path)
	require.NoError(t, err)
	got, err := s2.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, st, got.State)
}

func TestAddTotalTime(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	total, err := s.AddTotalTime(ctx, 50)
	require.NoError(t, err)
	require.Equal(t, 50, total)

	total, err = s.AddTotalTime(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 50, total)

	total, err = s.TotalTime(ctx)
	require.NoError(t, err)
	require.Equal(t, 50, total)
}

func TestReviewsByLevelSortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := models.Review{Level: models.LevelS, Username: "alice", Text: "first", CreatedAt: base}
	newer := models.Review{Level: models.LevelS, Username: "bob", Text: "second", CreatedAt: base.Add(time.Minute)}
	other := models.Review{Level: models.LevelA, Username: "carol", Text: "off-level", CreatedAt: base.Add(time.Hour)}

	// Submission order is oldest-first; the listing must not be.
	require.NoError(t, s.AppendReview(ctx, older))
	require.NoError(t, s.AppendReview(ctx, newer))
	require.NoError(t, s.AppendReview(ctx, other))

	got, err := s.ReviewsByLevel(ctx, models.LevelS)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "second", got[0].Text)
	require.Equal(t, "first", got[1].Text)
}

func TestOpenMissingReviewsField(t *testing.T) {
	// Older documents predate the reviews field; they must load with an
	// empty slice rather than nil panics downstream.
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, writeFile(path, `{"totalTime":7,"users":[]}`))

	s, err := Open(path)
	require.NoError(t, err)
	total, err := s.TotalTime(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, total)

	got, err := s.ReviewsByLevel(ctx, models.LevelS)
	require.NoError(t, err)
	require.Empty(t, got)
}
