package reviews

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/timeshop/internal/auth"
	"github.com/mcdev12/timeshop/internal/models"
)

type allowAllVerifier struct{}

func (allowAllVerifier) Verify(_ context.Context, username, _ string) (*models.User, error) {
	if username == "" {
		return nil, auth.ErrBadRequest
	}
	return &models.User{Username: username}, nil
}

type denyVerifier struct{}

func (denyVerifier) Verify(_ context.Context, _, _ string) (*models.User, error) {
	return nil, auth.ErrUnauthorized
}

// memReviewStore keeps reviews in memory and sorts on read like the
// real backends do.
type memReviewStore struct {
	reviews []models.Review
}

func (m *memReviewStore) AppendReview(_ context.Context, review models.Review) error {
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *memReviewStore) ReviewsByLevel(_ context.Context, level models.CardLevel) ([]models.Review, error) {
	var out []models.Review
	for _, r := range m.reviews {
		if r.Level == level {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func TestSubmitNormalizesLevel(t *testing.T) {
	ctx := context.Background()
	store := &memReviewStore{}
	clock := clockwork.NewFakeClock()
	app := NewApp(allowAllVerifier{}, store).WithClock(clock)

	require.NoError(t, app.Submit(ctx, "alice", "pw", "s", "  great card  "))
	require.Len(t, store.reviews, 1)
	require.Equal(t, models.LevelS, store.reviews[0].Level)
	require.Equal(t, "great card", store.reviews[0].Text)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	app := NewApp(allowAllVerifier{}, &memReviewStore{})

	require.ErrorIs(t, app.Submit(ctx, "alice", "pw", "", "text"), ErrBadRequest)
	require.ErrorIs(t, app.Submit(ctx, "alice", "pw", "S", "   "), ErrBadRequest)
	require.ErrorIs(t, app.Submit(ctx, "alice", "pw", "X", "text"), ErrBadRequest)

	denied := NewApp(denyVerifier{}, &memReviewStore{})
	require.ErrorIs(t, denied.Submit(ctx, "alice", "pw", "S", "text"), auth.ErrUnauthorized)
}

func TestByLevelNewestFirstAcrossAccounts(t *testing.T) {
	ctx := context.Background()
	store := &memReviewStore{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	app := NewApp(allowAllVerifier{}, store).WithClock(clock)

	require.NoError(t, app.Submit(ctx, "alice", "pw", "S", "earlier"))
	clock.Advance(time.Minute)
	require.NoError(t, app.Submit(ctx, "bob", "pw", "S", "later"))

	level, got, err := app.ByLevel(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, models.LevelS, level)
	require.Len(t, got, 2)
	require.Equal(t, "later", got[0].Text)
	require.Equal(t, "earlier", got[1].Text)
}

func TestByLevelInvalid(t *testing.T) {
	app := NewApp(allowAllVerifier{}, &memReviewStore{})
	_, _, err := app.ByLevel(context.Background(), "Z")
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestByLevelEmptyIsNotNil(t *testing.T) {
	app := NewApp(allowAllVerifier{}, &memReviewStore{})
	_, got, err := app.ByLevel(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}
