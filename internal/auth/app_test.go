package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/store"
)

// fakeStore is an in-memory UserStore for app tests.
type fakeStore struct {
	users map[string]models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]models.User{}}
}

func (f *fakeStore) GetUser(_ context.Context, username string) (*models.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user models.User) error {
	if _, ok := f.users[user.Username]; ok {
		return store.ErrUserExists
	}
	f.users[user.Username] = user
	return nil
}

func TestSignupThenLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	app := NewApp(newFakeStore())

	created, err := app.Signup(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, models.NewState(), created.State)
	require.NotEqual(t, "hunter2", created.PasswordHash)

	got, err := app.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, created.State, got.State)
}

func TestSignupDuplicate(t *testing.T) {
	ctx := context.Background()
	app := NewApp(newFakeStore())

	_, err := app.Signup(ctx, "alice", "a")
	require.NoError(t, err)
	_, err = app.Signup(ctx, "alice", "b")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestLoginBadCredential(t *testing.T) {
	ctx := context.Background()
	app := NewApp(newFakeStore())

	_, err := app.Signup(ctx, "alice", "right")
	require.NoError(t, err)

	_, err = app.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = app.Login(ctx, "nobody", "x")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestMissingFields(t *testing.T) {
	ctx := context.Background()
	app := NewApp(newFakeStore())

	_, err := app.Signup(ctx, "", "p")
	require.ErrorIs(t, err, ErrBadRequest)
	_, err = app.Login(ctx, "u", "")
	require.ErrorIs(t, err, ErrBadRequest)
	_, err = app.Verify(ctx, "", "")
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestHashVerify(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	ok, err := VerifyPassword("secret", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("other", hash)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = VerifyPassword("secret", "not-a-hash")
	require.Error(t, err)
}
