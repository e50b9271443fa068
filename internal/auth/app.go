// Package auth owns account creation and credential checks. Passwords
// are stored as argon2id hashes; the raw secret still travels with
// every request because the wire protocol has no session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/store"
)

var (
	// ErrBadRequest means a required field is missing or empty.
	ErrBadRequest = errors.New("username and password are required")

	// ErrUnauthorized means the credential does not match.
	ErrUnauthorized = errors.New("invalid username or password")

	// ErrUserExists means the username is already taken.
	ErrUserExists = errors.New("username already exists")
)

// UserStore is what auth needs from the account store.
type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) error
}

// App handles signup, login and credential verification.
type App struct {
	store UserStore
}

// NewApp creates the auth App.
func NewApp(s UserStore) *App {
	return &App{store: s}
}

// Signup creates an account with fresh zero state and returns it.
func (a *App) Signup(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrBadRequest
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		State:        models.NewState(),
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Str("username", username).Msg("account created")
	return &user, nil
}

// Login returns the stored account when the credential matches.
func (a *App) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrBadRequest
	}
	return a.verify(ctx, username, password)
}

// Verify checks the credential for an existing account. Used by every
// state sync and review submission.
func (a *App) Verify(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrBadRequest
	}
	return a.verify(ctx, username, password)
}

func (a *App) verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.store.GetUser(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	return user, nil
}
