// Package auth verifies and creates user credentials on top of the
// storage layer, hashing passwords with bcrypt.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password, so callers cannot tell which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserExists is returned when the username or email is already taken.
var ErrUserExists = errors.New("user already exists")

type userStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, string, error)
}

// Service registers users and checks login credentials.
type Service struct {
	store      userStore
	bcryptCost int
}

func NewService(store userStore, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, bcryptCost: bcryptCost}
}

// Register hashes the password and creates the user.
func (s *Service) Register(ctx context.Context, username, email, password string) (core.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, email, string(hash))
	if errors.Is(err, storage.ErrConflict) {
		return core.User{}, ErrUserExists
	}
	if err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

// Authenticate looks up the user by email and compares the password against
// the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	user, hash, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Login failed", "user_id", user.ID)
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}
