package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeUserStore struct {
	users  map[string]storedUser // keyed by email
	nextID int64
}

type storedUser struct {
	user core.User
	hash string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]storedUser{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, username, email, passwordHash string) (core.User, error) {
	if _, ok := f.users[email]; ok {
		return core.User{}, storage.ErrConflict
	}
	for _, su := range f.users {
		if su.user.Username == username {
			return core.User{}, storage.ErrConflict
		}
	}
	f.nextID++
	u := core.User{ID: f.nextID, Username: username, Email: email}
	f.users[email] = storedUser{user: u, hash: passwordHash}
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (core.User, string, error) {
	su, ok := f.users[email]
	if !ok {
		return core.User{}, "", storage.ErrNotFound
	}
	return su.user, su.hash, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(newFakeUserStore(), bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotZero(t, user.ID)

	got, err := svc.Authenticate(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	svc := NewService(newFakeUserStore(), bcrypt.MinCost)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@x.com", "secret123")
	assert.True(t, errors.Is(err, ErrUserExists), "duplicate username: got %v", err)

	_, err = svc.Register(ctx, "bob", "a@x.com", "secret123")
	assert.True(t, errors.Is(err, ErrUserExists), "duplicate email: got %v", err)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc := NewService(newFakeUserStore(), bcrypt.MinCost)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "a@x.com", "wrongpass")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	svc := NewService(newFakeUserStore(), bcrypt.MinCost)

	_, err := svc.Authenticate(context.Background(), "nobody@x.com", "whatever")
	assert.True(t, errors.Is(err, ErrInvalidCredentials),
		"unknown email must look identical to a wrong password")
}

func TestPasswordStoredHashed(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), "alice", "a@x.com", "secret123")
	require.NoError(t, err)

	su := store.users["a@x.com"]
	assert.NotEqual(t, "secret123", su.hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(su.hash), []byte("secret123")))
}
