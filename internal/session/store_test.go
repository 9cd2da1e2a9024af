package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Empty(t, sess.CSRFToken)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestMemoryStore_UnknownID(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestMemoryStore_SetCSRFToken(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.SetCSRFToken(ctx, sess.ID, "tok-123"))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", got.CSRFToken)

	err = store.SetCSRFToken(ctx, "unknown", "tok")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = store.Get(ctx, sess.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	// removeExpired drops the row entirely.
	assert.Equal(t, 1, store.removeExpired())
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err = store.Get(ctx, sess.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

// Exercises Get and SetCSRFToken concurrently on the same session, the
// pattern a token fetch racing a state-changing request produces. Run with
// -race.
func TestMemoryStore_ConcurrentGetAndSetCSRFToken(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.SetCSRFToken(ctx, sess.ID, fmt.Sprintf("tok-%d", i))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, sess.ID)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.CSRFToken)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	got.CSRFToken = "mutated"

	fresh, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.CSRFToken, "mutating a returned session must not affect the store")
}
