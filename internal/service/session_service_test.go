package service

import (
	"context"
	"testing"
	"time"

	"github.com/biswajit-debnath/control-room/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSessionStore(users *fakeUserRepo, sessions *fakeSessionRepo, clock *testClock) *sessionStore {
	s := newSessionStore(sessions, users, 0)
	s.now = clock.now
	return s
}

func TestSessionStore_CreateUsesSevenDayTTL(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)}
	store := newTestSessionStore(newFakeUserRepo(eodUser), newFakeSessionRepo(), clock)

	s, err := store.Create(context.Background(), eodUser.ID, model.ClientMeta{IPAddress: "10.0.0.5", UserAgent: "curl/8.0"})

	require.NoError(t, err)
	assert.Equal(t, clock.t, s.CreatedAt)
	assert.Equal(t, clock.t.Add(7*24*time.Hour), s.ExpiresAt)
	assert.Len(t, s.Token, 36)
	require.NotNil(t, s.IPAddress)
	assert.Equal(t, "10.0.0.5", *s.IPAddress)
}

func TestSessionStore_TokensAreUnique(t *testing.T) {
	clock := &testClock{t: time.Now()}
	store := newTestSessionStore(newFakeUserRepo(eodUser), newFakeSessionRepo(), clock)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := store.Create(context.Background(), eodUser.ID, model.ClientMeta{})
		require.NoError(t, err)
		assert.False(t, seen[s.Token])
		seen[s.Token] = true
		assert.Nil(t, s.IPAddress)
		assert.Nil(t, s.UserAgent)
	}
}

func TestSessionStore_ResolveExpiryBoundary(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)}
	sessions := newFakeSessionRepo()
	store := newTestSessionStore(newFakeUserRepo(eodUser), sessions, clock)
	ctx := context.Background()

	s, err := store.Create(ctx, eodUser.ID, model.ClientMeta{})
	require.NoError(t, err)

	clock.advance(7*24*time.Hour - time.Nanosecond)
	user, err := store.Resolve(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, eodUser.ID, user.ID)

	clock.advance(time.Nanosecond)
	_, err = store.Resolve(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, sessions.has(s.Token), "expired session should be deleted on lookup")
}

func TestSessionStore_ResolveUnknownAndEmpty(t *testing.T) {
	clock := &testClock{t: time.Now()}
	store := newTestSessionStore(newFakeUserRepo(eodUser), newFakeSessionRepo(), clock)

	_, err := store.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = store.Resolve(context.Background(), "5b0c0b59-5d8e-4d39-9d8b-1f4c56f5c0aa")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionStore_FailsClosed(t *testing.T) {
	clock := &testClock{t: time.Now()}
	users := newFakeUserRepo(eodUser)
	sessions := newFakeSessionRepo()
	store := newTestSessionStore(users, sessions, clock)
	ctx := context.Background()

	s, err := store.Create(ctx, eodUser.ID, model.ClientMeta{})
	require.NoError(t, err)

	sessions.err = errStorageDown
	_, err = store.Resolve(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	sessions.err = nil
	users.err = errStorageDown
	_, err = store.Resolve(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionStore_DeletedUserIsUnauthenticated(t *testing.T) {
	clock := &testClock{t: time.Now()}
	users := newFakeUserRepo(&model.User{ID: 20, Name: "Temp", Role: model.RoleTA})
	store := newTestSessionStore(users, newFakeSessionRepo(), clock)

	s, err := store.Create(context.Background(), 20, model.ClientMeta{})
	require.NoError(t, err)
	delete(users.users, 20)

	_, err = store.Resolve(context.Background(), s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionStore_DestroyIsIdempotent(t *testing.T) {
	clock := &testClock{t: time.Now()}
	sessions := newFakeSessionRepo()
	store := newTestSessionStore(newFakeUserRepo(eodUser), sessions, clock)
	ctx := context.Background()

	s, err := store.Create(ctx, eodUser.ID, model.ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, s.Token))
	require.NoError(t, store.Destroy(ctx, s.Token))
	require.NoError(t, store.Destroy(ctx, ""))

	_, err = store.Resolve(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	sessions := newFakeSessionRepo()
	store := newTestSessionStore(newFakeUserRepo(eodUser), sessions, clock)
	ctx := context.Background()

	old, err := store.Create(ctx, eodUser.ID, model.ClientMeta{})
	require.NoError(t, err)
	clock.advance(3 * 24 * time.Hour)
	fresh, err := store.Create(ctx, eodUser.ID, model.ClientMeta{})
	require.NoError(t, err)

	clock.advance(5 * 24 * time.Hour)
	n, err := store.PurgeExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, sessions.has(old.Token))
	assert.True(t, sessions.has(fresh.Token))
}

func TestSessionSweeper(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	sessions := newFakeSessionRepo()
	store := newTestSessionStore(newFakeUserRepo(eodUser), sessions, clock)

	s, err := store.Create(context.Background(), eodUser.ID, model.ClientMeta{})
	require.NoError(t, err)
	clock.advance(8 * 24 * time.Hour)

	sweeper, err := NewSessionSweeper(store, "@every 1h")
	require.NoError(t, err)
	sweeper.Sweep()
	assert.False(t, sessions.has(s.Token))

	sweeper.Start()
	sweeper.Stop()

	_, err = NewSessionSweeper(store, "not a schedule")
	assert.Error(t, err)
}
