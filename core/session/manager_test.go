package session_test

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tokenkit/core/secret"
	"github.com/dmitrymomot/tokenkit/core/session"
	"github.com/dmitrymomot/tokenkit/core/token"
)

// mockStore implements session.Store for error-path tests.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

func (m *mockStore) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *mockStore) FindByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(session.Session), args.Error(1)
}

func (m *mockStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) RecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]session.Session, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]session.Session), args.Error(1)
}

func (m *mockStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockStore) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testOwner struct {
	ID   uuid.UUID
	Name string
}

func newManager(t *testing.T, store session.Store, opts ...session.Option[testOwner]) *session.Manager[testOwner] {
	t.Helper()

	opts = append([]session.Option[testOwner]{
		session.WithLogger[testOwner](slog.New(slog.DiscardHandler)),
	}, opts...)

	mgr, err := session.New[testOwner](store, opts...)
	require.NoError(t, err)
	return mgr
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a store", func(t *testing.T) {
		t.Parallel()

		mgr, err := session.New[testOwner](nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrNoStore)
		assert.Nil(t, mgr)
	})

	t.Run("rejects secret size below minimum", func(t *testing.T) {
		t.Parallel()

		_, err := session.New[testOwner](newMemStore(),
			session.WithSecretSize[testOwner](8))

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrConfiguration)
	})

	t.Run("rejects zero max sessions", func(t *testing.T) {
		t.Parallel()

		_, err := session.New[testOwner](newMemStore(),
			session.WithMaxSessions[testOwner](0))

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrConfiguration)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("creates manager from defaults", func(t *testing.T) {
		t.Parallel()

		mgr, err := session.NewFromConfig[testOwner](session.DefaultConfig(), newMemStore())

		require.NoError(t, err)
		assert.NotNil(t, mgr)
	})

	t.Run("fails fast on invalid default expiry", func(t *testing.T) {
		t.Parallel()

		cfg := session.DefaultConfig()
		cfg.DefaultExpiresIn = "soon"

		mgr, err := session.NewFromConfig[testOwner](cfg, newMemStore())

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrConfiguration)
		assert.Nil(t, mgr)
	})

	t.Run("options override config values", func(t *testing.T) {
		t.Parallel()

		cfg := session.DefaultConfig()
		cfg.InvalidTokenMessage = "from config"

		mgr, err := session.NewFromConfig[testOwner](cfg, newMemStore(),
			session.WithInvalidTokenMessage[testOwner]("from option"))

		require.NoError(t, err)
		assert.Equal(t, "from option", mgr.InvalidTokenMessage())
	})
}

func TestManager_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns decodable public token", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)
		ownerID := uuid.New()

		auth, err := mgr.Create(ctx, ownerID, session.WithExpiresInString("7d"))

		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^oat_[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`), auth.Token)

		decoded, ok := token.Decode(auth.Token, "oat_")
		require.True(t, ok)
		assert.Equal(t, auth.ID.String(), decoded.ID)
		assert.Equal(t, auth.Secret, decoded.Secret)
	})

	t.Run("persists only the hash of the secret", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		stored, err := store.FindByID(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, secret.Hash(auth.Secret), stored.Hash)
		assert.NotContains(t, stored.Hash, auth.Secret)
	})

	t.Run("applies explicit expiry", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		mgr := newManager(t, store, session.WithClock[testOwner](clock.Now))

		auth, err := mgr.Create(ctx, uuid.New(), session.WithExpiresInString("7d"))

		require.NoError(t, err)
		require.NotNil(t, auth.ExpiresAt)
		assert.Equal(t, clock.Now().Add(7*24*time.Hour), *auth.ExpiresAt)
	})

	t.Run("applies default expiry when none given", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		mgr := newManager(t, newMemStore(),
			session.WithClock[testOwner](clock.Now),
			session.WithDefaultExpiry[testOwner](time.Hour))

		auth, err := mgr.Create(ctx, uuid.New())

		require.NoError(t, err)
		require.NotNil(t, auth.ExpiresAt)
		assert.Equal(t, clock.Now().Add(time.Hour), *auth.ExpiresAt)
	})

	t.Run("sessions without expiry never expire", func(t *testing.T) {
		t.Parallel()

		mgr := newManager(t, newMemStore())

		auth, err := mgr.Create(ctx, uuid.New())

		require.NoError(t, err)
		assert.Nil(t, auth.ExpiresAt)
	})

	t.Run("rejects invalid expiry string", func(t *testing.T) {
		t.Parallel()

		mgr := newManager(t, newMemStore())

		_, err := mgr.Create(ctx, uuid.New(), session.WithExpiresInString("next tuesday"))

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrConfiguration)
	})

	t.Run("propagates storage failures wrapped in ErrStorage", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		mgr := newManager(t, store)

		cause := errors.New("connection reset")
		store.On("InTx", mock.Anything, mock.Anything).Return(nil)
		store.On("Create", mock.Anything, mock.Anything).Return(cause)

		_, err := mgr.Create(ctx, uuid.New())

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrStorage)
		assert.ErrorIs(t, err, cause)
		store.AssertExpectations(t)
	})

	t.Run("eviction failure aborts the create", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		mgr := newManager(t, store)

		cause := errors.New("query timeout")
		store.On("InTx", mock.Anything, mock.Anything).Return(nil)
		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		store.On("RecentByOwner", mock.Anything, mock.Anything, 4).Return(nil, cause)

		_, err := mgr.Create(ctx, uuid.New())

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrStorage)
		assert.ErrorIs(t, err, cause)
	})
}

func TestManager_Rotation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("bounds sessions per owner and evicts oldest first", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		mgr := newManager(t, store,
			session.WithClock[testOwner](clock.Now),
			session.WithMaxSessions[testOwner](3))
		ownerID := uuid.New()

		var ids []uuid.UUID
		for range 4 {
			auth, err := mgr.Create(ctx, ownerID)
			require.NoError(t, err)
			ids = append(ids, auth.ID)
			clock.Advance(time.Minute)
		}

		assert.Equal(t, 3, store.count(ownerID))
		assert.False(t, store.has(ids[0]), "oldest session should be evicted")
		for _, id := range ids[1:] {
			assert.True(t, store.has(id))
		}
	})

	t.Run("evicted token no longer authenticates", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		mgr := newManager(t, store,
			session.WithClock[testOwner](clock.Now),
			session.WithMaxSessions[testOwner](1))
		ownerID := uuid.New()

		first, err := mgr.Create(ctx, ownerID)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		second, err := mgr.Create(ctx, ownerID)
		require.NoError(t, err)

		_, err = mgr.Authenticate(ctx, first.Token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)

		_, err = mgr.Authenticate(ctx, second.Token)
		assert.NoError(t, err)
	})

	t.Run("does not evict across owners", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		mgr := newManager(t, store,
			session.WithClock[testOwner](clock.Now),
			session.WithMaxSessions[testOwner](1))

		ownerA := uuid.New()
		ownerB := uuid.New()

		authA, err := mgr.Create(ctx, ownerA)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		_, err = mgr.Create(ctx, ownerB)
		require.NoError(t, err)

		assert.True(t, store.has(authA.ID))
	})
}

func TestManager_Authenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid token resolves to its session", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)
		ownerID := uuid.New()

		auth, err := mgr.Create(ctx, ownerID, session.WithExpiresIn(time.Hour))
		require.NoError(t, err)

		sess, err := mgr.Authenticate(ctx, auth.Token)

		require.NoError(t, err)
		assert.Equal(t, auth.ID, sess.ID)
		assert.Equal(t, ownerID, sess.OwnerID)
	})

	t.Run("records last used time on success", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		mgr := newManager(t, store, session.WithClock[testOwner](clock.Now))

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		sess, err := mgr.Authenticate(ctx, auth.Token)

		require.NoError(t, err)
		require.NotNil(t, sess.LastUsedAt)
		assert.Equal(t, clock.Now(), *sess.LastUsedAt)
	})

	t.Run("throttles last used updates within touch interval", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		mgr := newManager(t, store,
			session.WithClock[testOwner](clock.Now),
			session.WithTouchInterval[testOwner](5*time.Minute))

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		_, err = mgr.Authenticate(ctx, auth.Token)
		require.NoError(t, err)

		first, err := store.FindByID(ctx, auth.ID)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		_, err = mgr.Authenticate(ctx, auth.Token)
		require.NoError(t, err)

		second, err := store.FindByID(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, first.LastUsedAt, second.LastUsedAt)

		clock.Advance(5 * time.Minute)
		_, err = mgr.Authenticate(ctx, auth.Token)
		require.NoError(t, err)

		third, err := store.FindByID(ctx, auth.ID)
		require.NoError(t, err)
		assert.True(t, third.LastUsedAt.After(*first.LastUsedAt))
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		t.Parallel()

		mgr := newManager(t, newMemStore())

		_, err := mgr.Authenticate(ctx, "oat_bogus")

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("rejects unknown session id", func(t *testing.T) {
		t.Parallel()

		mgr := newManager(t, newMemStore())

		raw := token.Encode(uuid.NewString(), "some-secret", "oat_")
		_, err := mgr.Authenticate(ctx, raw)

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("detects a tampered secret segment", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		dot := strings.Index(auth.Token, ".")
		require.Positive(t, dot)

		// Flip one character in the middle of the secret segment.
		pos := dot + 1 + (len(auth.Token)-dot-1)/2
		flipped := byte('A')
		if auth.Token[pos] == 'A' {
			flipped = 'B'
		}
		tampered := auth.Token[:pos] + string(flipped) + auth.Token[pos+1:]
		require.NotEqual(t, auth.Token, tampered)

		_, err = mgr.Authenticate(ctx, tampered)

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("rejects expired session even with correct secret", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		mgr := newManager(t, store, session.WithClock[testOwner](clock.Now))

		auth, err := mgr.Create(ctx, uuid.New(), session.WithExpiresIn(time.Second))
		require.NoError(t, err)

		clock.Advance(2 * time.Second)

		_, err = mgr.Authenticate(ctx, auth.Token)

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("storage outage during lookup is indistinguishable from invalid token", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		mgr := newManager(t, store)

		store.On("FindByID", mock.Anything, mock.Anything).
			Return(session.Session{}, errors.New("connection refused"))

		raw := token.Encode(uuid.NewString(), "secret", "oat_")
		_, err := mgr.Authenticate(ctx, raw)

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("touch failure does not fail authentication", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		// Remove the record between hash verification and touch is hard to
		// stage; instead verify via mock that a failing touch is swallowed.
		ms := &mockStore{}
		mgrMock := newManager(t, ms)

		stored, err := store.FindByID(ctx, auth.ID)
		require.NoError(t, err)

		ms.On("FindByID", mock.Anything, auth.ID).Return(stored, nil)
		ms.On("TouchLastUsed", mock.Anything, auth.ID, mock.Anything).
			Return(errors.New("write failed"))

		sess, err := mgrMock.Authenticate(ctx, auth.Token)

		require.NoError(t, err)
		assert.Equal(t, auth.ID, sess.ID)
		assert.Nil(t, sess.LastUsedAt)
	})
}

func TestManager_UniformFailureSurface(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := newMemStore()
	mgr := newManager(t, store, session.WithClock[testOwner](clock.Now))

	// Stage one failure of each kind and collect the externally visible
	// errors.
	valid, err := mgr.Create(ctx, uuid.New())
	require.NoError(t, err)

	expired, err := mgr.Create(ctx, uuid.New(), session.WithExpiresIn(time.Second))
	require.NoError(t, err)
	clock.Advance(time.Minute)

	dot := strings.Index(valid.Token, ".")
	tampered := valid.Token[:dot+1] + "AAAA" + valid.Token[dot+5:]
	if tampered == valid.Token {
		tampered = valid.Token[:dot+1] + "BBBB" + valid.Token[dot+5:]
	}

	inputs := map[string]string{
		"malformed":  "oat_bogus",
		"unknown id": token.Encode(uuid.NewString(), "secret", "oat_"),
		"tampered":   tampered,
		"expired":    expired.Token,
	}

	var messages []string
	for name, raw := range inputs {
		_, err := mgr.Authenticate(ctx, raw)
		require.Error(t, err, name)
		require.ErrorIs(t, err, session.ErrInvalidToken, name)
		messages = append(messages, err.Error())
	}

	for _, msg := range messages {
		assert.Equal(t, messages[0], msg, "all failures must share one message")
	}
	assert.Equal(t, "not a valid session token", messages[0])
}

func TestManager_Owner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("resolves the owning entity", func(t *testing.T) {
		t.Parallel()

		ownerID := uuid.New()
		resolver := session.OwnerResolverFunc[testOwner](func(ctx context.Context, id uuid.UUID) (testOwner, error) {
			return testOwner{ID: id, Name: "alice"}, nil
		})

		mgr := newManager(t, newMemStore(), session.WithResolver[testOwner](resolver))

		auth, err := mgr.Create(ctx, ownerID)
		require.NoError(t, err)

		owner, sess, err := mgr.Owner(ctx, auth.Token)

		require.NoError(t, err)
		assert.Equal(t, ownerID, owner.ID)
		assert.Equal(t, "alice", owner.Name)
		assert.Equal(t, auth.ID, sess.ID)
	})

	t.Run("resolution failure is an invalid token", func(t *testing.T) {
		t.Parallel()

		resolver := session.OwnerResolverFunc[testOwner](func(ctx context.Context, id uuid.UUID) (testOwner, error) {
			return testOwner{}, errors.New("owner deleted")
		})

		mgr := newManager(t, newMemStore(), session.WithResolver[testOwner](resolver))

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		_, _, err = mgr.Owner(ctx, auth.Token)

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("fails without a resolver", func(t *testing.T) {
		t.Parallel()

		mgr := newManager(t, newMemStore())

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		_, _, err = mgr.Owner(ctx, auth.Token)

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrNoResolver)
	})
}

func TestManager_Revoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("revoked token no longer authenticates", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)

		auth, err := mgr.Create(ctx, uuid.New())
		require.NoError(t, err)

		require.NoError(t, mgr.Revoke(ctx, auth.ID))

		_, err = mgr.Authenticate(ctx, auth.Token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("revoking an absent session is not an error", func(t *testing.T) {
		t.Parallel()

		mgr := newManager(t, newMemStore())

		assert.NoError(t, mgr.Revoke(ctx, uuid.New()))
	})

	t.Run("revoke owner removes every session", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)
		ownerID := uuid.New()

		for range 3 {
			_, err := mgr.Create(ctx, ownerID)
			require.NoError(t, err)
		}

		n, err := mgr.RevokeOwner(ctx, ownerID)

		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Zero(t, store.count(ownerID))
	})
}

func TestManager_CleanupExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sweeps only expired sessions", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := newMemStore()
		store.now = clock.Now
		mgr := newManager(t, store, session.WithClock[testOwner](clock.Now))

		keep, err := mgr.Create(ctx, uuid.New(), session.WithExpiresIn(time.Hour))
		require.NoError(t, err)

		gone, err := mgr.Create(ctx, uuid.New(), session.WithExpiresIn(time.Second))
		require.NoError(t, err)

		clock.Advance(time.Minute)

		n, err := mgr.CleanupExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.True(t, store.has(keep.ID))
		assert.False(t, store.has(gone.ID))
	})
}
