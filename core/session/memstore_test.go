package session_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tokenkit/core/session"
)

// memStore is a minimal in-memory Store for lifecycle tests. A single
// transaction mutex serializes InTx bodies, which is enough to model the
// per-owner serialization the contract asks of real stores.
type memStore struct {
	txMu sync.Mutex

	mu      sync.Mutex
	records map[uuid.UUID]session.Session
	seq     map[uuid.UUID]int
	nextSeq int
	now     func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[uuid.UUID]session.Session),
		seq:     make(map[uuid.UUID]int),
		now:     time.Now,
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *memStore) Create(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.ID = uuid.New()
	s.records[sess.ID] = *sess
	s.nextSeq++
	s.seq[sess.ID] = s.nextSeq
	return nil
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.records[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *memStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	delete(s.seq, id)
	return true, nil
}

func (s *memStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.records {
		if sess.OwnerID == ownerID {
			delete(s.records, id)
			delete(s.seq, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) RecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []session.Session
	for _, sess := range s.records {
		if sess.OwnerID == ownerID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.records[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.LastUsedAt = &at
	s.records[id] = sess
	return nil
}

func (s *memStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for id, sess := range s.records {
		if sess.IsExpired(now) {
			delete(s.records, id)
			delete(s.seq, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) count(ownerID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sess := range s.records {
		if sess.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func (s *memStore) has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[id]
	return ok
}
