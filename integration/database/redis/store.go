package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tokenkit/core/session"
)

// SessionStore persists session records in Redis. Records live in hashes
// keyed by session id, with a per-owner sorted set scored by creation time
// serving the recency queries, and a global sorted set of expiries backing
// the sweeper. Session keys additionally carry a Redis TTL so expired
// records vanish on their own.
//
// Redis has no multi-key transactions over an arbitrary callback, so InTx
// serializes bodies with an in-process mutex. Within one process this fully
// serializes the count-check against the insert; across processes the drift
// stays within the bounded tolerance the session manager accepts.
type SessionStore struct {
	client *redis.Client
	prefix string

	txMu sync.Mutex
}

// NewSessionStore creates a store backed by the given client. The prefix
// namespaces every key; pass cfg.KeyPrefix.
func NewSessionStore(client *redis.Client, prefix string) (*SessionStore, error) {
	if client == nil {
		return nil, errors.New("redis: nil client")
	}
	return &SessionStore{client: client, prefix: prefix}, nil
}

func (s *SessionStore) sessionKey(id uuid.UUID) string {
	return s.prefix + "session:" + id.String()
}

func (s *SessionStore) ownerKey(ownerID uuid.UUID) string {
	return s.prefix + "owner:" + ownerID.String()
}

func (s *SessionStore) expiriesKey() string {
	return s.prefix + "expiries"
}

// expiryMember encodes owner and session id together so the sweeper can
// clean the owner index without a lookup.
func expiryMember(ownerID, id uuid.UUID) string {
	return ownerID.String() + "/" + id.String()
}

func (s *SessionStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	sess.ID = uuid.New()

	fields := map[string]any{
		"owner_id":   sess.OwnerID.String(),
		"hash":       sess.Hash,
		"created_at": sess.CreatedAt.Format(time.RFC3339Nano),
	}
	if sess.ExpiresAt != nil {
		fields["expires_at"] = sess.ExpiresAt.Format(time.RFC3339Nano)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.sessionKey(sess.ID), fields)
	pipe.ZAdd(ctx, s.ownerKey(sess.OwnerID), redis.Z{
		Score:  float64(sess.CreatedAt.UnixNano()),
		Member: sess.ID.String(),
	})
	if sess.ExpiresAt != nil {
		pipe.ExpireAt(ctx, s.sessionKey(sess.ID), *sess.ExpiresAt)
		pipe.ZAdd(ctx, s.expiriesKey(), redis.Z{
			Score:  float64(sess.ExpiresAt.Unix()),
			Member: expiryMember(sess.OwnerID, sess.ID),
		})
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) FindByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return session.Session{}, err
	}
	if len(fields) == 0 {
		return session.Session{}, session.ErrNotFound
	}
	return parseSession(id, fields)
}

func (s *SessionStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	ownerRaw, err := s.client.HGet(ctx, s.sessionKey(id), "owner_id").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ownerID, err := uuid.Parse(ownerRaw)
	if err != nil {
		return false, err
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.sessionKey(id))
	pipe.ZRem(ctx, s.ownerKey(ownerID), id.String())
	pipe.ZRem(ctx, s.expiriesKey(), expiryMember(ownerID, id))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return del.Val() > 0, nil
}

func (s *SessionStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	ids, err := s.client.ZRange(ctx, s.ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	var dels []*redis.IntCmd
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		dels = append(dels, pipe.Del(ctx, s.sessionKey(id)))
		pipe.ZRem(ctx, s.expiriesKey(), expiryMember(ownerID, id))
	}
	pipe.Del(ctx, s.ownerKey(ownerID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	var n int64
	for _, del := range dels {
		n += del.Val()
	}
	return n, nil
}

func (s *SessionStore) RecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]session.Session, error) {
	if limit < 1 {
		return nil, nil
	}

	ids, err := s.client.ZRevRange(ctx, s.ownerKey(ownerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]session.Session, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}

		sess, err := s.FindByID(ctx, id)
		if errors.Is(err, session.ErrNotFound) {
			// TTL already evicted the record; heal the index.
			_ = s.client.ZRem(ctx, s.ownerKey(ownerID), raw).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *SessionStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return session.ErrNotFound
	}
	return s.client.HSet(ctx, s.sessionKey(id),
		"last_used_at", at.Format(time.RFC3339Nano)).Err()
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().Unix()
	members, err := s.client.ZRangeByScore(ctx, s.expiriesKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: formatScore(now),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	var n int64
	for _, member := range members {
		ownerRaw, idRaw, ok := strings.Cut(member, "/")
		if !ok {
			continue
		}
		ownerID, err := uuid.Parse(ownerRaw)
		if err != nil {
			continue
		}
		id, err := uuid.Parse(idRaw)
		if err != nil {
			continue
		}

		pipe := s.client.TxPipeline()
		del := pipe.Del(ctx, s.sessionKey(id))
		pipe.ZRem(ctx, s.ownerKey(ownerID), id.String())
		pipe.ZRem(ctx, s.expiriesKey(), member)
		if _, err := pipe.Exec(ctx); err != nil {
			return n, err
		}
		n += del.Val()
	}
	return n, nil
}

func parseSession(id uuid.UUID, fields map[string]string) (session.Session, error) {
	ownerID, err := uuid.Parse(fields["owner_id"])
	if err != nil {
		return session.Session{}, errors.Join(errors.New("redis: corrupt session record"), err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return session.Session{}, errors.Join(errors.New("redis: corrupt session record"), err)
	}

	sess := session.Session{
		ID:        id,
		OwnerID:   ownerID,
		Hash:      fields["hash"],
		CreatedAt: createdAt,
	}

	if raw, ok := fields["expires_at"]; ok {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return session.Session{}, errors.Join(errors.New("redis: corrupt session record"), err)
		}
		sess.ExpiresAt = &at
	}
	if raw, ok := fields["last_used_at"]; ok {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return session.Session{}, errors.Join(errors.New("redis: corrupt session record"), err)
		}
		sess.LastUsedAt = &at
	}

	return sess, nil
}

func formatScore(unix int64) string {
	return strconv.FormatInt(unix, 10)
}
