package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound is returned when an OAuth state is unknown or already used.
var ErrStateNotFound = errors.New("oauth state not found")

type Store struct {
	rdb    *redis.Client
	prefix string
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, prefix: "doclimb"}
}

func (s *Store) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// RevokeToken blocks a single token id until it would have expired anyway.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, s.key("revoked", tokenID), 1, ttl).Err()
}

// RevokeUser blocks every token of the user issued at or before at. The
// cutoff keeps millisecond precision so a sign-in right after it survives.
func (s *Store) RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key("revoked_before", userID), at.UnixMilli(), ttl).Err()
}

func (s *Store) IsRevoked(ctx context.Context, tokenID, userID string, issuedAt time.Time) (bool, error) {
	pipe := s.rdb.Pipeline()
	tokenCmd := pipe.Exists(ctx, s.key("revoked", tokenID))
	userCmd := pipe.Get(ctx, s.key("revoked_before", userID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}

	if tokenCmd.Val() > 0 {
		return true, nil
	}

	cutoff, err := userCmd.Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	millis, err := strconv.ParseInt(cutoff, 10, 64)
	if err != nil {
		return false, nil
	}
	return !issuedAt.After(time.UnixMilli(millis)), nil
}

// RegisterFailure counts a failed attempt inside a rolling window and returns the new count.
func (s *Store) RegisterFailure(ctx context.Context, subject string, window time.Duration) (int64, error) {
	key := s.key("login_failures", subject)
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *Store) Failures(ctx context.Context, subject string) (int64, error) {
	count, err := s.rdb.Get(ctx, s.key("login_failures", subject)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}

func (s *Store) ClearFailures(ctx context.Context, subject string) error {
	return s.rdb.Del(ctx, s.key("login_failures", subject)).Err()
}

func (s *Store) SaveState(ctx context.Context, state, provider string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key("oauth_state", state), provider, ttl).Err()
}

// ConsumeState returns the provider bound to state and deletes it.
func (s *Store) ConsumeState(ctx context.Context, state string) (string, error) {
	provider, err := s.rdb.GetDel(ctx, s.key("oauth_state", state)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	return provider, err
}
