// Package rediscache decorates a UserStore with a read-through Redis
// cache. Profile reads happen on every authenticated request, so the
// hot path avoids the backing store.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/logging"
)

const defaultTTL = 5 * time.Minute

// UserStore wraps an inner storage.UserStore with caching by id and
// wallet address. Writes invalidate; reads fall through on any cache
// error so Redis outages degrade to the inner store.
type UserStore struct {
	inner storage.UserStore
	rdb   *redis.Client
	ttl   time.Duration
	log   *logging.Logger
}

// NewUserStore creates the caching decorator.
func NewUserStore(inner storage.UserStore, rdb *redis.Client, log *logging.Logger) *UserStore {
	return &UserStore{inner: inner, rdb: rdb, ttl: defaultTTL, log: log}
}

func userKey(id string) string     { return "user:id:" + id }
func walletKey(addr string) string { return "user:wallet:" + addr }

func (s *UserStore) CreateUser(ctx context.Context, u *user.User) error {
	if err := s.inner.CreateUser(ctx, u); err != nil {
		return err
	}
	s.put(ctx, u)
	return nil
}

func (s *UserStore) UpdateUser(ctx context.Context, u *user.User) error {
	if err := s.inner.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.put(ctx, u)
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	if u := s.get(ctx, userKey(id)); u != nil {
		return u, nil
	}
	u, err := s.inner.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, u)
	return u, nil
}

func (s *UserStore) GetUserByWallet(ctx context.Context, wallet string) (*user.User, error) {
	if u := s.get(ctx, walletKey(wallet)); u != nil {
		return u, nil
	}
	u, err := s.inner.GetUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	s.put(ctx, u)
	return u, nil
}

// ListUsers is a full scan and never served from cache.
func (s *UserStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.inner.ListUsers(ctx)
}

func (s *UserStore) get(ctx context.Context, key string) *user.User {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.WithError(err).Debug("redis get failed")
		}
		return nil
	}
	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil
	}
	return &u
}

func (s *UserStore) put(ctx context.Context, u *user.User) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, userKey(u.ID), data, s.ttl)
	pipe.Set(ctx, walletKey(u.WalletAddress), data, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.WithError(err).Debug("redis set failed")
	}
}
