package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brizzinck/tyutyun-shop/internal/user/domain"
)

// TokenStore keeps pending registrations in redis under their activation
// token. GETDEL makes activation one-shot without any coordination.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func key(token string) string {
	return "regtoken:" + token
}

func (s *TokenStore) Save(ctx context.Context, token string, payload []byte, ttl time.Duration) error {
	ok, err := s.rdb.SetNX(ctx, key(token), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("token already in use")
	}
	return nil
}

func (s *TokenStore) Take(ctx context.Context, token string) ([]byte, error) {
	v, err := s.rdb.GetDel(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
