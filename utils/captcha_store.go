package utils

import (
	"context"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

// redisCaptchaStore implements base64Captcha.Store backed by Redis.
type redisCaptchaStore struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewRedisCaptchaStore returns a captcha store keeping answers for ttl
// (ten minutes when ttl <= 0).
func NewRedisCaptchaStore(rc *redis.Client, ttl time.Duration) base64Captcha.Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisCaptchaStore{rc: rc, ttl: ttl}
}

func (s *redisCaptchaStore) key(id string) string {
	return "captcha:" + id
}

func (s *redisCaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.rc.Set(ctx, s.key(id), value, s.ttl).Err()
}

func (s *redisCaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := s.key(id)
	if clear {
		v, err := s.rc.GetDel(ctx, key).Result()
		if err != nil {
			return ""
		}
		return v
	}
	v, err := s.rc.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && v == answer
}
