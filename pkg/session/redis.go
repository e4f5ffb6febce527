package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/yakhtimoon-console/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisStore keeps the token in Redis so several console instances share
// one session. Expiry is delegated to the key TTL.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultTokenKey
	}
	return &RedisStore{client: client, key: "console:session:" + key}
}

func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, s.key)
	ttl := pipe.PTTL(ctx, s.key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	token, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	rec := Record{Token: token}
	if d, err := ttl.Result(); err == nil && d > 0 {
		rec.ExpiresAt = time.Now().Add(d)
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		ttl = time.Until(rec.ExpiresAt)
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}
	if err := s.client.Set(ctx, s.key, rec.Token, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
