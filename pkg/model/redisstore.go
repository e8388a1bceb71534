package model

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zpam/sms-filter/pkg/errs"
)

// RedisConfig holds Redis artifact store configuration
type RedisConfig struct {
	URL         string        `json:"url" yaml:"url"`
	KeyPrefix   string        `json:"key_prefix" yaml:"key_prefix"`
	DatabaseNum int           `json:"database_num" yaml:"database_num"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultRedisConfig returns default Redis configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		URL:         "redis://localhost:6379",
		KeyPrefix:   "zsms:model",
		DatabaseNum: 0,
		Timeout:     5 * time.Second,
	}
}

// RedisStore keeps both artifacts as plain string keys under one prefix.
type RedisStore struct {
	client *redis.Client
	config *RedisConfig
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %v", err)
	}
	opt.DB = config.DatabaseNum
	if config.Timeout > 0 {
		opt.DialTimeout = config.Timeout
		opt.ReadTimeout = config.Timeout
		opt.WriteTimeout = config.Timeout
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout(config))
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis connection failed: %v", err)
	}

	return &RedisStore{client: client, config: config}, nil
}

func pingTimeout(config *RedisConfig) time.Duration {
	if config.Timeout > 0 {
		return config.Timeout
	}
	return 5 * time.Second
}

func (rs *RedisStore) vectorizerKey() string {
	return rs.config.KeyPrefix + ":" + KindVectorizer
}

func (rs *RedisStore) classifierKey() string {
	return rs.config.KeyPrefix + ":" + KindClassifier
}

// Describe names the store for logs
func (rs *RedisStore) Describe() string {
	return fmt.Sprintf("redis:%s/%d/%s", rs.client.Options().Addr, rs.config.DatabaseNum, rs.config.KeyPrefix)
}

// Save writes both artifacts in a single MULTI/EXEC transaction
func (rs *RedisStore) Save(ctx context.Context, b *Bundle) error {
	vec, cls, err := b.Encode()
	if err != nil {
		return err
	}

	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rs.vectorizerKey(), vec, 0)
		pipe.Set(ctx, rs.classifierKey(), cls, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store artifacts in Redis: %w", err)
	}
	return nil
}

// Load fetches both artifacts with one MGET and validates the pair
func (rs *RedisStore) Load(ctx context.Context) (*Bundle, error) {
	const op = "model.RedisStore.Load"

	values, err := rs.client.MGet(ctx, rs.vectorizerKey(), rs.classifierKey()).Result()
	if err != nil {
		return nil, errs.Errorf(errs.KindModelLoad, op, "failed to read artifacts: %w", err)
	}

	keys := []string{rs.vectorizerKey(), rs.classifierKey()}
	var raw [2][]byte
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, errs.Errorf(errs.KindModelLoad, op, "artifact %s not found (run 'zsms train' first)", keys[i])
		}
		raw[i] = []byte(s)
	}
	return Decode(raw[0], raw[1])
}

// Delete removes both artifacts
func (rs *RedisStore) Delete(ctx context.Context) error {
	return rs.client.Del(ctx, rs.vectorizerKey(), rs.classifierKey()).Err()
}

// Close closes the Redis connection
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
