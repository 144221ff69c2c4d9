package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"finora/api/logger"
	"finora/api/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// timestampsKey indexes every cached profile key by write time so stale
// entries can be swept.
const timestampsKey = "profiles_timestamps"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// RedisCache stores gzip-compressed JSON profiles under profile:<user id>.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return NewRedisCacheFromClient(redis.NewClient(opts))
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*models.Profile, error) {
	val, err := r.client.Get(ctx, profileKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return decodeProfile(val)
}

func (r *RedisCache) Set(ctx context.Context, userID string, profile models.Profile, ttl time.Duration) error {
	val, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	key := profileKey(userID)
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return err
	}

	return r.client.ZAdd(ctx, timestampsKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: key,
	}).Err()
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	key := profileKey(userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return err
	}
	return r.client.ZRem(ctx, timestampsKey, key).Err()
}

// DeleteOlderThan removes every profile written before now-olderThan.
func (r *RedisCache) DeleteOlderThan(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).Unix()

	keys, err := r.client.ZRangeByScore(ctx, timestampsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff),
	}).Result()
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return err
	}

	logger.Get().Info("swept stale cached profiles", zap.Int("count", len(keys)))
	return r.client.ZRem(ctx, timestampsKey, keys).Err()
}

func profileKey(userID string) string {
	return "profile:" + userID
}

func encodeProfile(p models.Profile) ([]byte, error) {
	val, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	compressed, err := compress(val)
	if err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	return compressed, nil
}

func decodeProfile(val []byte) (*models.Profile, error) {
	decompressed, err := decompress(val)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	if decompressed == nil {
		return nil, nil
	}

	profile := models.Empty()
	if err := json.Unmarshal(decompressed, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
