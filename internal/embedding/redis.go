package embedding

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores vectors in Redis as little-endian float32 blobs.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, prefix: "arcana:emb:", ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (Vector, bool, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, err := decodeVector(b)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, v Vector) error {
	return r.rdb.Set(ctx, r.prefix+key, encodeVector(v), r.ttl).Err()
}

// Close closes the Redis client.
func (r *RedisCache) Close() error { return r.rdb.Close() }

func encodeVector(v Vector) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

func decodeVector(b []byte) (Vector, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector blob: %d bytes", len(b))
	}
	v := make(Vector, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
