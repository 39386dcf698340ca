package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

const defaultRedisKey = "focus:state"

// RedisStore keeps state as fields of one Redis hash.
type RedisStore struct {
	pool *redis.Pool
	key  string
}

// NewRedisStore creates a store using the server at addr and the hash named key.
func NewRedisStore(addr, key string) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis store: address is empty")
	}
	if key == "" {
		key = defaultRedisKey
	}

	pool := &redis.Pool{
		MaxIdle:     2,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(5*time.Second),
				redis.DialWriteTimeout(5*time.Second),
			)
		},
		TestOnBorrow: func(conn redis.Conn, lastUsed time.Time) error {
			if time.Since(lastUsed) < time.Minute {
				return nil
			}
			_, err := conn.Do("PING")
			return err
		},
	}
	return &RedisStore{pool: pool, key: key}, nil
}

// Get reads the requested hash fields, or the whole hash when keys is empty.
func (store *RedisStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	conn, err := store.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	result := make(map[string][]byte)
	if len(keys) == 0 {
		values, err := redis.StringMap(conn.Do("HGETALL", store.key))
		if err != nil {
			return nil, fmt.Errorf("redis hgetall: %w", err)
		}
		for field, value := range values {
			result[field] = []byte(value)
		}
		return result, nil
	}

	args := redis.Args{}.Add(store.key).AddFlat(keys)
	values, err := redis.ByteSlices(conn.Do("HMGET", args...))
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}
	for index, value := range values {
		if value != nil {
			result[keys[index]] = value
		}
	}
	return result, nil
}

// Set writes every value with one HSET.
func (store *RedisStore) Set(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	conn, err := store.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	args := redis.Args{}.Add(store.key)
	for field, value := range values {
		args = args.Add(field, value)
	}
	if _, err := conn.Do("HSET", args...); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Clear deletes the hash.
func (store *RedisStore) Clear(ctx context.Context) error {
	conn, err := store.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("DEL", store.key); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases pooled connections.
func (store *RedisStore) Close() error {
	return store.pool.Close()
}
