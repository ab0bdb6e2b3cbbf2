// Package cache provides the key/value store abstraction and cache-aside reads.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: miss")

// Store is the key/value store injected into services.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// NopStore never stores anything. Every Get is a miss.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrMiss
}

func (NopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NopStore) Del(context.Context, ...string) error {
	return nil
}

func (NopStore) Expire(context.Context, string, time.Duration) error {
	return nil
}
