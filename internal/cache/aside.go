package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"facegram/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Aside reads key from store and decodes it as T. On a miss it calls fetch,
// stores the JSON encoding of the result for ttl and returns it.
//
// Store failures are logged and treated as misses so a cache outage only
// costs latency. Errors from fetch are returned and nothing is cached.
func Aside[T any](ctx context.Context, store Store, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	keyspace := Keyspace(key)

	raw, err := store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			observability.CacheLookups.WithLabelValues(keyspace, "hit").Inc()
			return cached, nil
		}
		observability.GlobalLogger.WarnContext(ctx, "discarding corrupt cache entry", slog.String("key", key))
		observability.CacheLookups.WithLabelValues(keyspace, "error").Inc()
	case errors.Is(err, ErrMiss):
		observability.CacheLookups.WithLabelValues(keyspace, "miss").Inc()
	default:
		observability.GlobalLogger.WarnContext(ctx, "cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		observability.CacheLookups.WithLabelValues(keyspace, "error").Inc()
	}

	spanCtx, span := observability.StartSpan(ctx, "cache.fetch", attribute.String("cache.keyspace", keyspace))
	value, err := fetch(spanCtx)
	observability.EndSpan(span, err)
	if err != nil {
		var zero T
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "cache encode failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return value, nil
	}
	if err := store.Set(ctx, key, encoded, ttl); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return value, nil
}

// Invalidate deletes keys, logging instead of failing.
func Invalidate(ctx context.Context, store Store, keys ...string) {
	if err := store.Del(ctx, keys...); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "cache invalidate failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

// Keyspace is the prefix of key before the first colon, used as a metric label.
func Keyspace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
