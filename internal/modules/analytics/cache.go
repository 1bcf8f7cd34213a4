package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/paperlink/core/internal/pkg/redis"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "paperlink:analytics:"

// memo caches computed analytics payloads in Redis. A nil client degrades to
// compute-every-time, so the API works without Redis in development.
type memo struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func newMemo(client *redis.Client, ttl time.Duration, logger *zap.Logger) *memo {
	return &memo{client: client, ttl: ttl, logger: logger}
}

// cacheKey derives a fixed-width key from the request dimensions. The parts
// are hashed, not concatenated, so user-supplied values can never collide
// with the key namespace.
func cacheKey(endpoint string, parts ...string) string {
	h := xxhash.New()
	h.WriteString(endpoint)
	for _, p := range parts {
		// Length-prefix every part so a value containing the separator
		// cannot collide with a differently-split sequence.
		h.WriteString(fmt.Sprintf("|%d:", len(p)))
		h.WriteString(p)
	}
	return fmt.Sprintf("%s%s:%016x", cacheKeyPrefix, endpoint, h.Sum64())
}

// fetch returns the memoized payload for key, or computes, stores and returns
// it. Cache failures are logged and otherwise invisible to the caller.
func (m *memo) fetch(ctx context.Context, key string, compute func() (interface{}, error)) (json.RawMessage, error) {
	if m.client != nil {
		if hit, err := m.client.Get(ctx, key); err == nil && hit != "" {
			return json.RawMessage(hit), nil
		}
	}

	payload, err := compute()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if m.client != nil {
		if err := m.client.Set(ctx, key, string(raw), m.ttl); err != nil {
			m.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return raw, nil
}
