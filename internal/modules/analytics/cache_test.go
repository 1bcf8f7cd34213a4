package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := cacheKey("summary", "link-1", "1700000000", "1702592000", "UTC", "day", "0")
	b := cacheKey("summary", "link-1", "1700000000", "1702592000", "UTC", "day", "0")
	assert.Equal(t, a, b)
}

func TestCacheKeyVariesByDimension(t *testing.T) {
	base := cacheKey("summary", "link-1", "1700000000", "UTC")
	assert.NotEqual(t, base, cacheKey("viewers", "link-1", "1700000000", "UTC"))
	assert.NotEqual(t, base, cacheKey("summary", "link-2", "1700000000", "UTC"))
	assert.NotEqual(t, base, cacheKey("summary", "link-1", "1700000001", "UTC"))
	assert.NotEqual(t, base, cacheKey("summary", "link-1", "1700000000", "America/New_York"))
}

func TestCacheKeyShape(t *testing.T) {
	key := cacheKey("funnel", "link-1")
	assert.True(t, strings.HasPrefix(key, cacheKeyPrefix+"funnel:"))
	hash := strings.TrimPrefix(key, cacheKeyPrefix+"funnel:")
	assert.Len(t, hash, 16)
}

func TestCacheKeySeparatorInjection(t *testing.T) {
	// A value containing the separator must not collide with split values.
	a := cacheKey("summary", "link|1", "x")
	b := cacheKey("summary", "link", "1|x")
	assert.NotEqual(t, a, b)
}
