package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/storm-attribution-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	reverseCalls int
	result       domain.GeocodingResult
	err          error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.reverseCalls++
	return m.result, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_ReverseCacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{FormattedAddress: "Mexico Beach, Florida, United States", PlaceName: "Mexico Beach"},
	}
	metrics := testMetrics()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ReverseGeocode(context.Background(), 29.9481, -85.4199)
	require.NoError(t, err)
	assert.Equal(t, "Mexico Beach", r1.PlaceName)

	// Within the same 0.01 degree cell.
	r2, err := cached.ReverseGeocode(context.Background(), 29.9479, -85.4201)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.reverseCalls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedGeocoder_DifferentCellsMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{FormattedAddress: "Somewhere"},
	}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 29.95, -85.42)
	_, _ = cached.ReverseGeocode(context.Background(), 28.80, -88.70)

	assert.Equal(t, 2, inner.reverseCalls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 25.0, -60.0)
	_, _ = cached.ReverseGeocode(context.Background(), 25.0, -60.0)

	assert.Equal(t, 2, inner.reverseCalls, "open-ocean misses should be retried")
}

func TestCachedGeocoder_ErrorPassesThrough(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 25.0, -60.0)
	require.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "rev:29.95,-85.42", cacheKey(29.9481, -85.4199))
	assert.Equal(t, cacheKey(17.801, -86.6), cacheKey(17.799, -86.601))
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.PlaceName)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.put("c", domain.GeocodingResult{PlaceName: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.PlaceName)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.get("a")
	c.put("c", domain.GeocodingResult{PlaceName: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A1"})
	c.put("a", domain.GeocodingResult{PlaceName: "A2"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.PlaceName)
}
