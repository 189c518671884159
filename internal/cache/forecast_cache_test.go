package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/replenish/internal/config"
	"github.com/retailops/replenish/internal/domain"
)

func testKey() ForecastKey {
	return ForecastKey{
		StoreID:     "s1",
		ProductID:   "p1",
		VersionID:   "v-123",
		AsOf:        time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC),
		HorizonDays: 30,
	}
}

func TestBuildForecastKeyDeterministic(t *testing.T) {
	assert.Equal(t, buildForecastKey(testKey()), buildForecastKey(testKey()))
}

func TestBuildForecastKeyIgnoresTimeOfDay(t *testing.T) {
	a := testKey()
	b := testKey()
	b.AsOf = b.AsOf.Add(3 * time.Hour)

	assert.Equal(t, buildForecastKey(a), buildForecastKey(b),
		"keys are day-granular; intra-day reads share an entry")
}

func TestBuildForecastKeyDistinguishesVersions(t *testing.T) {
	a := testKey()
	b := testKey()
	b.VersionID = "v-456"

	assert.NotEqual(t, buildForecastKey(a), buildForecastKey(b))
}

func TestBuildForecastKeySharesPairPrefix(t *testing.T) {
	a := testKey()
	b := testKey()
	b.HorizonDays = 7

	prefix := forecastKeyPrefix + ":" + pairHash(a.StoreID, a.ProductID)
	assert.True(t, strings.HasPrefix(buildForecastKey(a), prefix))
	assert.True(t, strings.HasPrefix(buildForecastKey(b), prefix),
		"every key for a pair must share the prefix InvalidatePair scans")

	other := testKey()
	other.ProductID = "p2"
	assert.False(t, strings.HasPrefix(buildForecastKey(other), prefix))
}

func TestNoopCache(t *testing.T) {
	cache := NewNoopForecastCache()
	ctx := context.Background()

	require.NoError(t, cache.SetSeries(ctx, testKey(), []domain.ForecastPoint{{P50: 1}}))

	_, ok, err := cache.GetSeries(ctx, testKey())
	require.NoError(t, err)
	assert.False(t, ok, "noop cache never hits")

	require.NoError(t, cache.InvalidatePair(ctx, "s1", "p1"))
	require.NoError(t, cache.InvalidateAll(ctx))
}

func TestNewForecastCacheDisabled(t *testing.T) {
	cache, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	_, ok, err := cache.GetSeries(context.Background(), testKey())
	require.NoError(t, err)
	assert.False(t, ok)
}
