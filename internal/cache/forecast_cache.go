package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retailops/replenish/internal/config"
	"github.com/retailops/replenish/internal/domain"
)

const (
	forecastKeyPrefix     = "forecast:series"
	forecastScanBatchSize = 100
)

// ForecastKey identifies one cached forecast series. The model version is
// part of the key, so publishing a new version naturally misses the cache;
// InvalidatePair exists for explicit eviction on retrain.
type ForecastKey struct {
	StoreID     string
	ProductID   string
	VersionID   string
	AsOf        time.Time
	HorizonDays int
}

type ForecastCache interface {
	GetSeries(ctx context.Context, key ForecastKey) ([]domain.ForecastPoint, bool, error)
	SetSeries(ctx context.Context, key ForecastKey, points []domain.ForecastPoint) error
	InvalidatePair(ctx context.Context, storeID, productID string) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetSeries(ctx context.Context, key ForecastKey) ([]domain.ForecastPoint, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var points []domain.ForecastPoint
	if err := json.Unmarshal(payload, &points); err != nil {
		return nil, false, fmt.Errorf("decode forecast series cache: %w", err)
	}

	return points, true, nil
}

func (c *redisForecastCache) SetSeries(ctx context.Context, key ForecastKey, points []domain.ForecastPoint) error {
	payload, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("encode forecast series cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidatePair(ctx context.Context, storeID, productID string) error {
	prefix := fmt.Sprintf("%s:%s", forecastKeyPrefix, pairHash(storeID, productID))
	return deleteKeysWithPrefix(ctx, c.client, prefix, forecastScanBatchSize)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) GetSeries(ctx context.Context, key ForecastKey) ([]domain.ForecastPoint, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetSeries(ctx context.Context, key ForecastKey, points []domain.ForecastPoint) error {
	return nil
}

func (n *noopForecastCache) InvalidatePair(ctx context.Context, storeID, productID string) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(key ForecastKey) string {
	parts := []string{
		"version=" + key.VersionID,
		"as_of=" + key.AsOf.UTC().Format("2006-01-02"),
		fmt.Sprintf("horizon=%d", key.HorizonDays),
	}
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))

	return fmt.Sprintf("%s:%s:%s", forecastKeyPrefix, pairHash(key.StoreID, key.ProductID), hex.EncodeToString(sum[:]))
}

func pairHash(storeID, productID string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(storeID) + "|" + strings.TrimSpace(productID)))
	return hex.EncodeToString(sum[:])
}
