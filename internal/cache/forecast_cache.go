package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	forecastKeyPrefix   = "forecast:demand"
	elasticityKeyPrefix = "forecast:elasticity"
	forecastScanBatch   = 100
)

// ForecastCache caches computed forecasts and elasticity estimates.
// Entries for a product are invalidated whenever it is retrained.
type ForecastCache interface {
	GetForecast(ctx context.Context, productID int64, horizonDays int) (*domain.DemandForecast, bool, error)
	SetForecast(ctx context.Context, forecast *domain.DemandForecast, horizonDays int) error
	GetElasticity(ctx context.Context, productID int64) (*domain.ElasticityEstimate, bool, error)
	SetElasticity(ctx context.Context, estimate *domain.ElasticityEstimate) error
	InvalidateProduct(ctx context.Context, productID int64) error
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

func forecastKey(productID int64, horizonDays int) string {
	return fmt.Sprintf("%s:%d:%d", forecastKeyPrefix, productID, horizonDays)
}

func elasticityKey(productID int64) string {
	return fmt.Sprintf("%s:%d", elasticityKeyPrefix, productID)
}

func (c *redisForecastCache) GetForecast(ctx context.Context, productID int64, horizonDays int) (*domain.DemandForecast, bool, error) {
	payload, err := c.client.Get(ctx, forecastKey(productID, horizonDays)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var forecast domain.DemandForecast
	if err := json.Unmarshal(payload, &forecast); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &forecast, true, nil
}

func (c *redisForecastCache) SetForecast(ctx context.Context, forecast *domain.DemandForecast, horizonDays int) error {
	payload, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}
	if err := c.client.Set(ctx, forecastKey(forecast.ProductID, horizonDays), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) GetElasticity(ctx context.Context, productID int64) (*domain.ElasticityEstimate, bool, error) {
	payload, err := c.client.Get(ctx, elasticityKey(productID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var estimate domain.ElasticityEstimate
	if err := json.Unmarshal(payload, &estimate); err != nil {
		return nil, false, fmt.Errorf("decode elasticity cache: %w", err)
	}
	return &estimate, true, nil
}

func (c *redisForecastCache) SetElasticity(ctx context.Context, estimate *domain.ElasticityEstimate) error {
	payload, err := json.Marshal(estimate)
	if err != nil {
		return fmt.Errorf("encode elasticity cache: %w", err)
	}
	if err := c.client.Set(ctx, elasticityKey(estimate.ProductID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	if err := deleteKeysWithPrefix(ctx, c.client, fmt.Sprintf("%s:%d:", forecastKeyPrefix, productID), forecastScanBatch); err != nil {
		return err
	}
	return c.client.Del(ctx, elasticityKey(productID)).Err()
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatch); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, elasticityKeyPrefix, forecastScanBatch)
}

func (n *noopForecastCache) GetForecast(ctx context.Context, productID int64, horizonDays int) (*domain.DemandForecast, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetForecast(ctx context.Context, forecast *domain.DemandForecast, horizonDays int) error {
	return nil
}

func (n *noopForecastCache) GetElasticity(ctx context.Context, productID int64) (*domain.ElasticityEstimate, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetElasticity(ctx context.Context, estimate *domain.ElasticityEstimate) error {
	return nil
}

func (n *noopForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}
