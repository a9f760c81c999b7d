package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

// GeoCache is the subset of the redis client used for the observation cache.
type GeoCache interface {
	GeoAdd(ctx context.Context, key string, geoLocation ...*redis.GeoLocation) *redis.IntCmd
	GeoRadius(ctx context.Context, key string, longitude, latitude float64, query *redis.GeoRadiusQuery) *redis.GeoLocationCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type cachedObservation struct {
	Rand        float64
	Observation t.Observation
}

// CachedSource serves observations from redis when one was stored within RadiusKm for the
// same nearest hour, and stores fresh provider results. Redis errors fall through to the provider.
type CachedSource struct {
	Source   Source
	Cache    GeoCache
	TTL      time.Duration
	RadiusKm float64
	Logger   *zap.SugaredLogger
}

func (c *CachedSource) Name() string {
	return c.Source.Name()
}

// key buckets at by the hourly entry a provider would match it to: the nearest hour, with
// half past going to the earlier one.
func (c *CachedSource) key(at time.Time) string {
	return fmt.Sprintf("weather:%s:%d", c.Source.Name(), nearestHour(at).Unix())
}

func nearestHour(at time.Time) time.Time {
	hour := at.UTC().Truncate(time.Hour)
	if at.Sub(hour) > 30*time.Minute {
		return hour.Add(time.Hour)
	}
	return hour
}

func (c *CachedSource) Fetch(ctx context.Context, lat, lon float64, at time.Time) (*t.Observation, error) {
	key := c.key(at)
	radius := c.RadiusKm
	if radius == 0 {
		radius = 10
	}

	locations, err := c.Cache.GeoRadius(ctx, key, lon, lat, &redis.GeoRadiusQuery{
		Radius:    radius,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     1,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		c.Logger.Errorf("Redis error when fetching GeoRadius for (%v, %v): %v", lat, lon, err.Error())
	}
	if len(locations) > 0 {
		var cached cachedObservation
		if err := json.Unmarshal([]byte(locations[0].Name), &cached); err != nil {
			c.Logger.Errorf("Error unmarshalling redis weather for (%v, %v): %v", lat, lon, err.Error())
		} else {
			return &cached.Observation, nil
		}
	}

	obs, err := c.Source.Fetch(ctx, lat, lon, at)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, lat, lon, obs)
	return obs, nil
}

func (c *CachedSource) store(ctx context.Context, key string, lat, lon float64, obs *t.Observation) {
	member, err := json.Marshal(cachedObservation{Rand: rand.Float64(), Observation: *obs})
	if err != nil {
		c.Logger.Errorf("Error marshalling weather for redis: %v", err.Error())
		return
	}
	if err := c.Cache.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      string(member),
		Longitude: lon,
		Latitude:  lat,
	}).Err(); err != nil {
		c.Logger.Errorf("Redis error when adding weather for (%v, %v): %v", lat, lon, err.Error())
		return
	}
	ttl := c.TTL
	if ttl == 0 {
		ttl = 3 * time.Hour
	}
	if err := c.Cache.Expire(ctx, key, ttl).Err(); err != nil {
		c.Logger.Warnf("Redis error setting expiry on %v: %v", key, err.Error())
	}
}
