// Package weather connects waypoints to weather providers: provider selection with
// fallback, the per-trip fetch state, concurrent fetching and the redis cache.
package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

// Source fetches one normalized observation for a position at a target time.
type Source interface {
	Fetch(ctx context.Context, lat, lon float64, at time.Time) (*t.Observation, error)
	Name() string
}

// NearestIndex returns the index of the entry closest to target, or -1 for an empty series.
// Ties go to the earliest entry in the series.
func NearestIndex(times []time.Time, target time.Time) int {
	best, bestDiff := -1, time.Duration(0)
	for i, ts := range times {
		diff := ts.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// Chain tries the regional source for positions inside its region and falls back to the
// global source on failure or outside the region.
type Chain struct {
	Regional Source
	InRegion func(lat, lon float64) bool
	Global   Source
}

func (c *Chain) Name() string {
	if c.Regional == nil {
		return c.Global.Name()
	}
	return fmt.Sprintf("%s+%s", c.Regional.Name(), c.Global.Name())
}

func (c *Chain) Fetch(ctx context.Context, lat, lon float64, at time.Time) (*t.Observation, error) {
	var regionalErr error
	if c.Regional != nil && c.InRegion != nil && c.InRegion(lat, lon) {
		obs, err := c.Regional.Fetch(ctx, lat, lon, at)
		if err == nil {
			return obs, nil
		}
		regionalErr = err
	}
	obs, err := c.Global.Fetch(ctx, lat, lon, at)
	if err != nil {
		if regionalErr != nil {
			return nil, errors.Join(regionalErr, err)
		}
		return nil, err
	}
	return obs, nil
}

// ClassifyUnlabelled returns kind unchanged unless the provider gave no classification
// (PrecipNone) for falling precipitation below freezing, which is reported as snow.
// Unclassified precipitation above freezing stays PrecipNone and is scored as unknown.
func ClassifyUnlabelled(kind t.PrecipitationType, intensityMmPerHour, temperatureC float64) t.PrecipitationType {
	if kind == t.PrecipNone && intensityMmPerHour > 0 && temperatureC < 0 {
		return t.PrecipSnow
	}
	return kind
}
