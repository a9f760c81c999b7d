package weather

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

// FetchAll fetches weather for every waypoint at its arrival time, at most limit at a time.
// A failed fetch stores nil for that waypoint and never aborts the others.
func FetchAll(ctx context.Context, src Source, waypoints []t.Waypoint, state *FetchState, tripID string, limit int, logger *zap.SugaredLogger) {
	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, wp := range waypoints {
		i, wp := i, wp
		g.Go(func() error {
			obs, err := src.Fetch(ctx, wp.Latitude, wp.Longitude, wp.ArrivalTime)
			if err != nil {
				logger.Warnw("weather fetch failed",
					"trip", tripID, "index", i, "lat", wp.Latitude, "lon", wp.Longitude, "error", err.Error())
				obs = nil
			}
			if !state.Put(tripID, i, obs) {
				logger.Debugw("dropping weather for superseded trip", "trip", tripID, "index", i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
