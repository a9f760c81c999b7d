// Package waypoint samples a route into hourly, time-stamped waypoints.
package waypoint

import (
	"math"
	"time"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

const (
	Interval = time.Hour

	// EnRoute labels a waypoint when no route step supplies a name.
	EnRoute = "En route"
)

// Derive returns the departure point, one waypoint per full hour of driving, and the
// destination. A tick that lands on or past the end of the route is replaced by the
// destination, so the result has ceil(duration/1h)+1 waypoints and never fewer than two.
func Derive(route *t.Route, departure time.Time, originLabel, destinationLabel string) ([]t.Waypoint, error) {
	if route == nil || len(route.Geometry) == 0 {
		return nil, t.ErrEmptyGeometry
	}
	geometry := route.Geometry
	last := geometry[len(geometry)-1]
	total := route.DurationSeconds
	step := Interval.Seconds()

	waypoints := []t.Waypoint{{
		Latitude:     geometry[0].Latitude,
		Longitude:    geometry[0].Longitude,
		LocationName: originLabel,
		ArrivalTime:  departure,
	}}

	// a route with no driving time still reports weather at both ends
	if total <= 0 {
		return append(waypoints, t.Waypoint{
			Latitude:            last.Latitude,
			Longitude:           last.Longitude,
			LocationName:        destinationLabel,
			ArrivalTime:         departure,
			DistanceFromStartKm: route.DistanceKm,
		}), nil
	}

	hours := int(math.Ceil(total / step))
	for h := 1; h <= hours; h++ {
		offset := float64(h) * step
		if offset >= total {
			waypoints = append(waypoints, t.Waypoint{
				Latitude:            last.Latitude,
				Longitude:           last.Longitude,
				LocationName:        destinationLabel,
				ArrivalTime:         departure.Add(seconds(total)),
				DistanceFromStartKm: route.DistanceKm,
			})
			break
		}

		progress := offset / total
		p := geometry[pointIndex(progress, len(geometry))]
		waypoints = append(waypoints, t.Waypoint{
			Latitude:            p.Latitude,
			Longitude:           p.Longitude,
			LocationName:        label(route.Steps, offset),
			ArrivalTime:         departure.Add(seconds(offset)),
			DistanceFromStartKm: progress * route.DistanceKm,
		})
	}
	return waypoints, nil
}

func pointIndex(progress float64, n int) int {
	idx := int(math.Round(progress * float64(n-1)))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

// label names the first step whose cumulative duration reaches offset.
func label(steps []t.Step, offset float64) string {
	var elapsed float64
	for _, s := range steps {
		elapsed += s.Duration
		if elapsed >= offset {
			if s.Name == "" {
				return EnRoute
			}
			return s.Name
		}
	}
	return EnRoute
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Shift returns a copy of waypoints with every arrival moved by offset, for evaluating the
// same route at a later departure.
func Shift(waypoints []t.Waypoint, offset time.Duration) []t.Waypoint {
	shifted := make([]t.Waypoint, len(waypoints))
	for i, wp := range waypoints {
		wp.ArrivalTime = wp.ArrivalTime.Add(offset)
		shifted[i] = wp
	}
	return shifted
}
