package types

import "errors"

// Trip planning fails outright on the first three; the upstream errors are recovered per
// waypoint by recording a nil observation.
var (
	ErrLocationNotFound    = errors.New("location not found")
	ErrNoRouteFound        = errors.New("no route found")
	ErrEmptyGeometry       = errors.New("route geometry is empty")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamFormat      = errors.New("unexpected upstream response format")
)
