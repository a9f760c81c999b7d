package waypoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanhutnik/tripcheck-service/internal/types"
)

var departure = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func line(n int) []types.Point {
	points := make([]types.Point, n)
	for i := range points {
		points[i] = types.Point{Latitude: 59 - float64(i)*0.1, Longitude: 18 - float64(i)*0.1}
	}
	return points
}

func TestDerive_NinetyMinutes(t *testing.T) {
	route := &types.Route{Geometry: line(11), DistanceKm: 150, DurationSeconds: 5400}

	wps, err := Derive(route, departure, "Stockholm", "Norrköping")
	require.NoError(t, err)
	require.Len(t, wps, 3)

	assert.Equal(t, "Stockholm", wps[0].LocationName)
	assert.Equal(t, departure, wps[0].ArrivalTime)
	assert.Equal(t, 0.0, wps[0].DistanceFromStartKm)

	// progress 2/3 of 10 segments rounds to point 7
	assert.Equal(t, departure.Add(time.Hour), wps[1].ArrivalTime)
	assert.InDelta(t, 100.0, wps[1].DistanceFromStartKm, 1e-9)
	assert.Equal(t, route.Geometry[7].Latitude, wps[1].Latitude)
	assert.Equal(t, EnRoute, wps[1].LocationName)

	assert.Equal(t, "Norrköping", wps[2].LocationName)
	assert.Equal(t, departure.Add(90*time.Minute), wps[2].ArrivalTime)
	assert.Equal(t, 150.0, wps[2].DistanceFromStartKm)
	assert.Equal(t, route.Geometry[10], types.Point{Latitude: wps[2].Latitude, Longitude: wps[2].Longitude})
}

func TestDerive_ExactHours(t *testing.T) {
	route := &types.Route{Geometry: line(5), DistanceKm: 200, DurationSeconds: 7200}

	wps, err := Derive(route, departure, "A", "B")
	require.NoError(t, err)
	require.Len(t, wps, 3)
	assert.Equal(t, "B", wps[2].LocationName)
	assert.Equal(t, departure.Add(2*time.Hour), wps[2].ArrivalTime)
}

func TestDerive_ShortTrip(t *testing.T) {
	route := &types.Route{Geometry: line(2), DistanceKm: 20, DurationSeconds: 1200}

	wps, err := Derive(route, departure, "A", "B")
	require.NoError(t, err)
	require.Len(t, wps, 2)
	assert.Equal(t, departure.Add(20*time.Minute), wps[1].ArrivalTime)
	assert.Equal(t, 20.0, wps[1].DistanceFromStartKm)
}

func TestDerive_ZeroDuration(t *testing.T) {
	route := &types.Route{Geometry: line(3), DistanceKm: 0.4}
	wps, err := Derive(route, departure, "A", "B")
	require.NoError(t, err)
	require.Len(t, wps, 2)
	assert.Equal(t, "A", wps[0].LocationName)
	assert.Equal(t, "B", wps[1].LocationName)
	assert.Equal(t, line(3)[2].Latitude, wps[1].Latitude)
	assert.Equal(t, 0.4, wps[1].DistanceFromStartKm)
	for _, wp := range wps {
		assert.Equal(t, departure, wp.ArrivalTime)
	}
}

func TestDerive_SinglePointGeometry(t *testing.T) {
	route := &types.Route{Geometry: line(1), DistanceKm: 300, DurationSeconds: 3 * 3600}
	wps, err := Derive(route, departure, "A", "B")
	require.NoError(t, err)
	require.Len(t, wps, 4)
	for _, wp := range wps {
		assert.Equal(t, line(1)[0].Latitude, wp.Latitude)
	}
}

func TestDerive_EmptyGeometry(t *testing.T) {
	_, err := Derive(&types.Route{DurationSeconds: 3600}, departure, "A", "B")
	assert.ErrorIs(t, err, types.ErrEmptyGeometry)

	_, err = Derive(nil, departure, "A", "B")
	assert.ErrorIs(t, err, types.ErrEmptyGeometry)
}

func TestDerive_LabelsFromSteps(t *testing.T) {
	route := &types.Route{
		Geometry:        line(20),
		DistanceKm:      400,
		DurationSeconds: 4 * 3600,
		Steps: []types.Step{
			{Name: "E4", Duration: 3600},
			{Name: "", Duration: 1800},
			{Name: "Riksväg 40", Duration: 5400},
			{Name: "Storgatan", Duration: 3600},
		},
	}

	wps, err := Derive(route, departure, "A", "B")
	require.NoError(t, err)
	require.Len(t, wps, 5)
	assert.Equal(t, "E4", wps[1].LocationName, "cumulative 3600 reaches the first tick")
	assert.Equal(t, "Riksväg 40", wps[2].LocationName)
	assert.Equal(t, "Riksväg 40", wps[3].LocationName, "cumulative 10800 reaches the third tick")
	assert.Equal(t, "B", wps[4].LocationName)
}

func TestDerive_UnnamedStepIsEnRoute(t *testing.T) {
	route := &types.Route{
		Geometry:        line(4),
		DistanceKm:      250,
		DurationSeconds: 2.5 * 3600,
		Steps:           []types.Step{{Name: "E4", Duration: 1000}, {Name: "", Duration: 8000}},
	}
	wps, err := Derive(route, departure, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, EnRoute, wps[1].LocationName)
	assert.Equal(t, EnRoute, wps[2].LocationName)
}

func TestDerive_Monotonic(t *testing.T) {
	for _, duration := range []float64{1, 59, 3599, 3600, 3601, 5400, 7199, 10000, 36000, 86399, 100000} {
		for _, points := range []int{1, 2, 7, 500} {
			route := &types.Route{Geometry: line(points), DistanceKm: duration / 30, DurationSeconds: duration}
			wps, err := Derive(route, departure, "A", "B")
			require.NoError(t, err)

			hours := int((duration + 3599) / 3600)
			require.Len(t, wps, hours+1, "duration %v", duration)

			first, last := wps[0], wps[len(wps)-1]
			assert.Equal(t, departure, first.ArrivalTime)
			assert.Equal(t, 0.0, first.DistanceFromStartKm)
			assert.Equal(t, departure.Add(time.Duration(duration*float64(time.Second))), last.ArrivalTime)
			assert.Equal(t, route.DistanceKm, last.DistanceFromStartKm)

			for i := 1; i < len(wps); i++ {
				assert.False(t, wps[i].ArrivalTime.Before(wps[i-1].ArrivalTime), "duration %v index %d", duration, i)
				assert.GreaterOrEqual(t, wps[i].DistanceFromStartKm, wps[i-1].DistanceFromStartKm)
			}
		}
	}
}

func TestShift(t *testing.T) {
	route := &types.Route{Geometry: line(3), DistanceKm: 150, DurationSeconds: 5400}
	wps, err := Derive(route, departure, "A", "B")
	require.NoError(t, err)

	shifted := Shift(wps, time.Hour)
	require.Len(t, shifted, len(wps))
	for i := range wps {
		assert.Equal(t, wps[i].ArrivalTime.Add(time.Hour), shifted[i].ArrivalTime)
		assert.Equal(t, wps[i].DistanceFromStartKm, shifted[i].DistanceFromStartKm)
	}
	assert.Equal(t, departure, wps[0].ArrivalTime, "original untouched")
}
