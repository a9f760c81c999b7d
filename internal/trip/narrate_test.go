package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanhutnik/tripcheck-service/internal/types"
)

func TestIsUnnamed(t *testing.T) {
	for _, name := range []string{"", "  ", "Unnamed road", "EN ROUTE", " unnamed ", "En route"} {
		assert.True(t, IsUnnamed(name), "%q", name)
	}
	for _, name := range []string{"E4", "Unnamed Creek Road", "Route 66"} {
		assert.False(t, IsUnnamed(name), "%q", name)
	}
}

func TestNarrate_Empty(t *testing.T) {
	assert.Nil(t, Narrate(hourly("A", "B"), types.WeatherMap{0: nil}))
	assert.Nil(t, Narrate(nil, nil))
}

func TestNarrate_SingleSegment(t *testing.T) {
	lines := Narrate(hourly("Stockholm", "E4", "Norrköping"), types.WeatherMap{0: sunny(), 1: sunny(), 2: sunny()})
	assert.Equal(t, []string{"Throughout your journey, expect clear sky at around 8°C."}, lines)
}

func TestNarrate_Segments(t *testing.T) {
	wps := hourly("Stockholm", "E4", "En route", "Riksväg 40", "Göteborg")
	weather := types.WeatherMap{
		0: sunny(),
		1: sunny(),
		2: showers(),
		3: snowy(),
		4: snowy(),
	}

	lines := Narrate(wps, weather)
	assert.Equal(t, []string{
		"Your trip begins with clear sky at around 8°C.",
		"Around 2 hours into your trip, weather changes to moderate rain showers at around 6°C with 2.5 mm/h of rain.",
		"As you approach your destination near Riksväg 40, expect moderate snowfall at around -4°C with 5.0 mm/h of snow.",
	}, lines)
}

func TestNarrate_NamedMiddleAndUnnamedLast(t *testing.T) {
	wps := hourly("A", "Mälardalen", "Unnamed road")
	weather := types.WeatherMap{
		0: sunny(),
		1: showers(),
		2: {TemperatureC: -10, VisibilityKm: 30, WindSpeedMs: 14, Symbol: 1},
	}
	lines := Narrate(wps, weather)
	require.Len(t, lines, 3)
	assert.Equal(t, "After Mälardalen, weather changes to moderate rain showers at around 6°C with 2.5 mm/h of rain.", lines[1])
	assert.Equal(t, "As you approach your destination, around 2 hours into your trip, expect clear sky at around -10°C and winds of 14 m/s.", lines[2])
}

func TestNarrate_ChangeTriggers(t *testing.T) {
	base := &types.Observation{TemperatureC: 5, Symbol: 3, VisibilityKm: 20}
	tests := []struct {
		name    string
		next    *types.Observation
		segment bool
	}{
		{"symbol within three", &types.Observation{TemperatureC: 5, Symbol: 6}, false},
		{"symbol beyond three", &types.Observation{TemperatureC: 5, Symbol: 7}, true},
		{"precip within one", &types.Observation{TemperatureC: 5, Symbol: 3, PrecipitationMmPerHour: 1}, false},
		{"precip beyond one", &types.Observation{TemperatureC: 5, Symbol: 3, PrecipitationMmPerHour: 1.2}, true},
		{"temperature within five", &types.Observation{TemperatureC: 0, Symbol: 3}, false},
		{"temperature beyond five", &types.Observation{TemperatureC: -0.5, Symbol: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Narrate(hourly("A", "B"), types.WeatherMap{0: base, 1: tt.next})
			if tt.segment {
				assert.Len(t, lines, 2)
			} else {
				assert.Len(t, lines, 1)
			}
		})
	}
}

func TestNarrate_ComparesAgainstSegmentStart(t *testing.T) {
	// each step drifts by 3 degrees, the third one is 6 away from the segment start
	weather := types.WeatherMap{
		0: {TemperatureC: 10, Symbol: 1, VisibilityKm: 20},
		1: {TemperatureC: 7, Symbol: 1, VisibilityKm: 20},
		2: {TemperatureC: 4, Symbol: 1, VisibilityKm: 20},
	}
	lines := Narrate(hourly("A", "B", "C"), weather)
	assert.Len(t, lines, 2)
}

func TestNarrate_SkipsMissingWeather(t *testing.T) {
	lines := Narrate(hourly("A", "B", "C"), types.WeatherMap{1: sunny()})
	assert.Equal(t, []string{"Throughout your journey, expect clear sky at around 8°C."}, lines)
}

func TestNarrate_DaylightEvents(t *testing.T) {
	// 06:00 to 10:00 UTC, sunrise 07:40 is closest to the 08:00 waypoint
	wps := hourly("Stockholm", "E4", "Nyköping", "E4", "Linköping")
	sunrise := start.Add(100 * time.Minute)
	sunset := start.Add(9 * time.Hour)
	nextSunrise := sunrise.Add(24 * time.Hour)

	withSun := func(obs *types.Observation) *types.Observation {
		obs.Sunrise = &sunrise
		obs.Sunset = &sunset
		return obs
	}
	weather := types.WeatherMap{
		0: withSun(sunny()),
		1: withSun(sunny()),
		2: withSun(snowy()),
		3: withSun(snowy()),
		4: {TemperatureC: -4, PrecipitationMmPerHour: 5, Symbol: 26, VisibilityKm: 1.5, Sunrise: &nextSunrise},
	}

	lines := Narrate(wps, weather)
	assert.Equal(t, []string{
		"Your trip begins with clear sky at around 8°C.",
		"Sunrise at 07:40 near Nyköping.",
		"As you approach your destination near Nyköping, expect moderate snowfall at around -4°C with 5.0 mm/h of snow.",
	}, lines)
}

func TestNarrate_DaylightEventsInterleaved(t *testing.T) {
	wps := hourly("A", "En route", "C", "D", "E", "F")
	sunrise := start.Add(30 * time.Minute)
	sunset := start.Add(4*time.Hour + 10*time.Minute)
	obsWithSun := func(obs *types.Observation) *types.Observation {
		obs.Sunrise = &sunrise
		obs.Sunset = &sunset
		return obs
	}
	weather := types.WeatherMap{
		0: obsWithSun(sunny()),
		1: obsWithSun(sunny()),
		2: obsWithSun(showers()),
		3: obsWithSun(showers()),
		4: obsWithSun(snowy()),
		5: obsWithSun(snowy()),
	}

	lines := Narrate(wps, weather)
	require.Len(t, lines, 5)
	assert.Equal(t, "Your trip begins with clear sky at around 8°C.", lines[0])
	// 06:30 is equally close to both the first and second waypoint, the first wins
	assert.Equal(t, "Sunrise at 06:30 near A.", lines[1])
	assert.Contains(t, lines[2], "After C, weather changes to")
	assert.Contains(t, lines[3], "As you approach your destination near E")
	assert.Equal(t, "Sunset at 10:10 near E.", lines[4])
}

func TestNarrate_DaylightEventOutsideWindowIgnored(t *testing.T) {
	before := start.Add(-time.Hour)
	after := start.Add(5 * time.Hour)
	obs := sunny()
	obs.Sunrise = &before
	obs.Sunset = &after
	lines := Narrate(hourly("A", "B", "C"), types.WeatherMap{0: obs})
	assert.Len(t, lines, 1)
}

func TestNarrate_UnnamedEventUsesElapsedTime(t *testing.T) {
	sunset := start.Add(65 * time.Minute)
	obs := sunny()
	obs.Sunset = &sunset
	lines := Narrate(hourly("A", "unnamed road", "C"), types.WeatherMap{0: obs, 1: sunny()})
	require.Len(t, lines, 2)
	assert.Equal(t, "Sunset at 07:05, around 1 hour into your trip.", lines[1])
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		45 * time.Minute:             "45 minutes",
		time.Minute:                  "1 minute",
		time.Hour:                    "1 hour",
		90 * time.Minute:             "1 hour 30 minutes",
		2*time.Hour + time.Minute:    "2 hours 1 minute",
		3 * time.Hour:                "3 hours",
		2*time.Hour + 29*time.Second: "2 hours",
	}
	for d, want := range tests {
		assert.Equal(t, want, formatElapsed(d))
	}
}
