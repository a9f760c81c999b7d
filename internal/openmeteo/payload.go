package openmeteo

import (
	"fmt"
	"time"
	_ "time/tzdata"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
	"github.com/evanhutnik/tripcheck-service/internal/weather"
)

const (
	hourLayout = "2006-01-02T15:04"
	dateLayout = "2006-01-02"
)

// Response is the Open-Meteo forecast payload requested with metric units (°C, mm, m/s).
// Times are local to Timezone, offset by UTCOffsetSeconds.
type Response struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Hourly           Hourly  `json:"hourly"`
	Daily            Daily   `json:"daily"`
}

type Hourly struct {
	Time          []string   `json:"time"`
	Temperature2m []*float64 `json:"temperature_2m"`
	Precipitation []*float64 `json:"precipitation"`
	WeatherCode   []*int     `json:"weather_code"`
	WindSpeed10m  []*float64 `json:"wind_speed_10m"`
	Visibility    []*float64 `json:"visibility"`
}

type Daily struct {
	Time    []string `json:"time"`
	Sunrise []string `json:"sunrise"`
	Sunset  []string `json:"sunset"`
}

// Normalize picks the hourly entry closest to target and maps it onto an observation.
// Visibility arrives in metres. Sunrise and sunset come from the daily entry for target's
// local date and are nil when that date is not in the response.
func Normalize(resp *Response, target time.Time) (*t.Observation, error) {
	if resp == nil || len(resp.Hourly.Time) == 0 {
		return nil, fmt.Errorf("%w: open-meteo response has no hourly data", t.ErrUpstreamFormat)
	}
	loc := location(resp)

	times := make([]time.Time, len(resp.Hourly.Time))
	for i, s := range resp.Hourly.Time {
		parsed, err := time.ParseInLocation(hourLayout, s, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: open-meteo hourly time %q: %v", t.ErrUpstreamFormat, s, err)
		}
		times[i] = parsed
	}
	idx := weather.NearestIndex(times, target)

	temp, err := floatAt(resp.Hourly.Temperature2m, idx, "temperature_2m")
	if err != nil {
		return nil, err
	}
	precip, err := floatAt(resp.Hourly.Precipitation, idx, "precipitation")
	if err != nil {
		return nil, err
	}
	wind, err := floatAt(resp.Hourly.WindSpeed10m, idx, "wind_speed_10m")
	if err != nil {
		return nil, err
	}
	visibility, err := floatAt(resp.Hourly.Visibility, idx, "visibility")
	if err != nil {
		return nil, err
	}
	if idx >= len(resp.Hourly.WeatherCode) || resp.Hourly.WeatherCode[idx] == nil {
		return nil, fmt.Errorf("%w: open-meteo hourly weather_code missing at %s", t.ErrUpstreamFormat, resp.Hourly.Time[idx])
	}
	code := *resp.Hourly.WeatherCode[idx]

	obs := &t.Observation{
		Time:                   times[idx],
		Source:                 Name,
		TemperatureC:           temp,
		PrecipitationType:      weather.ClassifyUnlabelled(PrecipitationType(code), precip, temp),
		PrecipitationMmPerHour: precip,
		WindSpeedMs:            wind,
		VisibilityKm:           visibility / 1000,
		Symbol:                 Symbol(code),
	}
	obs.Sunrise, obs.Sunset = sunTimes(resp.Daily, target.In(loc).Format(dateLayout), loc)
	return obs, nil
}

// location resolves the response's IANA zone so entries after a DST change keep their true
// offset. UTCOffsetSeconds only holds the offset at the start of the forecast.
func location(resp *Response) *time.Location {
	if loc, err := time.LoadLocation(resp.Timezone); resp.Timezone != "" && err == nil {
		return loc
	}
	return time.FixedZone(resp.Timezone, resp.UTCOffsetSeconds)
}

func floatAt(values []*float64, idx int, field string) (float64, error) {
	if idx >= len(values) || values[idx] == nil {
		return 0, fmt.Errorf("%w: open-meteo hourly %s missing", t.ErrUpstreamFormat, field)
	}
	return *values[idx], nil
}

func sunTimes(daily Daily, date string, loc *time.Location) (*time.Time, *time.Time) {
	for i, d := range daily.Time {
		if d != date {
			continue
		}
		return parseAt(daily.Sunrise, i, loc), parseAt(daily.Sunset, i, loc)
	}
	return nil, nil
}

func parseAt(values []string, i int, loc *time.Location) *time.Time {
	if i >= len(values) || values[i] == "" {
		return nil
	}
	parsed, err := time.ParseInLocation(hourLayout, values[i], loc)
	if err != nil {
		return nil
	}
	return &parsed
}

// Symbol maps a WMO weather code onto the shared symbol scale.
func Symbol(wmo int) int {
	switch wmo {
	case 0:
		return 1 // clear sky
	case 1:
		return 2 // nearly clear
	case 2:
		return 3 // variable cloudiness
	case 3:
		return 6 // overcast
	case 45, 48:
		return 7 // fog
	case 51, 53:
		return 18 // light rain
	case 55:
		return 19 // moderate rain
	case 56:
		return 22 // light sleet
	case 57:
		return 23 // moderate sleet
	case 61:
		return 18
	case 63:
		return 19
	case 65:
		return 20 // heavy rain
	case 66:
		return 22
	case 67:
		return 24 // heavy sleet
	case 71, 77:
		return 25 // light snowfall
	case 73:
		return 26
	case 75:
		return 27
	case 80:
		return 8 // rain showers
	case 81:
		return 9
	case 82:
		return 10
	case 85:
		return 15 // snow showers
	case 86:
		return 17
	case 95:
		return 11 // thunderstorm
	case 96, 99:
		return 21 // thunder with hail
	default:
		return t.SymbolMin
	}
}

// PrecipitationType maps a WMO weather code onto a precipitation type. Codes without
// precipitation, and unknown codes, map to PrecipNone.
func PrecipitationType(wmo int) t.PrecipitationType {
	switch wmo {
	case 51, 53, 55:
		return t.PrecipDrizzle
	case 56, 57:
		return t.PrecipFreezingDrizzle
	case 61, 63, 65, 80, 81, 82, 95, 96, 99:
		return t.PrecipRain
	case 66, 67:
		return t.PrecipFreezingRain
	case 71, 73, 75, 77, 85, 86:
		return t.PrecipSnow
	default:
		return t.PrecipNone
	}
}
