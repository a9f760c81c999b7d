package smhi

import (
	"fmt"
	"time"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
	"github.com/evanhutnik/tripcheck-service/internal/weather"
)

// Response is the SMHI point forecast (pmp3g) payload.
type Response struct {
	ApprovedTime  string       `json:"approvedTime"`
	ReferenceTime string       `json:"referenceTime"`
	TimeSeries    []TimeSeries `json:"timeSeries"`
}

type TimeSeries struct {
	ValidTime  string      `json:"validTime"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Name      string    `json:"name"`
	LevelType string    `json:"levelType"`
	Level     int       `json:"level"`
	Unit      string    `json:"unit"`
	Values    []float64 `json:"values"`
}

// Parameter names used by the normalizer. All are required.
const (
	paramTemperature   = "t"
	paramWindSpeed     = "ws"
	paramVisibility    = "vis"
	paramPrecipCat     = "pcat"
	paramPrecipMean    = "pmean"
	paramWeatherSymbol = "Wsymb2"
)

var requiredParams = []string{paramTemperature, paramWindSpeed, paramVisibility, paramPrecipCat, paramPrecipMean, paramWeatherSymbol}

// Normalize picks the forecast entry closest to target and maps it onto an observation.
// SMHI's units already match (°C, m/s, km, mm/h). Point forecasts carry no sunrise or
// sunset, so both stay nil.
func Normalize(resp *Response, target time.Time) (*t.Observation, error) {
	if resp == nil || len(resp.TimeSeries) == 0 {
		return nil, fmt.Errorf("%w: smhi response has no timeSeries", t.ErrUpstreamFormat)
	}

	times := make([]time.Time, len(resp.TimeSeries))
	for i, ts := range resp.TimeSeries {
		parsed, err := time.Parse(time.RFC3339, ts.ValidTime)
		if err != nil {
			return nil, fmt.Errorf("%w: smhi validTime %q: %v", t.ErrUpstreamFormat, ts.ValidTime, err)
		}
		times[i] = parsed
	}
	idx := weather.NearestIndex(times, target)
	entry := resp.TimeSeries[idx]

	values := make(map[string]float64, len(entry.Parameters))
	for _, p := range entry.Parameters {
		if len(p.Values) > 0 {
			values[p.Name] = p.Values[0]
		}
	}
	for _, name := range requiredParams {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("%w: smhi entry %s is missing parameter %q", t.ErrUpstreamFormat, entry.ValidTime, name)
		}
	}

	temp := values[paramTemperature]
	intensity := values[paramPrecipMean]
	kind := weather.ClassifyUnlabelled(PrecipitationType(int(values[paramPrecipCat])), intensity, temp)

	return &t.Observation{
		Time:                   times[idx],
		Source:                 Name,
		TemperatureC:           temp,
		PrecipitationType:      kind,
		PrecipitationMmPerHour: intensity,
		WindSpeedMs:            values[paramWindSpeed],
		VisibilityKm:           values[paramVisibility],
		Symbol:                 Symbol(int(values[paramWeatherSymbol])),
	}, nil
}

// Symbol maps Wsymb2 onto the shared symbol scale. Wsymb2 is that scale, so known codes map
// to themselves; anything else is reported as clear sky.
func Symbol(wsymb2 int) int {
	if wsymb2 >= t.SymbolMin && wsymb2 <= t.SymbolMax {
		return wsymb2
	}
	return t.SymbolMin
}

// PrecipitationType maps SMHI's pcat category. Categories outside 0..6 are treated as
// unclassified.
func PrecipitationType(pcat int) t.PrecipitationType {
	switch pcat {
	case 0:
		return t.PrecipNone
	case 1:
		return t.PrecipSnow
	case 2:
		return t.PrecipSleet
	case 3:
		return t.PrecipRain
	case 4:
		return t.PrecipDrizzle
	case 5:
		return t.PrecipFreezingRain
	case 6:
		return t.PrecipFreezingDrizzle
	default:
		return t.PrecipNone
	}
}
