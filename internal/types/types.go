package types

import (
	"strings"
	"time"
)

type Coordinates struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

type Trip struct {
	From *Coordinates
	To   *Coordinates
}

type Point struct {
	Latitude  float64
	Longitude float64
}

// Route is a driving route as returned by the routing provider. Step durations sum to
// approximately DurationSeconds.
type Route struct {
	Geometry        []Point
	DistanceKm      float64
	DurationSeconds float64
	Steps           []Step
}

type Step struct {
	Name string
	// PositionIndex is the index into Route.Geometry where the step starts.
	PositionIndex int
	Distance      float64
	Duration      float64
}

type Waypoint struct {
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	LocationName        string    `json:"locationName"`
	ArrivalTime         time.Time `json:"arrivalTime"`
	DistanceFromStartKm float64   `json:"distanceFromStartKm"`
}

type PrecipitationType int

const (
	PrecipNone PrecipitationType = iota
	PrecipSnow
	PrecipSleet
	PrecipRain
	PrecipDrizzle
	PrecipFreezingRain
	PrecipFreezingDrizzle
)

var precipNames = [...]string{"none", "snow", "sleet", "rain", "drizzle", "freezing rain", "freezing drizzle"}

func (p PrecipitationType) String() string {
	if p < 0 || int(p) >= len(precipNames) {
		return "unknown"
	}
	return precipNames[p]
}

func (p PrecipitationType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PrecipitationType) UnmarshalText(b []byte) error {
	for i, name := range precipNames {
		if name == string(b) {
			*p = PrecipitationType(i)
			return nil
		}
	}
	*p = PrecipNone
	return nil
}

// Observation is one normalized weather reading for a waypoint. Sunrise and Sunset are nil
// when the provider had no daily data for the reading's local date.
type Observation struct {
	Time                   time.Time         `json:"time"`
	Source                 string            `json:"source"`
	TemperatureC           float64           `json:"temperatureC"`
	PrecipitationType      PrecipitationType `json:"precipitationType"`
	PrecipitationMmPerHour float64           `json:"precipitationMmPerHour"`
	WindSpeedMs            float64           `json:"windSpeedMs"`
	VisibilityKm           float64           `json:"visibilityKm"`
	Symbol                 int               `json:"symbol"`
	Sunrise                *time.Time        `json:"sunrise,omitempty"`
	Sunset                 *time.Time        `json:"sunset,omitempty"`
}

// WeatherMap holds observations by waypoint index. A missing key is still pending, a nil
// value means the fetch failed.
type WeatherMap map[int]*Observation

type ScoreBreakdown struct {
	Precipitation int `json:"precipitationPenalty"`
	Visibility    int `json:"visibilityPenalty"`
	Wind          int `json:"windPenalty"`
	SurfaceRisk   int `json:"surfaceRiskPenalty"`
	Total         int `json:"totalPenalty"`
}

type Severity int

const (
	SeverityGood Severity = iota
	SeverityCaution
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityCaution:
		return "caution"
	case SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "caution":
		*s = SeverityCaution
	case "warning":
		*s = SeverityWarning
	default:
		*s = SeverityGood
	}
	return nil
}

type TripAssessment struct {
	Severity           Severity `json:"severity"`
	WarningCount       int      `json:"warningCount"`
	CautionCount       int      `json:"cautionCount"`
	TotalScoredPoints  int      `json:"totalScoredPoints"`
	IsLongTrip         bool     `json:"isLongTrip"`
	HasMixedConditions bool     `json:"hasMixedConditions"`
}

// Known reports whether at least one waypoint contributed to the assessment.
func (a TripAssessment) Known() bool {
	return a.TotalScoredPoints > 0
}
