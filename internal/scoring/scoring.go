// Package scoring rates a single weather observation for driving.
//
// Two views are produced from the same variables: a 0-100 score built from capped
// penalties, and a three-level severity with its own thresholds. They are tuned
// independently and can disagree near the boundaries.
package scoring

import (
	"math"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

const (
	MaxScore = 100

	maxPrecipitationPenalty = 40
	maxVisibilityPenalty    = 25
	maxWindPenalty          = 20
	maxSurfacePenalty       = 15
)

type Result struct {
	Score     int              `json:"score"`
	Breakdown t.ScoreBreakdown `json:"breakdown"`
	Severity  t.Severity       `json:"severity"`
}

// Score computes the driving score, its penalty breakdown and the discrete severity.
func Score(obs t.Observation) Result {
	b := t.ScoreBreakdown{
		Precipitation: PrecipitationPenalty(obs),
		Visibility:    VisibilityPenalty(obs.VisibilityKm),
		Wind:          WindPenalty(obs.WindSpeedMs),
		SurfaceRisk:   SurfaceRiskPenalty(obs),
	}
	b.Total = b.Precipitation + b.Visibility + b.Wind + b.SurfaceRisk

	score := MaxScore - b.Total
	if score < 0 {
		score = 0
	}
	return Result{Score: score, Breakdown: b, Severity: Classify(obs)}
}

func precipitationBase(mmPerHour float64) int {
	switch {
	case mmPerHour <= 0:
		return 0
	case mmPerHour <= 0.5:
		return 3
	case mmPerHour <= 1:
		return 7
	case mmPerHour <= 2:
		return 12
	case mmPerHour <= 4:
		return 18
	case mmPerHour <= 8:
		return 28
	default:
		return 40
	}
}

func typeMultiplier(kind t.PrecipitationType, temperatureC float64) float64 {
	switch kind {
	case t.PrecipSnow:
		return 1.2
	case t.PrecipSleet:
		return 1.3
	case t.PrecipRain:
		return 1.0
	case t.PrecipDrizzle:
		return 0.8
	case t.PrecipFreezingRain:
		return 1.5
	case t.PrecipFreezingDrizzle:
		return 1.4
	default:
		// precipitation with no known type
		if temperatureC < 0 {
			return 1.2
		}
		return 1.0
	}
}

// PrecipitationPenalty scales the intensity bucket by how slippery the precipitation type is.
func PrecipitationPenalty(obs t.Observation) int {
	base := precipitationBase(obs.PrecipitationMmPerHour)
	if base == 0 {
		return 0
	}
	p := int(math.Round(float64(base) * typeMultiplier(obs.PrecipitationType, obs.TemperatureC)))
	if p > maxPrecipitationPenalty {
		return maxPrecipitationPenalty
	}
	return p
}

func VisibilityPenalty(km float64) int {
	switch {
	case km >= 10:
		return 0
	case km >= 5:
		return 5
	case km >= 2:
		return 10
	case km >= 1:
		return 15
	case km >= 0.5:
		return 20
	default:
		return maxVisibilityPenalty
	}
}

func WindPenalty(ms float64) int {
	switch {
	case ms < 5:
		return 0
	case ms < 10:
		return 5
	case ms < 15:
		return 10
	case ms < 20:
		return 15
	default:
		return maxWindPenalty
	}
}

// SurfaceRiskPenalty estimates ice on the road. Without precipitation only residual ice
// below freezing counts; with precipitation the risk grows as the temperature drops.
func SurfaceRiskPenalty(obs t.Observation) int {
	temp := obs.TemperatureC
	if obs.PrecipitationMmPerHour <= 0 {
		switch {
		case temp < -10:
			return 5
		case temp < 0:
			return 3
		default:
			return 0
		}
	}
	switch {
	case temp > 5:
		return 0
	case temp > 0:
		return 5
	case temp > -5:
		return 10
	default:
		return maxSurfacePenalty
	}
}

// Classify returns the discrete severity of an observation.
func Classify(obs t.Observation) t.Severity {
	switch {
	case obs.PrecipitationMmPerHour > 4,
		obs.VisibilityKm < 3,
		obs.WindSpeedMs > 20,
		obs.Symbol >= 20 && obs.Symbol <= 27:
		return t.SeverityWarning
	case obs.PrecipitationMmPerHour > 2,
		obs.VisibilityKm < 5,
		obs.WindSpeedMs > 15,
		obs.Symbol >= 10 && obs.Symbol <= 19:
		return t.SeverityCaution
	default:
		return t.SeverityGood
	}
}
