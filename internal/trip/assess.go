// Package trip aggregates per-waypoint weather into trip-level assessments, narratives and
// per-point reports. Every function accepts partially filled weather maps: missing and nil
// observations are skipped.
package trip

import (
	"time"

	"github.com/evanhutnik/tripcheck-service/internal/scoring"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

const (
	warningShare = 0.3
	cautionShare = 0.4
	longTrip     = 3 * time.Hour
)

// Assess classifies every scored waypoint and derives the overall trip severity. With no
// scored points the result is Good with TotalScoredPoints == 0; check Known before using it.
func Assess(waypoints []t.Waypoint, weather t.WeatherMap) t.TripAssessment {
	var a t.TripAssessment
	var sawClear, sawAdverse bool

	for i := range waypoints {
		obs := weather[i]
		if obs == nil {
			continue
		}
		a.TotalScoredPoints++
		switch scoring.Classify(*obs) {
		case t.SeverityWarning:
			a.WarningCount++
		case t.SeverityCaution:
			a.CautionCount++
		}
		if isClear(obs) {
			sawClear = true
		} else {
			sawAdverse = true
		}
	}

	if len(waypoints) > 1 {
		a.IsLongTrip = waypoints[len(waypoints)-1].ArrivalTime.Sub(waypoints[0].ArrivalTime) > longTrip
	}
	a.HasMixedConditions = sawClear && sawAdverse

	total := float64(a.TotalScoredPoints)
	switch {
	case a.WarningCount > 0 && float64(a.WarningCount) >= warningShare*total:
		a.Severity = t.SeverityWarning
	case a.WarningCount > 0,
		a.CautionCount > 0 && float64(a.CautionCount) >= cautionShare*total:
		a.Severity = t.SeverityCaution
	default:
		a.Severity = t.SeverityGood
	}
	return a
}

// isClear is true for dry weather without a precipitation or fog symbol.
func isClear(obs *t.Observation) bool {
	return obs.PrecipitationMmPerHour < 0.5 && obs.Symbol < 8
}

// AverageScore is the mean driving score over all non-nil observations. ok is false when
// nothing has been scored yet.
func AverageScore(weather t.WeatherMap) (avg float64, ok bool) {
	var sum, n int
	for _, obs := range weather {
		if obs == nil {
			continue
		}
		sum += scoring.Score(*obs).Score
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}
