// Package departure compares a trip against the same route driven at a later departure time.
package departure

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/evanhutnik/tripcheck-service/internal/trip"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

const (
	// ScoreThreshold is the change in average score that counts as better or worse.
	ScoreThreshold = 5.0
	// ExcellentScore is the baseline average above which no alternatives are offered.
	ExcellentScore = 90.0
)

type Direction int

const (
	NoChange Direction = iota
	Improves
	Worsens
)

func (d Direction) String() string {
	switch d {
	case Improves:
		return "improves"
	case Worsens:
		return "worsens"
	default:
		return "no_change"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Comparison struct {
	Direction Direction `json:"direction"`
	Message   string    `json:"message"`
	// ScoreDiff is candidate minus baseline average score. Zero when the severities were
	// compared instead.
	ScoreDiff  float64 `json:"scoreDiff"`
	BySeverity bool    `json:"bySeverity,omitempty"`
	// Unknown is set when either departure has no scored waypoints. Direction is NoChange.
	Unknown bool   `json:"unknown,omitempty"`
	Offset  string `json:"offset,omitempty"`
}

const unknownMessage = "Not enough weather data to compare departures."

// Compare decides whether the candidate departure is better than the baseline. Average
// scores are compared when both maps have scored points, otherwise the trip severities. A
// departure without any scored waypoint has no meaningful severity, so the result is Unknown.
func Compare(base t.TripAssessment, baseWeather t.WeatherMap, cand t.TripAssessment, candWeather t.WeatherMap) Comparison {
	if !base.Known() || !cand.Known() {
		return Comparison{Direction: NoChange, Unknown: true, Message: unknownMessage}
	}

	baseAvg, baseOK := trip.AverageScore(baseWeather)
	candAvg, candOK := trip.AverageScore(candWeather)

	if !baseOK || !candOK {
		c := Comparison{BySeverity: true}
		switch {
		case cand.Severity < base.Severity:
			c.Direction = Improves
		case cand.Severity > base.Severity:
			c.Direction = Worsens
		}
		c.Message = severityMessage(c.Direction, base.Severity, cand.Severity)
		return c
	}

	c := Comparison{ScoreDiff: candAvg - baseAvg}
	switch {
	case c.ScoreDiff >= ScoreThreshold:
		c.Direction = Improves
	case c.ScoreDiff <= -ScoreThreshold:
		c.Direction = Worsens
	}
	c.Message = scoreMessage(c.Direction, c.ScoreDiff)
	return c
}

func scoreMessage(d Direction, diff float64) string {
	points := int(math.Round(math.Abs(diff)))
	switch d {
	case Improves:
		return fmt.Sprintf("Conditions improve: the average driving score rises by %d points.", points)
	case Worsens:
		return fmt.Sprintf("Conditions get worse: the average driving score drops by %d points.", points)
	default:
		return "Conditions are about the same."
	}
}

func severityMessage(d Direction, base, cand t.Severity) string {
	switch d {
	case Improves:
		return fmt.Sprintf("Conditions improve from %s to %s.", base, cand)
	case Worsens:
		return fmt.Sprintf("Conditions get worse, from %s to %s.", base, cand)
	default:
		return "Conditions are about the same."
	}
}

// OfferAlternatives reports whether later departures are worth evaluating. A trip whose
// baseline average is already above ExcellentScore gets no alternatives. A baseline with
// nothing scored yet is not gated.
func OfferAlternatives(baseWeather t.WeatherMap) bool {
	avg, ok := trip.AverageScore(baseWeather)
	return !ok || avg <= ExcellentScore
}

// Offsets are the later departures evaluated against the baseline.
var (
	PlusOne   = time.Hour
	PlusThree = 3 * time.Hour
)

// ExtendedCheck debounces the +3h evaluation of one trip. The zero value is ready to use.
type ExtendedCheck struct {
	fired atomic.Bool
}

// Trigger returns true exactly once, the first time the +1h candidate is fully loaded and
// did not improve on the baseline.
func (e *ExtendedCheck) Trigger(plusOneLoaded bool, d Direction) bool {
	if !plusOneLoaded || d == Improves {
		return false
	}
	return e.fired.CompareAndSwap(false, true)
}

// Fired reports whether Trigger has already returned true.
func (e *ExtendedCheck) Fired() bool {
	return e.fired.Load()
}
