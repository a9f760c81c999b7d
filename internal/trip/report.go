package trip

import (
	"time"

	"github.com/evanhutnik/tripcheck-service/internal/scoring"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

// AssumeDaylightWhenUnknown is the daylight policy for waypoints without sunrise and sunset
// data. It treats them as daytime, which never warns about night driving; reports carry
// DaylightKnown=false so callers can tell the difference.
const AssumeDaylightWhenUnknown = true

// Daylight reports whether at falls between the observation's sunrise and sunset.
func Daylight(obs *t.Observation, at time.Time) (day bool, known bool) {
	if obs == nil || obs.Sunrise == nil || obs.Sunset == nil {
		return AssumeDaylightWhenUnknown, false
	}
	return !at.Before(*obs.Sunrise) && at.Before(*obs.Sunset), true
}

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnavailable Status = "unavailable"
	StatusOK          Status = "ok"
)

type PointReport struct {
	Index         int             `json:"index"`
	Waypoint      t.Waypoint      `json:"waypoint"`
	Status        Status          `json:"status"`
	Observation   *t.Observation  `json:"observation,omitempty"`
	Result        *scoring.Result `json:"result,omitempty"`
	Daylight      bool            `json:"daylight"`
	DaylightKnown bool            `json:"daylightKnown"`
}

// Report scores each waypoint that has an observation.
func Report(waypoints []t.Waypoint, weather t.WeatherMap) []PointReport {
	reports := make([]PointReport, len(waypoints))
	for i, wp := range waypoints {
		r := PointReport{Index: i, Waypoint: wp, Status: StatusPending}
		obs, fetched := weather[i]
		switch {
		case !fetched:
		case obs == nil:
			r.Status = StatusUnavailable
		default:
			result := scoring.Score(*obs)
			r.Status = StatusOK
			r.Observation = obs
			r.Result = &result
		}
		r.Daylight, r.DaylightKnown = Daylight(obs, wp.ArrivalTime)
		reports[i] = r
	}
	return reports
}
