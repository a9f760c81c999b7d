package trip

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

// A new narrative segment starts when any of these differ from the segment's first reading.
const (
	symbolChange      = 3
	precipChangeMm    = 1.0
	temperatureChange = 5.0
)

var unnamedLocations = map[string]bool{
	"unnamed road": true,
	"en route":     true,
	"unnamed":      true,
	"":             true,
}

// IsUnnamed reports whether a location label carries no useful place name.
func IsUnnamed(name string) bool {
	return unnamedLocations[strings.ToLower(strings.TrimSpace(name))]
}

type segment struct {
	rep   *t.Observation
	first int
}

type daylightEvent struct {
	kind string
	at   time.Time
}

// Narrate describes the trip as one sentence per stretch of similar weather, with sunrise and
// sunset during the drive inserted after the stretch they fall in. It returns nil when no
// waypoint has weather yet.
func Narrate(waypoints []t.Waypoint, weather t.WeatherMap) []string {
	segments := segmentWaypoints(waypoints, weather)
	if len(segments) == 0 {
		return nil
	}

	events := daylightEvents(waypoints, weather)
	bySegment := make(map[int][]daylightEvent)
	for _, e := range events {
		s := 0
		for i, seg := range segments {
			if !waypoints[seg.first].ArrivalTime.After(e.at) {
				s = i
			}
		}
		bySegment[s] = append(bySegment[s], e)
	}

	var lines []string
	for i, seg := range segments {
		lines = append(lines, segmentSentence(waypoints, seg, i, len(segments)))
		for _, e := range bySegment[i] {
			lines = append(lines, eventSentence(waypoints, e))
		}
	}
	return lines
}

func segmentWaypoints(waypoints []t.Waypoint, weather t.WeatherMap) []segment {
	var segments []segment
	for i := range waypoints {
		obs := weather[i]
		if obs == nil {
			continue
		}
		if len(segments) == 0 || changed(segments[len(segments)-1].rep, obs) {
			segments = append(segments, segment{rep: obs, first: i})
		}
	}
	return segments
}

func changed(rep, obs *t.Observation) bool {
	return math.Abs(float64(obs.Symbol-rep.Symbol)) > symbolChange ||
		math.Abs(obs.PrecipitationMmPerHour-rep.PrecipitationMmPerHour) > precipChangeMm ||
		math.Abs(obs.TemperatureC-rep.TemperatureC) > temperatureChange
}

func segmentSentence(waypoints []t.Waypoint, seg segment, i, n int) string {
	conditions := describe(seg.rep)
	wp := waypoints[seg.first]
	name := strings.TrimSpace(wp.LocationName)
	unnamed := IsUnnamed(name)
	elapsed := formatElapsed(wp.ArrivalTime.Sub(waypoints[0].ArrivalTime))

	switch {
	case n == 1:
		return fmt.Sprintf("Throughout your journey, expect %s.", conditions)
	case i == 0:
		return fmt.Sprintf("Your trip begins with %s.", conditions)
	case i == n-1 && unnamed:
		return fmt.Sprintf("As you approach your destination, around %s into your trip, expect %s.", elapsed, conditions)
	case i == n-1:
		return fmt.Sprintf("As you approach your destination near %s, expect %s.", name, conditions)
	case unnamed:
		return fmt.Sprintf("Around %s into your trip, weather changes to %s.", elapsed, conditions)
	default:
		return fmt.Sprintf("After %s, weather changes to %s.", name, conditions)
	}
}

func describe(obs *t.Observation) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(t.SymbolDescription(obs.Symbol)))
	fmt.Fprintf(&b, " at around %d°C", int(math.Round(obs.TemperatureC)))
	if obs.PrecipitationMmPerHour >= 0.1 {
		kind := "precipitation"
		if obs.PrecipitationType != t.PrecipNone {
			kind = obs.PrecipitationType.String()
		}
		fmt.Fprintf(&b, " with %.1f mm/h of %s", obs.PrecipitationMmPerHour, kind)
	}
	if obs.WindSpeedMs >= 10 {
		fmt.Fprintf(&b, " and winds of %d m/s", int(math.Round(obs.WindSpeedMs)))
	}
	return b.String()
}

// daylightEvents collects sunrises and sunsets inside the driving window, once per kind and
// local date, in chronological order.
func daylightEvents(waypoints []t.Waypoint, weather t.WeatherMap) []daylightEvent {
	if len(waypoints) == 0 {
		return nil
	}
	start := waypoints[0].ArrivalTime
	end := waypoints[len(waypoints)-1].ArrivalTime

	seen := make(map[string]bool)
	var events []daylightEvent
	add := func(kind string, at *time.Time) {
		if at == nil || at.Before(start) || at.After(end) {
			return
		}
		key := kind + "|" + at.Format("2006-01-02")
		if seen[key] {
			return
		}
		seen[key] = true
		events = append(events, daylightEvent{kind: kind, at: *at})
	}
	for i := range waypoints {
		obs := weather[i]
		if obs == nil {
			continue
		}
		add("Sunrise", obs.Sunrise)
		add("Sunset", obs.Sunset)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })
	return events
}

func eventSentence(waypoints []t.Waypoint, e daylightEvent) string {
	wp := waypoints[closestWaypoint(waypoints, e.at)]
	clock := e.at.Format("15:04")
	if IsUnnamed(wp.LocationName) {
		elapsed := formatElapsed(wp.ArrivalTime.Sub(waypoints[0].ArrivalTime))
		return fmt.Sprintf("%s at %s, around %s into your trip.", e.kind, clock, elapsed)
	}
	return fmt.Sprintf("%s at %s near %s.", e.kind, clock, strings.TrimSpace(wp.LocationName))
}

func closestWaypoint(waypoints []t.Waypoint, at time.Time) int {
	best, bestDiff := 0, time.Duration(math.MaxInt64)
	for i, wp := range waypoints {
		diff := wp.ArrivalTime.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func formatElapsed(d time.Duration) string {
	minutes := int(d.Round(time.Minute).Minutes())
	hours, minutes := minutes/60, minutes%60
	switch {
	case hours == 0:
		return plural(minutes, "minute")
	case minutes == 0:
		return plural(hours, "hour")
	default:
		return plural(hours, "hour") + " " + plural(minutes, "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
