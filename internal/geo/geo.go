// Package geo implements the Geo/Time utilities shared by the feasibility
// oracle and the assignment engine: haversine distance, HH:MM arithmetic,
// en-GB weekday conversion, and UTC day normalization.
package geo

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

const earthRadiusKM = 6371.0

// Point is a (longitude, latitude) pair, matching the wire order used
// throughout for home locations.
type Point struct {
	Lon float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	lat1, lon1 := degToRad(a.Lat), degToRad(a.Lon)
	lat2, lon2 := degToRad(b.Lat), degToRad(b.Lon)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Asin(math.Min(1, math.Sqrt(h)))

	return earthRadiusKM * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineTravelMinutes is the fallback travel-time estimate used when no
// external routing service is configured or it fails: 30 km/h, rounded up.
func HaversineTravelMinutes(a, b Point) int {
	km := Haversine(a, b)
	minutes := km / 30.0 * 60.0
	return int(math.Ceil(minutes))
}

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// HHMM is a 24-hour clock time, stored as hours/minutes since midnight.
// It never wraps past 24:00 — visits are required not to cross midnight.
type HHMM struct {
	Hour   int
	Minute int
}

// ParseHHMM parses a "HH:MM" string, the wire format used for times.
func ParseHHMM(s string) (HHMM, error) {
	if !hhmmPattern.MatchString(s) {
		return HHMM{}, fmt.Errorf("geo: invalid HH:MM time %q", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return HHMM{}, fmt.Errorf("geo: invalid HH:MM time %q: %w", s, err)
	}
	return HHMM{Hour: h, Minute: m}, nil
}

// String renders back to "HH:MM".
func (t HHMM) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the time of day as minutes since midnight.
func (t HHMM) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than other.
func (t HHMM) Before(other HHMM) bool {
	return t.Minutes() < other.Minutes()
}

// After reports whether t is strictly later than other.
func (t HHMM) After(other HHMM) bool {
	return t.Minutes() > other.Minutes()
}

// Add returns t plus minutes, carrying hours. No wraparound past 24:00 is
// expected — callers are responsible for ensuring visits don't cross
// midnight.
func Add(t HHMM, minutes int) HHMM {
	total := t.Minutes() + minutes
	return HHMM{Hour: total / 60, Minute: total % 60}
}

// Weekday converts a time.Time to its en-GB weekday name (Monday first).
func Weekday(t time.Time) string {
	switch t.Weekday() {
	case time.Monday:
		return "Monday"
	case time.Tuesday:
		return "Tuesday"
	case time.Wednesday:
		return "Wednesday"
	case time.Thursday:
		return "Thursday"
	case time.Friday:
		return "Friday"
	case time.Saturday:
		return "Saturday"
	default:
		return "Sunday"
	}
}

// UTCDay normalizes an instant to 00:00:00 UTC of its calendar date.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of 24h days between a and b
// (both normalized to UTC day), b minus a. May be negative.
func DaysBetween(a, b time.Time) int {
	a, b = UTCDay(a), UTCDay(b)
	return int(b.Sub(a).Hours() / 24)
}
