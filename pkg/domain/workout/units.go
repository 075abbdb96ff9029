package workout

import (
	"math"
	"time"
)

// RoundMinutes rounds a raw duration in minutes to the nearest whole minute.
// Negative inputs clamp to 0.
func RoundMinutes(minutes float64) int {
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(minutes))
}

// KilometersFromMeters converts a distance in meters to kilometres,
// rounded to 2 decimal places.
func KilometersFromMeters(meters float64) float64 {
	return math.Round(meters/1000*100) / 100
}

// DayOf truncates a timestamp to day granularity, preserving its location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
