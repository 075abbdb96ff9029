// Package workout holds the domain model shared by the intake functions:
// the workout category taxonomy, the stored-record shape, and the unit
// conversions applied when building a record.
package workout

import "time"

// Category is the fixed taxonomy a workout is classified into.
type Category string

const (
	CategoryYoga    Category = "Yoga"
	CategoryLifting Category = "Lifting"
	CategoryCardio  Category = "Cardio"
	CategoryOther   Category = "Other"
)

// Record is one row in the external workout database.
//
// Exactly one of StravaID (webhook intake) or StartTime (batch intake) is set;
// it doubles as the dedup key for records this system creates. DistanceKM is
// only populated on the webhook path, where the source reports distance.
type Record struct {
	// Date is the workout's start timestamp truncated to day granularity.
	Date time.Time

	Category Category

	// Activity is the free-text label of the specific activity performed.
	Activity string

	// DurationMin is the elapsed duration rounded to whole minutes.
	DurationMin int

	Calories int

	// Source names the integration that produced the row.
	Source string

	// StravaID is the remote activity identifier, as text.
	StravaID string

	// StartTime is the ISO-formatted start timestamp of a batch entry.
	StartTime string

	// DistanceKM is the distance in kilometres, rounded to 2 decimals.
	DistanceKM float64
}

// RemoteActivity is a Strava activity as returned by the activities API.
type RemoteActivity struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	SportType   string  `json:"sport_type"`
	StartDate   string  `json:"start_date"`   // ISO 8601
	ElapsedTime int     `json:"elapsed_time"` // seconds
	Calories    float64 `json:"calories"`
	Distance    float64 `json:"distance"` // meters
}

// Label returns the best free-text type label for classification,
// preferring the newer sport_type field over the legacy type field.
func (a *RemoteActivity) Label() string {
	if a.SportType != "" {
		return a.SportType
	}
	return a.Type
}

// StartTime parses the activity's start timestamp.
func (a *RemoteActivity) StartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, a.StartDate)
}
