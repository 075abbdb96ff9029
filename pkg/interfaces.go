package shared

import (
	"context"
	"time"

	"github.com/ripixel/workout-sync/pkg/domain/workout"
)

// --- Persistence Interfaces ---

// WorkoutStore is the external structured database holding one row per workout.
// Rows are created once and never updated or deleted by this system.
type WorkoutStore interface {
	// ListByDate returns every stored workout whose Date equals the given day.
	ListByDate(ctx context.Context, day time.Time) ([]workout.Record, error)

	// ExistsForStravaID reports whether a stored workout already carries the
	// given Strava activity ID on the given day. Both predicates are pushed
	// to the remote query.
	ExistsForStravaID(ctx context.Context, day time.Time, stravaID int64) (bool, error)

	// Create inserts a new workout row and returns its identifier.
	Create(ctx context.Context, rec workout.Record) (string, error)
}

// --- Integration Interfaces ---

// ActivityFetcher retrieves a full activity from the remote tracking service.
type ActivityFetcher interface {
	GetActivity(ctx context.Context, id int64) (*workout.RemoteActivity, error)
}
