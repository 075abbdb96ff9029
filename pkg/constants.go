package shared

const (
	// SourceStrava labels rows created from Strava webhook events.
	SourceStrava = "Strava"
	// SourceAppleWatch is the default source label for batch-imported workouts.
	SourceAppleWatch = "Apple Watch"
)
