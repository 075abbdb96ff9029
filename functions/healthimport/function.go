// Package healthimport receives batch pushes of locally captured workouts
// (an Apple Health shortcut) and syncs them into the workout database.
package healthimport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	shared "github.com/ripixel/workout-sync/pkg"
	"github.com/ripixel/workout-sync/pkg/bootstrap"
	"github.com/ripixel/workout-sync/pkg/domain/workout"
	"github.com/ripixel/workout-sync/pkg/framework"
	"github.com/ripixel/workout-sync/pkg/infrastructure/sentry"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("ImportHealthWorkouts", framework.WrapHTTP("health-import", ImportHealthWorkouts))
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		baseSvc, err := bootstrap.NewService(ctx)
		if err != nil {
			slog.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
	})
	return svc, svcErr
}

// workoutEntry is one locally captured workout in the request body.
type workoutEntry struct {
	Type      string   `json:"type"`
	Duration  float64  `json:"duration"` // minutes, possibly fractional
	Calories  *float64 `json:"calories,omitempty"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate,omitempty"` // unused for matching
	Source    string   `json:"source,omitempty"`
}

// entryResult is the per-entry outcome reported in the response.
type entryResult struct {
	Status      string `json:"status"` // "added" | "skipped" | "failed"
	Activity    string `json:"activity"`
	Category    string `json:"category,omitempty"`
	DurationMin int    `json:"durationMinutes,omitempty"`
	ID          string `json:"id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
}

type importResponse struct {
	Added   int           `json:"added"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Results []entryResult `json:"results"`
	Summary string        `json:"summary"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ImportHealthWorkouts is the HTTP entry point for the batch import.
func ImportHealthWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := framework.Logger(ctx)

	framework.SetCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		// CORS preflight, before any processing.
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
		// Handled below.
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(errorResponse{Error: "Method not allowed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Error: "Invalid JSON body", Details: err.Error()})
		return
	}

	rawWorkouts, ok := body["workouts"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Error: "Missing 'workouts' list"})
		return
	}

	var entries []workoutEntry
	if err := json.Unmarshal(rawWorkouts, &entries); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Error: "'workouts' must be a list", Details: err.Error()})
		return
	}

	svc, err := initService(ctx)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorResponse{Error: "Internal server error"})
		return
	}

	// One query for everything stored today; each entry is compared against
	// this set in memory since batch entries carry no stable external ID.
	today := workout.DayOf(time.Now())
	existing, err := svc.Workouts.ListByDate(ctx, today)
	if err != nil {
		sentry.CaptureException(err, map[string]interface{}{"date": today.Format("2006-01-02")}, logger)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorResponse{Error: "Failed to fetch existing workouts", Details: err.Error()})
		return
	}

	resp := processEntries(ctx, svc, logger, entries, existing)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// processEntries runs the dedupe/classify/write loop over the batch, in input
// order. Entries are independent; a failing write marks that entry failed and
// processing continues.
func processEntries(ctx context.Context, svc *bootstrap.Service, logger *slog.Logger, entries []workoutEntry, existing []workout.Record) importResponse {
	resp := importResponse{Results: []entryResult{}}

	for _, entry := range entries {
		result := processEntry(ctx, svc, logger, entry, existing)
		resp.Results = append(resp.Results, result)

		switch result.Status {
		case "added":
			resp.Added++
		case "skipped":
			resp.Skipped++
		case "failed":
			resp.Failed++
		}
	}

	resp.Summary = buildSummary(resp.Results)
	return resp
}

func processEntry(ctx context.Context, svc *bootstrap.Service, logger *slog.Logger, entry workoutEntry, existing []workout.Record) entryResult {
	durationMin := workout.RoundMinutes(entry.Duration)

	start, err := time.Parse(time.RFC3339, entry.StartDate)
	if err != nil {
		logger.Warn("Entry has unparseable start date", "activity", entry.Type, "start_date", entry.StartDate)
		return entryResult{
			Status:   "failed",
			Activity: entry.Type,
			Error:    fmt.Sprintf("invalid startDate: %s", entry.StartDate),
		}
	}
	startISO := start.Format(time.RFC3339)

	// Dedup key: (label, rounded duration, ISO start time) against every
	// record already stored today, by stored representation.
	for _, rec := range existing {
		if rec.Activity == entry.Type && rec.DurationMin == durationMin && rec.StartTime == startISO {
			logger.Info("Workout already recorded, skipping", "activity", entry.Type, "start_time", startISO)
			return entryResult{
				Status:   "skipped",
				Activity: entry.Type,
				Reason:   "Already exists",
			}
		}
	}

	source := entry.Source
	if source == "" {
		source = shared.SourceAppleWatch
	}

	calories := 0
	if entry.Calories != nil {
		calories = int(math.Round(*entry.Calories))
	}

	rec := workout.Record{
		Date:        workout.DayOf(start),
		Category:    workout.Classify(entry.Type),
		Activity:    entry.Type,
		DurationMin: durationMin,
		Calories:    calories,
		Source:      source,
		StartTime:   startISO,
	}

	pageID, err := svc.Workouts.Create(ctx, rec)
	if err != nil {
		logger.Error("Failed to create workout", "activity", entry.Type, "error", err)
		sentry.CaptureException(err, map[string]interface{}{"activity": entry.Type}, logger)
		return entryResult{
			Status:   "failed",
			Activity: entry.Type,
			Category: string(rec.Category),
			Error:    err.Error(),
		}
	}

	logger.Info("Workout recorded",
		"activity", entry.Type,
		"page_id", pageID,
		"category", rec.Category,
		"duration_min", durationMin,
	)
	return entryResult{
		Status:      "added",
		Activity:    entry.Type,
		Category:    string(rec.Category),
		DurationMin: durationMin,
		ID:          pageID,
	}
}

// buildSummary renders the human-readable multi-line summary: one line per
// added entry, then optional trailing blocks for skipped and failed entries.
func buildSummary(results []entryResult) string {
	var added, skipped, failed []string
	for _, r := range results {
		switch r.Status {
		case "added":
			added = append(added, fmt.Sprintf("- %s: %d min (%s)", r.Activity, r.DurationMin, r.Category))
		case "skipped":
			skipped = append(skipped, fmt.Sprintf("- %s (%s)", r.Activity, r.Reason))
		case "failed":
			failed = append(failed, fmt.Sprintf("- %s (%s)", r.Activity, r.Error))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Added %d workout(s)\n", len(added))
	for _, line := range added {
		b.WriteString(line + "\n")
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "Skipped %d workout(s)\n", len(skipped))
		for _, line := range skipped {
			b.WriteString(line + "\n")
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "Failed %d workout(s)\n", len(failed))
		for _, line := range failed {
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
