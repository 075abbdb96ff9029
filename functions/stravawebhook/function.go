// Package stravawebhook receives Strava webhook push notifications and syncs
// newly created activities into the workout database.
package stravawebhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"

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
	functions.HTTP("StravaWebhook", framework.WrapHTTP("strava-webhook", StravaWebhook))
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

// webhookEvent is a Strava webhook push notification.
type webhookEvent struct {
	ObjectType string `json:"object_type"`
	AspectType string `json:"aspect_type"`
	ObjectID   int64  `json:"object_id"`
	OwnerID    int64  `json:"owner_id"`
}

// StravaWebhook is the HTTP entry point for the Strava webhook.
func StravaWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := framework.Logger(ctx)

	framework.SetCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	case http.MethodGet:
		// Subscription validation: echo the challenge back unchanged.
		challenge := r.URL.Query().Get("hub.challenge")
		logger.Info("Webhook validation request",
			"hub_mode", r.URL.Query().Get("hub.mode"),
			"hub_verify_token", r.URL.Query().Get("hub.verify_token"),
		)
		body, _ := json.Marshal(map[string]string{"hub.challenge": challenge})
		w.WriteHeader(http.StatusOK)
		w.Write(body)

	case http.MethodPost:
		var event webhookEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			logger.Error("Failed to decode webhook payload", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		if event.ObjectType != "activity" || event.AspectType != "create" {
			// Acknowledge everything else so Strava doesn't retry.
			logger.Info("Ignoring event",
				"object_type", event.ObjectType,
				"aspect_type", event.AspectType,
			)
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]bool{"received": true})
			return
		}

		svc, err := initService(ctx)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
			return
		}

		if err := processCreateEvent(ctx, svc, logger, event.ObjectID); err != nil {
			// A failed write must surface as an error so Strava retries; the
			// dedup check makes the retry safe.
			sentry.CaptureException(err, map[string]interface{}{"activity_id": event.ObjectID}, logger)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]bool{"received": true})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed"})
	}
}

// processCreateEvent fetches the created activity, deduplicates and persists
// it. Fetch failures and dedup-query failures are swallowed by design: the
// webhook caller is not at fault and must not see an error for them.
func processCreateEvent(ctx context.Context, svc *bootstrap.Service, logger *slog.Logger, activityID int64) error {
	activity, err := svc.Strava.GetActivity(ctx, activityID)
	if err != nil {
		// Nothing to process for this event.
		logger.Error("Failed to fetch activity from Strava", "activity_id", activityID, "error", err)
		return nil
	}

	start, err := activity.StartTime()
	if err != nil {
		logger.Error("Activity has unparseable start date",
			"activity_id", activityID,
			"start_date", activity.StartDate,
			"error", err,
		)
		return nil
	}
	day := workout.DayOf(start)

	exists, err := svc.Workouts.ExistsForStravaID(ctx, day, activity.ID)
	if err != nil {
		// Favor a possible duplicate over silently dropping a new activity.
		logger.Warn("Dedup query failed, assuming not a duplicate", "activity_id", activityID, "error", err)
		exists = false
	}
	if exists {
		logger.Info("Activity already recorded, skipping", "activity_id", activityID)
		return nil
	}

	label := activity.Label()
	rec := workout.Record{
		Date:        day,
		Category:    workout.ClassifyRemote(label),
		Activity:    label,
		DurationMin: workout.RoundMinutes(float64(activity.ElapsedTime) / 60),
		Calories:    int(math.Round(activity.Calories)),
		Source:      shared.SourceStrava,
		StravaID:    strconv.FormatInt(activity.ID, 10),
		DistanceKM:  workout.KilometersFromMeters(activity.Distance),
	}

	pageID, err := svc.Workouts.Create(ctx, rec)
	if err != nil {
		return err
	}

	logger.Info("Workout recorded",
		"activity_id", activityID,
		"page_id", pageID,
		"category", rec.Category,
		"duration_min", rec.DurationMin,
	)
	return nil
}
