package stravawebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ripixel/workout-sync/pkg/bootstrap"
	"github.com/ripixel/workout-sync/pkg/domain/workout"
	"github.com/ripixel/workout-sync/pkg/testing/mocks"
)

func injectService(store *mocks.MockWorkoutStore, fetcher *mocks.MockActivityFetcher) {
	svc = &bootstrap.Service{
		Workouts: store,
		Strava:   fetcher,
		Config:   &bootstrap.Config{},
	}
}

func postEvent(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	StravaWebhook(w, req)
	return w
}

func TestChallengeEcho(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?hub.challenge=abc123&hub.mode=subscribe", nil)
	w := httptest.NewRecorder()
	StravaWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"hub.challenge":"abc123"}` {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	w := httptest.NewRecorder()
	StravaWebhook(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Method not allowed" {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
}

func TestInvalidJSONBody(t *testing.T) {
	w := postEvent(t, "{not json")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Error("expected error field in response")
	}
}

func TestIgnoredEventWritesNothing(t *testing.T) {
	store := &mocks.MockWorkoutStore{}
	injectService(store, &mocks.MockActivityFetcher{})

	w := postEvent(t, `{"object_type":"activity","aspect_type":"update","object_id":123}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]bool
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp["received"] {
		t.Error("expected received:true")
	}
	if len(store.Created) != 0 {
		t.Errorf("expected no writes, got %d", len(store.Created))
	}
}

func TestCreateEventRecordsWorkout(t *testing.T) {
	store := &mocks.MockWorkoutStore{
		CreateFunc: func(ctx context.Context, rec workout.Record) (string, error) {
			return "page-abc", nil
		},
	}
	fetcher := &mocks.MockActivityFetcher{
		GetActivityFunc: func(ctx context.Context, id int64) (*workout.RemoteActivity, error) {
			if id != 9001 {
				t.Errorf("unexpected activity id: %d", id)
			}
			return &workout.RemoteActivity{
				ID:          9001,
				Name:        "Evening Ride",
				Type:        "Ride",
				SportType:   "Ride",
				StartDate:   "2024-01-15T18:30:00Z",
				ElapsedTime: 3756, // 62.6 minutes
				Calories:    512.4,
				Distance:    5432,
			}, nil
		},
	}
	injectService(store, fetcher)

	w := postEvent(t, `{"object_type":"activity","aspect_type":"create","object_id":9001}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(store.Created) != 1 {
		t.Fatalf("expected 1 write, got %d", len(store.Created))
	}

	rec := store.Created[0]
	if rec.Category != workout.CategoryCardio {
		t.Errorf("expected Cardio, got %s", rec.Category)
	}
	if rec.DurationMin != 63 {
		t.Errorf("expected 63 minutes, got %d", rec.DurationMin)
	}
	if rec.DistanceKM != 5.43 {
		t.Errorf("expected 5.43 km, got %v", rec.DistanceKM)
	}
	if rec.Calories != 512 {
		t.Errorf("expected 512 calories, got %d", rec.Calories)
	}
	if rec.StravaID != "9001" {
		t.Errorf("expected strava id 9001, got %q", rec.StravaID)
	}
	if rec.Source != "Strava" {
		t.Errorf("expected source Strava, got %q", rec.Source)
	}
	wantDay := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(wantDay) {
		t.Errorf("expected date %v, got %v", wantDay, rec.Date)
	}
}

func TestDuplicateActivitySkipped(t *testing.T) {
	store := &mocks.MockWorkoutStore{
		ExistsForStravaIDFunc: func(ctx context.Context, day time.Time, stravaID int64) (bool, error) {
			return true, nil
		},
	}
	fetcher := &mocks.MockActivityFetcher{
		GetActivityFunc: func(ctx context.Context, id int64) (*workout.RemoteActivity, error) {
			return &workout.RemoteActivity{
				ID:        id,
				Type:      "Run",
				StartDate: "2024-01-15T08:00:00Z",
			}, nil
		},
	}
	injectService(store, fetcher)

	w := postEvent(t, `{"object_type":"activity","aspect_type":"create","object_id":42}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(store.Created) != 0 {
		t.Errorf("expected no writes for duplicate, got %d", len(store.Created))
	}
}

func TestFetchFailureStillAcknowledged(t *testing.T) {
	store := &mocks.MockWorkoutStore{}
	fetcher := &mocks.MockActivityFetcher{
		GetActivityFunc: func(ctx context.Context, id int64) (*workout.RemoteActivity, error) {
			return nil, fmt.Errorf("strava unavailable")
		},
	}
	injectService(store, fetcher)

	w := postEvent(t, `{"object_type":"activity","aspect_type":"create","object_id":42}`)

	// The fetch failure is not the webhook caller's fault; a non-200 would
	// trigger Strava's retry backoff.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(store.Created) != 0 {
		t.Errorf("expected no writes, got %d", len(store.Created))
	}
}

func TestDedupQueryFailureProceedsToWrite(t *testing.T) {
	store := &mocks.MockWorkoutStore{
		ExistsForStravaIDFunc: func(ctx context.Context, day time.Time, stravaID int64) (bool, error) {
			return false, fmt.Errorf("query timeout")
		},
	}
	fetcher := &mocks.MockActivityFetcher{
		GetActivityFunc: func(ctx context.Context, id int64) (*workout.RemoteActivity, error) {
			return &workout.RemoteActivity{
				ID:          id,
				Type:        "Yoga",
				StartDate:   "2024-01-15T08:00:00Z",
				ElapsedTime: 2700,
			}, nil
		},
	}
	injectService(store, fetcher)

	w := postEvent(t, `{"object_type":"activity","aspect_type":"create","object_id":7}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(store.Created) != 1 {
		t.Fatalf("expected write despite dedup failure, got %d", len(store.Created))
	}
	if store.Created[0].Category != workout.CategoryYoga {
		t.Errorf("expected Yoga, got %s", store.Created[0].Category)
	}
}

func TestCreateFailureSurfacesError(t *testing.T) {
	store := &mocks.MockWorkoutStore{
		CreateFunc: func(ctx context.Context, rec workout.Record) (string, error) {
			return "", fmt.Errorf("database unavailable")
		},
	}
	fetcher := &mocks.MockActivityFetcher{
		GetActivityFunc: func(ctx context.Context, id int64) (*workout.RemoteActivity, error) {
			return &workout.RemoteActivity{
				ID:        id,
				Type:      "Run",
				StartDate: "2024-01-15T08:00:00Z",
			}, nil
		},
	}
	injectService(store, fetcher)

	w := postEvent(t, `{"object_type":"activity","aspect_type":"create","object_id":42}`)

	// A failed write surfaces as 500 so Strava retries; dedup makes it safe.
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	StravaWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected permissive CORS origin header")
	}
}
