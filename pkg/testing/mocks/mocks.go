package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/ripixel/workout-sync/pkg/domain/workout"
)

// --- Mock WorkoutStore ---

type MockWorkoutStore struct {
	ListByDateFunc        func(ctx context.Context, day time.Time) ([]workout.Record, error)
	ExistsForStravaIDFunc func(ctx context.Context, day time.Time, stravaID int64) (bool, error)
	CreateFunc            func(ctx context.Context, rec workout.Record) (string, error)

	// Created collects every record passed to Create, for assertions.
	Created []workout.Record
}

func (m *MockWorkoutStore) ListByDate(ctx context.Context, day time.Time) ([]workout.Record, error) {
	if m.ListByDateFunc != nil {
		return m.ListByDateFunc(ctx, day)
	}
	return nil, nil
}

func (m *MockWorkoutStore) ExistsForStravaID(ctx context.Context, day time.Time, stravaID int64) (bool, error) {
	if m.ExistsForStravaIDFunc != nil {
		return m.ExistsForStravaIDFunc(ctx, day, stravaID)
	}
	return false, nil
}

func (m *MockWorkoutStore) Create(ctx context.Context, rec workout.Record) (string, error) {
	m.Created = append(m.Created, rec)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	return fmt.Sprintf("page-%d", len(m.Created)), nil
}

// --- Mock ActivityFetcher ---

type MockActivityFetcher struct {
	GetActivityFunc func(ctx context.Context, id int64) (*workout.RemoteActivity, error)
}

func (m *MockActivityFetcher) GetActivity(ctx context.Context, id int64) (*workout.RemoteActivity, error) {
	if m.GetActivityFunc != nil {
		return m.GetActivityFunc(ctx, id)
	}
	return nil, fmt.Errorf("activity %d not found", id)
}
