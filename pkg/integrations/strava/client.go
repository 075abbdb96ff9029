// Package strava is a minimal client for the Strava v3 API, covering the
// single call the webhook intake needs: fetching an activity by ID.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ripixel/workout-sync/pkg/domain/workout"
	httputil "github.com/ripixel/workout-sync/pkg/infrastructure/http"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// Client is an API client for Strava.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Strava client. The provided http.Client is expected to
// carry OAuth credentials (see pkg/infrastructure/oauth); if nil, a plain
// client with a default timeout is used.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: defaultBaseURL,
		client:  httpClient,
	}
}

// GetActivity fetches the full activity record by ID.
func (c *Client) GetActivity(ctx context.Context, id int64) (*workout.RemoteActivity, error) {
	url := fmt.Sprintf("%s/activities/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, err
	}

	var activity workout.RemoteActivity
	if err := json.NewDecoder(resp.Body).Decode(&activity); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	return &activity, nil
}
