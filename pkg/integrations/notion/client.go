// Package notion implements the workout database on top of the Notion API.
// One database row per workout; rows are created, never updated.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ripixel/workout-sync/pkg/domain/workout"
	httputil "github.com/ripixel/workout-sync/pkg/infrastructure/http"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"

	dateLayout = "2006-01-02"
)

// Property names of the workout database.
const (
	propDate      = "Date"
	propCategory  = "Workout Type"
	propActivity  = "Specific Activity"
	propDuration  = "Duration (Minutes)"
	propCalories  = "Calories"
	propSource    = "Source"
	propStravaID  = "Strava ID"
	propStartTime = "Start Time"
	propDistance  = "Distance (km)"
)

// Client is an API client for the Notion workout database.
type Client struct {
	token      string
	databaseID string
	baseURL    string
	client     *http.Client
}

// NewClient creates a new Notion API client scoped to one database.
func NewClient(token, databaseID string) *Client {
	return &Client{
		token:      token,
		databaseID: databaseID,
		baseURL:    defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Wire types ---

type queryRequest struct {
	Filter      *filter `json:"filter,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
}

// filter is either a compound AND filter or a single property condition.
type filter struct {
	And      []filter        `json:"and,omitempty"`
	Property string          `json:"property,omitempty"`
	Date     *dateCondition  `json:"date,omitempty"`
	RichText *equalCondition `json:"rich_text,omitempty"`
}

type dateCondition struct {
	Equals string `json:"equals"`
}

type equalCondition struct {
	Equals string `json:"equals"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

// property covers both read and write shapes of the property types this
// database uses (title, rich_text, number, select, date).
type property struct {
	Title    []richText  `json:"title,omitempty"`
	RichText []richText  `json:"rich_text,omitempty"`
	Number   *float64    `json:"number,omitempty"`
	Select   *selectOpt  `json:"select,omitempty"`
	Date     *dateObject `json:"date,omitempty"`
}

type richText struct {
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type selectOpt struct {
	Name string `json:"name"`
}

type dateObject struct {
	Start string `json:"start"`
}

type createPageRequest struct {
	Parent     parent              `json:"parent"`
	Properties map[string]property `json:"properties"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

type createPageResponse struct {
	ID string `json:"id"`
}

// doRequest performs an HTTP request with bearer auth and the Notion-Version header.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// query runs a database query, following pagination cursors.
func (c *Client) query(ctx context.Context, f *filter) ([]page, error) {
	var pages []page
	cursor := ""

	for {
		resp, err := c.doRequest(ctx, http.MethodPost,
			fmt.Sprintf("/databases/%s/query", c.databaseID),
			queryRequest{Filter: f, StartCursor: cursor})
		if err != nil {
			return nil, err
		}

		var qr queryResponse
		err = json.NewDecoder(resp.Body).Decode(&qr)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode query response: %w", err)
		}

		pages = append(pages, qr.Results...)
		if !qr.HasMore || qr.NextCursor == "" {
			break
		}
		cursor = qr.NextCursor
	}

	return pages, nil
}

// ListByDate returns every stored workout whose Date equals the given day.
func (c *Client) ListByDate(ctx context.Context, day time.Time) ([]workout.Record, error) {
	pages, err := c.query(ctx, &filter{
		Property: propDate,
		Date:     &dateCondition{Equals: day.Format(dateLayout)},
	})
	if err != nil {
		return nil, fmt.Errorf("query workouts by date: %w", err)
	}

	records := make([]workout.Record, 0, len(pages))
	for _, p := range pages {
		records = append(records, recordFromPage(p))
	}
	return records, nil
}

// ExistsForStravaID reports whether a row with the given Strava activity ID
// already exists on the given day. Both predicates run server-side.
func (c *Client) ExistsForStravaID(ctx context.Context, day time.Time, stravaID int64) (bool, error) {
	pages, err := c.query(ctx, &filter{
		And: []filter{
			{Property: propDate, Date: &dateCondition{Equals: day.Format(dateLayout)}},
			{Property: propStravaID, RichText: &equalCondition{Equals: strconv.FormatInt(stravaID, 10)}},
		},
	})
	if err != nil {
		return false, fmt.Errorf("query workouts by strava id: %w", err)
	}
	return len(pages) > 0, nil
}

// Create inserts a new workout row and returns the created page's ID.
func (c *Client) Create(ctx context.Context, rec workout.Record) (string, error) {
	duration := float64(rec.DurationMin)
	calories := float64(rec.Calories)

	props := map[string]property{
		propActivity: {Title: []richText{{Text: &textContent{Content: rec.Activity}}}},
		propDate:     {Date: &dateObject{Start: rec.Date.Format(dateLayout)}},
		propCategory: {Select: &selectOpt{Name: string(rec.Category)}},
		propDuration: {Number: &duration},
		propCalories: {Number: &calories},
		propSource:   {RichText: []richText{{Text: &textContent{Content: rec.Source}}}},
	}

	// The dedup-key property differs by intake path: webhook rows carry the
	// Strava ID (plus distance), batch rows carry the formatted start time.
	if rec.StravaID != "" {
		distance := rec.DistanceKM
		props[propStravaID] = property{RichText: []richText{{Text: &textContent{Content: rec.StravaID}}}}
		props[propDistance] = property{Number: &distance}
	}
	if rec.StartTime != "" {
		props[propStartTime] = property{RichText: []richText{{Text: &textContent{Content: rec.StartTime}}}}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/pages", createPageRequest{
		Parent:     parent{DatabaseID: c.databaseID},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("create workout page: %w", err)
	}
	defer resp.Body.Close()

	var created createPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	return created.ID, nil
}

// recordFromPage maps a page's properties back to a Record. Missing or
// differently-typed properties yield zero values rather than errors; dedup
// comparisons work on the stored representation, whatever it is.
func recordFromPage(p page) workout.Record {
	rec := workout.Record{
		Activity:  plainText(p.Properties[propActivity]),
		Source:    plainText(p.Properties[propSource]),
		StravaID:  plainText(p.Properties[propStravaID]),
		StartTime: plainText(p.Properties[propStartTime]),
	}

	if sel := p.Properties[propCategory].Select; sel != nil {
		rec.Category = workout.Category(sel.Name)
	}
	if n := p.Properties[propDuration].Number; n != nil {
		rec.DurationMin = int(*n)
	}
	if n := p.Properties[propCalories].Number; n != nil {
		rec.Calories = int(*n)
	}
	if n := p.Properties[propDistance].Number; n != nil {
		rec.DistanceKM = *n
	}
	if d := p.Properties[propDate].Date; d != nil {
		if t, err := time.Parse(dateLayout, d.Start); err == nil {
			rec.Date = t
		}
	}

	return rec
}

// plainText flattens a title or rich_text property to its text content.
func plainText(prop property) string {
	parts := prop.Title
	if len(parts) == 0 {
		parts = prop.RichText
	}

	text := ""
	for _, rt := range parts {
		if rt.PlainText != "" {
			text += rt.PlainText
		} else if rt.Text != nil {
			text += rt.Text.Content
		}
	}
	return text
}
