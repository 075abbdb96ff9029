// Package oauth builds authenticated HTTP clients for the remote tracking
// service. Token refresh is handled by golang.org/x/oauth2; refreshed tokens
// live only for the lifetime of the function instance.
package oauth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const stravaTokenURL = "https://www.strava.com/oauth/token"

// Credentials holds the Strava OAuth application and athlete tokens,
// injected from configuration at process start.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// NewStravaClient returns an *http.Client that sets a bearer token on every
// request and refreshes it via the Strava token endpoint when expired.
func NewStravaClient(ctx context.Context, creds Credentials) *http.Client {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  stravaTokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	// The stored access token has an unknown age. When a refresh token is
	// available, mark the token expired so the first call re-exchanges it.
	if creds.RefreshToken != "" {
		token.Expiry = time.Now().Add(-time.Minute)
	}

	return conf.Client(ctx, token)
}
