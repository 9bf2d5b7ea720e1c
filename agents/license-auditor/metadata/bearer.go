package metadata

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// newBearerClient returns an HTTP client that sends token as a bearer
// Authorization header on every request.
func newBearerClient(token string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   http.DefaultTransport,
		},
	}
}
