// Package metadata retrieves title and description text for a video from its
// hosting platform's API.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"video-license-agent/internal/models"
)

// Fetcher returns metadata for one video ID. Implementations make exactly one
// outbound call and never retry.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*models.VideoMetadata, error)
}

// Registry maps each platform to its fetcher.
type Registry map[models.Platform]Fetcher

// Fetch dispatches to the fetcher registered for p.
func (r Registry) Fetch(ctx context.Context, p models.Platform, videoID string) (*models.VideoMetadata, error) {
	f, ok := r[p]
	if !ok {
		return nil, fmt.Errorf("no metadata fetcher registered for %s", p)
	}
	return f.Fetch(ctx, videoID)
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type unavailableFetcher struct {
	err error
}

// Unavailable returns a Fetcher that fails every call with err. It stands in
// for a platform whose credentials are missing so only that platform's rows fail.
func Unavailable(err error) Fetcher {
	return unavailableFetcher{err: err}
}

func (u unavailableFetcher) Fetch(context.Context, string) (*models.VideoMetadata, error) {
	return nil, u.err
}
