package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-license-agent/internal/models"
	"video-license-agent/shared/config"
)

// DefaultTikTokEndpoint is a placeholder for the video-by-id endpoint; {id}
// is replaced with the escaped video ID.
const DefaultTikTokEndpoint = "https://api.tiktok.com/v2/videos/{id}"

type tikTokVideoResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TikTokFetcher reads title and description for a TikTok video.
type TikTokFetcher struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewTikTokFetcher(cfg *config.TikTokConfig, timeout time.Duration) *TikTokFetcher {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultTikTokEndpoint
	}
	return &TikTokFetcher{
		endpoint: endpoint,
		token:    cfg.AccessToken,
		client:   newBearerClient(cfg.AccessToken, timeout),
	}
}

func (t *TikTokFetcher) Fetch(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	if t.token == "" {
		return nil, fmt.Errorf("TikTok access token is not configured")
	}

	var data tikTokVideoResponse
	if err := getJSON(ctx, t.client, expandEndpoint(t.endpoint, videoID), &data); err != nil {
		return nil, err
	}

	return &models.VideoMetadata{
		Title:       data.Title,
		Description: data.Description,
	}, nil
}

func expandEndpoint(endpoint, id string) string {
	return strings.ReplaceAll(endpoint, "{id}", url.PathEscape(id))
}
