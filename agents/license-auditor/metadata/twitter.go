package metadata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"video-license-agent/internal/models"
	"video-license-agent/shared/config"
)

const DefaultTwitterEndpoint = "https://api.twitter.com/2/tweets/{id}?expansions=attachments.media_keys&media.fields=url,duration_ms"

type tweetResponse struct {
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
}

// TwitterFetcher reads a tweet's text. Tweets have no title/description split,
// so both fields carry the text.
type TwitterFetcher struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewTwitterFetcher(cfg *config.TwitterConfig, timeout time.Duration) *TwitterFetcher {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultTwitterEndpoint
	}
	return &TwitterFetcher{
		endpoint: endpoint,
		token:    cfg.BearerToken,
		client:   newBearerClient(cfg.BearerToken, timeout),
	}
}

func (t *TwitterFetcher) Fetch(ctx context.Context, tweetID string) (*models.VideoMetadata, error) {
	if t.token == "" {
		return nil, fmt.Errorf("Twitter bearer token is not configured")
	}

	var data tweetResponse
	if err := getJSON(ctx, t.client, expandEndpoint(t.endpoint, tweetID), &data); err != nil {
		return nil, err
	}

	return &models.VideoMetadata{
		Title:       data.Data.Text,
		Description: data.Data.Text,
	}, nil
}
