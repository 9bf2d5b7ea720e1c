package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"video-license-agent/internal/models"
	"video-license-agent/shared/config"
)

// YouTubeFetcher reads video snippets through the YouTube Data API v3.
type YouTubeFetcher struct {
	service *youtube.Service
}

func NewYouTubeFetcher(ctx context.Context, cfg *config.YouTubeConfig, timeout time.Duration) (*YouTubeFetcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("YouTube API key is required (set YOUTUBE_API_KEY or youtube.api_key)")
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &transport.APIKey{Key: cfg.APIKey},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &YouTubeFetcher{service: service}, nil
}

func (y *YouTubeFetcher) Fetch(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	resp, err := y.service.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			log.Warn().Str("video_id", videoID).Int("code", apiErr.Code).Str("message", apiErr.Message).Msg("YouTube API error")
			return nil, &StatusError{Code: apiErr.Code}
		}
		return nil, fmt.Errorf("failed to fetch YouTube video %s: %w", videoID, err)
	}

	meta := &models.VideoMetadata{}
	if len(resp.Items) > 0 && resp.Items[0].Snippet != nil {
		meta.Title = resp.Items[0].Snippet.Title
		meta.Description = resp.Items[0].Snippet.Description
	}
	return meta, nil
}
