package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"video-license-agent/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected models.Platform
		ok       bool
	}{
		{"YouTube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.PlatformYouTube, true},
		{"YouTube short link", "https://youtu.be/dQw4w9WgXcQ", models.PlatformYouTube, true},
		{"TikTok", "https://www.tiktok.com/@user/video/7234567890123456789", models.PlatformTikTok, true},
		{"Twitter", "https://twitter.com/user/status/1234567890", models.PlatformTwitter, true},
		{"X", "https://x.com/user/status/1234567890", models.PlatformTwitter, true},
		{"Unsupported", "https://vimeo.com/123456", "", false},
		{"Not a URL", "not a url", "", false},
		{"Empty", "", "", false},
		{"Uppercase domain is not matched", "https://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ", "", false},
		{"Mixed case TikTok is not matched", "https://TikTok.com/@u/video/1", "", false},
		{"x.com substring matches Twitter", "https://netflix.com/title/1", models.PlatformTwitter, true},
		{"YouTube wins over x.com", "https://youtube.com/watch?v=aaaaaaaaaaa&ref=x.com", models.PlatformYouTube, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Classify(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		platform models.Platform
		url      string
		expected string
		ok       bool
	}{
		{"YouTube watch", models.PlatformYouTube, "https://youtube.com/watch?v=aaaaaaaaaaa", "aaaaaaaaaaa", true},
		{"YouTube watch with share param", models.PlatformYouTube, "https://youtube.com/watch?v=8cjMIPP-vJc&si=cxgL_oz-13E4yOVv", "8cjMIPP-vJc", true},
		{"YouTube watch with second query mark", models.PlatformYouTube, "https://youtube.com/watch?v=sX8MS0R9VK4?si=N1z3jC_DJov-pDrg", "sX8MS0R9VK4", true},
		{"YouTube short link", models.PlatformYouTube, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"YouTube embed", models.PlatformYouTube, "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"YouTube v path", models.PlatformYouTube, "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"YouTube fragment", models.PlatformYouTube, "https://www.youtube.com/watch?v=dQw4w9WgXcQ#t=30", "dQw4w9WgXcQ", true},
		{"YouTube ID too short", models.PlatformYouTube, "https://youtube.com/watch?v=short", "", false},
		{"YouTube ID too long", models.PlatformYouTube, "https://youtube.com/watch?v=aaaaaaaaaaaa", "", false},
		{"YouTube channel page", models.PlatformYouTube, "https://www.youtube.com/channel", "", false},
		{"TikTok", models.PlatformTikTok, "https://tiktok.com/@u/video/123", "123", true},
		{"TikTok with query", models.PlatformTikTok, "https://www.tiktok.com/@u/video/7234567890?lang=en", "7234567890", true},
		{"TikTok profile", models.PlatformTikTok, "https://www.tiktok.com/@u", "", false},
		{"TikTok non-numeric", models.PlatformTikTok, "https://www.tiktok.com/@u/video/abc", "", false},
		{"Twitter", models.PlatformTwitter, "https://twitter.com/u/status/1234567890", "1234567890", true},
		{"X with media path", models.PlatformTwitter, "https://x.com/u/status/42/video/1", "42", true},
		{"Twitter profile", models.PlatformTwitter, "https://twitter.com/u", "", false},
		{"Unknown platform", models.Platform("vimeo"), "https://vimeo.com/1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractID(tt.platform, tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestResolve(t *testing.T) {
	ref := Resolve("https://tiktok.com/@u/video/123")
	assert.Equal(t, models.VideoReference{URL: "https://tiktok.com/@u/video/123", Platform: models.PlatformTikTok, VideoID: "123"}, ref)

	ref = Resolve("https://twitter.com/u")
	assert.Equal(t, models.PlatformTwitter, ref.Platform)
	assert.Empty(t, ref.VideoID)

	ref = Resolve("not a url")
	assert.Empty(t, ref.Platform)
	assert.Empty(t, ref.VideoID)
}
