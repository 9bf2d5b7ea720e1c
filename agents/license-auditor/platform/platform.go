// Package platform maps raw video URLs to a supported host and pulls the
// host's canonical video ID out of the URL.
package platform

import (
	"regexp"
	"strings"

	"video-license-agent/internal/models"
)

// Domain matching is substring based and case-sensitive: "YOUTUBE.COM" is not
// recognized, and any URL containing "x.com" (e.g. "netflix.com") classifies
// as Twitter. Existing spreadsheets rely on this behavior.
var domainRules = []struct {
	platform models.Platform
	domains  []string
}{
	{models.PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{models.PlatformTikTok, []string{"tiktok.com"}},
	{models.PlatformTwitter, []string{"twitter.com", "x.com"}},
}

// Classify returns the platform hosting url, or false when unsupported.
func Classify(url string) (models.Platform, bool) {
	for _, rule := range domainRules {
		for _, domain := range rule.domains {
			if strings.Contains(url, domain) {
				return rule.platform, true
			}
		}
	}
	return "", false
}

const youTubeIDLength = 11

var (
	youTubeIDPattern = regexp.MustCompile(`^.*(youtu.be/|v/|e/|u/\w+/|embed/|v=)([^#&?]*).*`)
	tikTokIDPattern  = regexp.MustCompile(`/video/(\d+)`)
	tweetIDPattern   = regexp.MustCompile(`/status/(\d+)`)
)

type extractor func(url string) (string, bool)

var extractors = map[models.Platform]extractor{
	models.PlatformYouTube: extractYouTubeID,
	models.PlatformTikTok:  submatch(tikTokIDPattern),
	models.PlatformTwitter: submatch(tweetIDPattern),
}

// ExtractID pulls the video ID for the given platform out of url. It reports
// false when the URL has no recognizable ID or the platform is unknown.
func ExtractID(p models.Platform, url string) (string, bool) {
	extract, ok := extractors[p]
	if !ok {
		return "", false
	}
	return extract(url)
}

// Resolve classifies url and extracts its ID in one step.
func Resolve(url string) models.VideoReference {
	ref := models.VideoReference{URL: url}
	p, ok := Classify(url)
	if !ok {
		return ref
	}
	ref.Platform = p
	if id, ok := ExtractID(p, url); ok {
		ref.VideoID = id
	}
	return ref
}

func extractYouTubeID(url string) (string, bool) {
	m := youTubeIDPattern.FindStringSubmatch(url)
	if m == nil || len(m[2]) != youTubeIDLength {
		return "", false
	}
	return m[2], true
}

func submatch(re *regexp.Regexp) extractor {
	return func(url string) (string, bool) {
		m := re.FindStringSubmatch(url)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}
