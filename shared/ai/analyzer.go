package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"video-license-agent/internal/models"
	"video-license-agent/shared/config"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty response from AI model")
	// ErrMalformedResponse is returned when the model text is not a license analysis object.
	ErrMalformedResponse = errors.New("malformed license analysis response")
)

// contentGenerator is the subset of genai.Models the analyzer calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// LicenseAnalyzer asks a Gemini model for the licensing terms stated in a
// video's title and description.
type LicenseAnalyzer struct {
	models contentGenerator
	model  string
}

func NewLicenseAnalyzer(ctx context.Context, cfg *config.AIConfig) (*LicenseAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &LicenseAnalyzer{
		models: client.Models,
		model:  cfg.Model,
	}, nil
}

// AnalyzeLicense runs one generation for meta and parses the result. Nothing
// is retried: a transport or parse failure is returned as is.
func (a *LicenseAnalyzer) AnalyzeLicense(ctx context.Context, meta *models.VideoMetadata) (*models.LicenseAnalysis, error) {
	if meta == nil {
		return nil, fmt.Errorf("metadata cannot be nil")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(BuildLicensePrompt(meta), genai.RoleUser),
	}

	result, err := a.models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate license analysis: %w", err)
	}

	responseText := result.Text()
	if strings.TrimSpace(responseText) == "" {
		return nil, ErrEmptyResponse
	}

	analysis, err := ParseLicenseAnalysis(responseText)
	if err != nil {
		log.Debug().Str("response", responseText).Msg("Unparseable license analysis")
		return nil, err
	}
	return analysis, nil
}

// BuildLicensePrompt embeds the video text in the fixed analysis instructions.
func BuildLicensePrompt(meta *models.VideoMetadata) string {
	return fmt.Sprintf(`Analyze this video's title and description for licensing information:
Title: %s
Description: %s

Please carefully analyze for:
1. Explicit license types (e.g., Creative Commons)
2. Licensing contact information or instructions (e.g., email, phone numbers, submission links).
3. Mentions of licensing services or companies (e.g., ViralHog, Newsflare).
4. Commercial licensing availability (explicitly or implied).
5. Rights management companies or agencies mentioned (if any).
6. Any specific instructions about usage rights or licensing process (e.g., whether attribution is required).

Pay special attention to:
- Email addresses containing "licensing" or similar terms
- Phrases like "to license this content" or "for licensing"
- Company names followed by licensing instructions
- Any mention of content licensing platforms or services

Format your response as a JSON object with exactly these fields:
{
  "hasExplicitLicense": boolean,        // true if any form of licensing is mentioned
  "licenseType": string,                // e.g., "Commercial License through ViralHog", "Creative Commons"
  "canUseCommercially": boolean,        // true if commercial licensing is available
  "requiresAttribution": boolean,       // true if attribution is required
  "licensingContact": string | null,    // licensing contact information if provided
  "licensingCompany": string | null,    // company handling licensing if mentioned
  "notes": string                       // additional details about licensing terms, process, or ambiguities
}`, meta.Title, meta.Description)
}

// StripCodeFences removes every "```json" and "```" marker from s.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseLicenseAnalysis decodes a model response strictly. Only fence markers
// are removed; any other deviation from a JSON object is ErrMalformedResponse.
func ParseLicenseAnalysis(response string) (*models.LicenseAnalysis, error) {
	var analysis models.LicenseAnalysis
	if err := json.Unmarshal([]byte(StripCodeFences(response)), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &analysis, nil
}
