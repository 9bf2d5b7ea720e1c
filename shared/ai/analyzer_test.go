package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"video-license-agent/internal/models"
)

type stubGenerator struct {
	text   string
	err    error
	model  string
	prompt string
}

func (s *stubGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		s.prompt = contents[0].Parts[0].Text
	}
	if s.err != nil {
		return nil, s.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(s.text, genai.RoleModel)},
		},
	}, nil
}

const sampleJSON = `{
  "hasExplicitLicense": true,
  "licenseType": "Commercial License through ViralHog",
  "canUseCommercially": true,
  "requiresAttribution": false,
  "licensingContact": "licensing@viralhog.com",
  "licensingCompany": "ViralHog",
  "notes": "Contact ViralHog to license."
}`

func TestParseLicenseAnalysis(t *testing.T) {
	plain, err := ParseLicenseAnalysis(sampleJSON)
	require.NoError(t, err)

	assert.True(t, plain.HasExplicitLicense)
	assert.Equal(t, "Commercial License through ViralHog", plain.LicenseType)
	require.NotNil(t, plain.LicensingContact)
	assert.Equal(t, "licensing@viralhog.com", *plain.LicensingContact)

	t.Run("Fenced JSON parses identically", func(t *testing.T) {
		fenced, err := ParseLicenseAnalysis("```json\n" + sampleJSON + "\n```")
		require.NoError(t, err)
		assert.Equal(t, plain, fenced)
	})

	t.Run("Bare fences parse identically", func(t *testing.T) {
		fenced, err := ParseLicenseAnalysis("```" + sampleJSON + "```")
		require.NoError(t, err)
		assert.Equal(t, plain, fenced)
	})

	t.Run("Null contact and company", func(t *testing.T) {
		a, err := ParseLicenseAnalysis(`{"hasExplicitLicense":false,"licenseType":"","canUseCommercially":false,"requiresAttribution":false,"licensingContact":null,"licensingCompany":null,"notes":"No licensing info."}`)
		require.NoError(t, err)
		assert.Nil(t, a.LicensingContact)
		assert.Nil(t, a.LicensingCompany)
	})

	t.Run("Prose around JSON is rejected", func(t *testing.T) {
		_, err := ParseLicenseAnalysis("Here is the analysis: " + sampleJSON)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("Wrong field type is rejected", func(t *testing.T) {
		_, err := ParseLicenseAnalysis(`{"hasExplicitLicense":"yes"}`)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("Truncated JSON is rejected", func(t *testing.T) {
		_, err := ParseLicenseAnalysis(`{"hasExplicitLicense": true,`)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"No fences", `{"a":1}`, `{"a":1}`},
		{"JSON fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"Surrounding whitespace", "  \n```json {\"a\":1} ```  \n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripCodeFences(tt.input))
		})
	}
}

func TestBuildLicensePrompt(t *testing.T) {
	meta := &models.VideoMetadata{Title: "Skater falls", Description: "For licensing contact licensing@newsflare.com"}
	prompt := BuildLicensePrompt(meta)

	assert.Contains(t, prompt, "Title: Skater falls")
	assert.Contains(t, prompt, "Description: For licensing contact licensing@newsflare.com")
	for _, field := range []string{
		"hasExplicitLicense", "licenseType", "canUseCommercially",
		"requiresAttribution", "licensingContact", "licensingCompany", "notes",
	} {
		assert.Contains(t, prompt, `"`+field+`"`)
	}
	assert.Equal(t, prompt, BuildLicensePrompt(meta), "prompt must be deterministic")
}

func TestAnalyzeLicense(t *testing.T) {
	meta := &models.VideoMetadata{Title: "t", Description: "d"}

	t.Run("Success", func(t *testing.T) {
		gen := &stubGenerator{text: "```json\n" + sampleJSON + "\n```"}
		a := &LicenseAnalyzer{models: gen, model: "gemini-2.5-flash"}

		analysis, err := a.AnalyzeLicense(context.Background(), meta)
		require.NoError(t, err)
		assert.Equal(t, "ViralHog", *analysis.LicensingCompany)
		assert.Equal(t, "gemini-2.5-flash", gen.model)
		assert.Equal(t, BuildLicensePrompt(meta), gen.prompt)
	})

	t.Run("Generation error", func(t *testing.T) {
		a := &LicenseAnalyzer{models: &stubGenerator{err: errors.New("RESOURCE_EXHAUSTED")}}
		_, err := a.AnalyzeLicense(context.Background(), meta)
		assert.ErrorContains(t, err, "RESOURCE_EXHAUSTED")
	})

	t.Run("Empty response", func(t *testing.T) {
		a := &LicenseAnalyzer{models: &stubGenerator{text: "  "}}
		_, err := a.AnalyzeLicense(context.Background(), meta)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("Malformed response", func(t *testing.T) {
		a := &LicenseAnalyzer{models: &stubGenerator{text: "I cannot determine licensing."}}
		_, err := a.AnalyzeLicense(context.Background(), meta)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("Nil metadata", func(t *testing.T) {
		a := &LicenseAnalyzer{models: &stubGenerator{}}
		_, err := a.AnalyzeLicense(context.Background(), nil)
		assert.Error(t, err)
	})
}
