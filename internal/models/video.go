package models

import (
	"encoding/json"
	"time"
)

// Platform identifies a supported video host.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
	PlatformTwitter Platform = "twitter"
)

// Platforms lists every supported platform in classification order.
var Platforms = []Platform{PlatformYouTube, PlatformTikTok, PlatformTwitter}

// VideoReference is built per input row. Platform and VideoID stay empty until
// classification and extraction succeed.
type VideoReference struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform,omitempty"`
	VideoID  string   `json:"videoId,omitempty"`
}

// VideoMetadata always carries both fields; missing upstream values are "".
type VideoMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// LicenseAnalysis mirrors the structured output requested from the model.
type LicenseAnalysis struct {
	HasExplicitLicense  bool    `json:"hasExplicitLicense"`
	LicenseType         string  `json:"licenseType"`
	CanUseCommercially  bool    `json:"canUseCommercially"`
	RequiresAttribution bool    `json:"requiresAttribution"`
	LicensingContact    *string `json:"licensingContact"`
	LicensingCompany    *string `json:"licensingCompany"`
	Notes               string  `json:"notes"`
}

// ResultRow is the outcome of one input row. A row either carries a full
// analysis or only URL and Error; there is no partial variant.
type ResultRow struct {
	Reference VideoReference
	Title     string
	Analysis  *LicenseAnalysis
	Error     string
}

// FailedRow builds the error variant.
func FailedRow(url, message string) ResultRow {
	return ResultRow{Reference: VideoReference{URL: url}, Error: message}
}

// Failed reports whether the row is the error variant.
func (r ResultRow) Failed() bool {
	return r.Analysis == nil
}

// Field is one named output value of a result row.
type Field struct {
	Name  string
	Value any
}

// Column names in canonical output order.
const (
	ColumnURL                 = "url"
	ColumnPlatform            = "platform"
	ColumnVideoID             = "videoId"
	ColumnTitle               = "title"
	ColumnHasExplicitLicense  = "hasExplicitLicense"
	ColumnLicenseType         = "licenseType"
	ColumnCanUseCommercially  = "canUseCommercially"
	ColumnRequiresAttribution = "requiresAttribution"
	ColumnLicensingContact    = "licensingContact"
	ColumnLicensingCompany    = "licensingCompany"
	ColumnNotes               = "notes"
	ColumnError               = "error"
)

// Columns is the canonical column order of the result sheet.
var Columns = []string{
	ColumnURL,
	ColumnPlatform,
	ColumnVideoID,
	ColumnTitle,
	ColumnHasExplicitLicense,
	ColumnLicenseType,
	ColumnCanUseCommercially,
	ColumnRequiresAttribution,
	ColumnLicensingContact,
	ColumnLicensingCompany,
	ColumnNotes,
	ColumnError,
}

// Fields flattens the row into its present fields, in canonical order.
// Nil licensing contact/company values are reported as nil.
func (r ResultRow) Fields() []Field {
	if r.Failed() {
		return []Field{
			{ColumnURL, r.Reference.URL},
			{ColumnError, r.Error},
		}
	}
	a := r.Analysis
	return []Field{
		{ColumnURL, r.Reference.URL},
		{ColumnPlatform, string(r.Reference.Platform)},
		{ColumnVideoID, r.Reference.VideoID},
		{ColumnTitle, r.Title},
		{ColumnHasExplicitLicense, a.HasExplicitLicense},
		{ColumnLicenseType, a.LicenseType},
		{ColumnCanUseCommercially, a.CanUseCommercially},
		{ColumnRequiresAttribution, a.RequiresAttribution},
		{ColumnLicensingContact, stringOrNil(a.LicensingContact)},
		{ColumnLicensingCompany, stringOrNil(a.LicensingCompany)},
		{ColumnNotes, a.Notes},
	}
}

// MarshalJSON writes the flattened union shape, e.g. {"url":..,"error":..}.
func (r ResultRow) MarshalJSON() ([]byte, error) {
	fields := r.Fields()
	buf := []byte{'{'}
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Batch is the ordered result of one pipeline invocation.
type Batch struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Rows      []ResultRow   `json:"rows"`
	Skipped   int           `json:"skipped"`
}

// Succeeded counts rows carrying a license analysis.
func (b *Batch) Succeeded() int {
	n := 0
	for _, r := range b.Rows {
		if !r.Failed() {
			n++
		}
	}
	return n
}

// Failed counts error rows.
func (b *Batch) Failed() int {
	return len(b.Rows) - b.Succeeded()
}

// DeliveryReport describes a processed workbook for email delivery.
type DeliveryReport struct {
	Date       time.Time `json:"date"`
	SourceName string    `json:"source_name"`
	OutputName string    `json:"output_name"`
	Batch      *Batch    `json:"batch"`
}
