// Package batch runs the per-row license enrichment pipeline over a workbook.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"video-license-agent/agents/license-auditor/platform"
	"video-license-agent/internal/models"
	"video-license-agent/shared/spreadsheet"
)

// Row error messages recorded in the output.
const (
	ErrUnsupportedPlatform = "Unsupported platform"
	ErrInvalidVideoURL     = "Invalid video URL"
	ErrUnknown             = "Unknown error"
)

// MetadataFetcher resolves title and description for a platform video.
type MetadataFetcher interface {
	Fetch(ctx context.Context, p models.Platform, videoID string) (*models.VideoMetadata, error)
}

// LicenseAnalyzer turns video text into a license analysis.
type LicenseAnalyzer interface {
	AnalyzeLicense(ctx context.Context, meta *models.VideoMetadata) (*models.LicenseAnalysis, error)
}

type Options struct {
	// Concurrency > 1 processes rows in parallel. Output order and per-row
	// isolation are the same as sequential mode.
	Concurrency int
	// RequestsPerSecond paces upstream calls across all rows; 0 disables pacing.
	RequestsPerSecond float64
	// RowTimeout bounds one row's fetch and analysis; 0 means no deadline.
	RowTimeout time.Duration
}

type Processor struct {
	fetcher     MetadataFetcher
	analyzer    LicenseAnalyzer
	limiter     *rate.Limiter
	concurrency int
	rowTimeout  time.Duration
}

func NewProcessor(fetcher MetadataFetcher, analyzer LicenseAnalyzer, opts Options) *Processor {
	p := &Processor{
		fetcher:     fetcher,
		analyzer:    analyzer,
		concurrency: opts.Concurrency,
		rowTimeout:  opts.RowTimeout,
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	if opts.RequestsPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return p
}

// ProcessBatch reads a workbook, analyzes every URL row and returns the result
// workbook. Row failures are recorded in the output; only an unreadable input
// or output workbook is returned as an error.
func (p *Processor) ProcessBatch(ctx context.Context, input []byte) ([]byte, error) {
	out, _, err := p.ProcessWorkbook(ctx, input)
	return out, err
}

// ProcessWorkbook is ProcessBatch that also returns the batch record.
func (p *Processor) ProcessWorkbook(ctx context.Context, input []byte) ([]byte, *models.Batch, error) {
	cells, err := spreadsheet.ReadFirstColumn(input)
	if err != nil {
		return nil, nil, err
	}

	b := p.Process(ctx, cells)

	out, err := spreadsheet.WriteResults(b.Rows)
	if err != nil {
		return nil, b, fmt.Errorf("failed to write results for batch %s: %w", b.ID, err)
	}
	return out, b, nil
}

// Process runs the pipeline over the first-column cells. Cells that are blank
// or not strings are skipped without a result row.
func (p *Processor) Process(ctx context.Context, cells []spreadsheet.Cell) *models.Batch {
	b := &models.Batch{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	var urls []string
	for _, c := range cells {
		if !c.IsString || c.Value == "" {
			b.Skipped++
			continue
		}
		urls = append(urls, c.Value)
	}

	logger := log.With().Str("batch_id", b.ID).Logger()
	logger.Info().Int("rows", len(urls)).Int("skipped", b.Skipped).Int("concurrency", p.concurrency).Msg("Processing batch")

	b.Rows = make([]models.ResultRow, len(urls))
	if p.concurrency == 1 {
		for i, url := range urls {
			b.Rows[i] = p.ProcessRow(ctx, url)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(p.concurrency)
		for i, url := range urls {
			g.Go(func() error {
				b.Rows[i] = p.ProcessRow(ctx, url)
				return nil
			})
		}
		_ = g.Wait()
	}

	b.Duration = time.Since(b.StartedAt)
	logger.Info().
		Int("succeeded", b.Succeeded()).
		Int("failed", b.Failed()).
		Dur("duration", b.Duration).
		Msg("Batch complete")

	return b
}

// ProcessRow classifies, extracts, fetches and analyzes a single URL. Every
// failure is captured in the returned row.
func (p *Processor) ProcessRow(ctx context.Context, url string) models.ResultRow {
	host, ok := platform.Classify(url)
	if !ok {
		return p.fail(url, ErrUnsupportedPlatform)
	}

	videoID, ok := platform.ExtractID(host, url)
	if !ok {
		return p.fail(url, ErrInvalidVideoURL)
	}

	if p.rowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.rowTimeout)
		defer cancel()
	}

	if err := p.wait(ctx); err != nil {
		return p.fail(url, errorMessage(err))
	}
	meta, err := p.fetcher.Fetch(ctx, host, videoID)
	if err != nil {
		return p.fail(url, errorMessage(err))
	}

	if err := p.wait(ctx); err != nil {
		return p.fail(url, errorMessage(err))
	}
	analysis, err := p.analyzer.AnalyzeLicense(ctx, meta)
	if err != nil {
		return p.fail(url, errorMessage(err))
	}

	log.Debug().Str("url", url).Str("platform", string(host)).Str("video_id", videoID).Msg("Row analyzed")

	return models.ResultRow{
		Reference: models.VideoReference{URL: url, Platform: host, VideoID: videoID},
		Title:     meta.Title,
		Analysis:  analysis,
	}
}

func (p *Processor) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

func (p *Processor) fail(url, message string) models.ResultRow {
	log.Warn().Str("url", url).Str("error", message).Msg("Row failed")
	return models.FailedRow(url, message)
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return ErrUnknown
}
