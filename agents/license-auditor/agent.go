package licenseauditor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"video-license-agent/agents/license-auditor/batch"
	"video-license-agent/agents/license-auditor/metadata"
	"video-license-agent/internal/models"
	"video-license-agent/shared/ai"
	"video-license-agent/shared/config"
	"video-license-agent/shared/email"
	"video-license-agent/shared/scheduler"
	"video-license-agent/shared/storage"
)

const outputSuffix = "-license-analysis.xlsx"

// WorkbookProcessor turns an input workbook into a result workbook.
type WorkbookProcessor interface {
	ProcessWorkbook(ctx context.Context, input []byte) ([]byte, *models.Batch, error)
}

type resultSender interface {
	SendResults(report *models.DeliveryReport, workbook []byte) error
}

// LicenseAgent implements the scheduler.Agent interface
type LicenseAgent struct {
	config      *config.Config
	processor   WorkbookProcessor
	tracker     *storage.WorkbookTracker
	emailSender resultSender
}

// LicenseMetrics tracks the outcome of one inbox sweep
type LicenseMetrics struct {
	Workbooks int
	Rows      int
	Failed    int
	Skipped   int
	Errors    int
}

func (m LicenseMetrics) GetSummary() string {
	return fmt.Sprintf("processed %d workbooks, %d rows (%d failed)", m.Workbooks, m.Rows, m.Failed)
}

func NewLicenseAgent(cfg *config.Config) *LicenseAgent {
	return &LicenseAgent{config: cfg}
}

func (a *LicenseAgent) Name() string {
	return "License Auditor"
}

// NewProcessor wires the platform fetchers and the Gemini analyzer into a
// batch processor. A platform without credentials stays registered and fails
// its rows with the configuration error.
func NewProcessor(ctx context.Context, cfg *config.Config) (*batch.Processor, error) {
	timeout := cfg.Batch.HTTPTimeout()

	var youtube metadata.Fetcher
	yt, err := metadata.NewYouTubeFetcher(ctx, &cfg.YouTube, timeout)
	if err != nil {
		log.Warn().Err(err).Msg("YouTube metadata unavailable")
		youtube = metadata.Unavailable(err)
	} else {
		youtube = yt
	}

	registry := metadata.Registry{
		models.PlatformYouTube: youtube,
		models.PlatformTikTok:  metadata.NewTikTokFetcher(&cfg.TikTok, timeout),
		models.PlatformTwitter: metadata.NewTwitterFetcher(&cfg.Twitter, timeout),
	}

	analyzer, err := ai.NewLicenseAnalyzer(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create license analyzer: %w", err)
	}

	return batch.NewProcessor(registry, analyzer, batch.Options{
		Concurrency:       cfg.Batch.Concurrency,
		RequestsPerSecond: cfg.Batch.RequestsPerSecond,
		RowTimeout:        cfg.Batch.RowTimeout(),
	}), nil
}

func (a *LicenseAgent) Initialize() error {
	log.Info().Msgf("Initializing %s...", a.Name())

	if a.processor == nil {
		processor, err := NewProcessor(context.Background(), a.config)
		if err != nil {
			return err
		}
		a.processor = processor
		log.Info().Int("concurrency", a.config.Batch.Concurrency).Msg("Batch processor initialized")
	}

	if a.tracker == nil {
		maxAge := time.Duration(a.config.Inbox.TrackDays) * 24 * time.Hour
		tracker, err := storage.NewWorkbookTracker(a.config.Inbox.DataDir, maxAge)
		if err != nil {
			return fmt.Errorf("failed to create workbook tracker: %w", err)
		}
		a.tracker = tracker
		log.Info().Int("tracked", tracker.Count()).Msg("Workbook tracker initialized")
	}

	if a.emailSender == nil && a.config.Email.Enabled() {
		a.emailSender = email.NewSender(&a.config.Email)
		log.Info().Msg("Email sender initialized")
	}

	for _, dir := range []string{a.config.Inbox.Dir, a.config.Inbox.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// RunOnce processes every new workbook in the inbox.
func (a *LicenseAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	pending, err := a.pendingWorkbooks()
	if err != nil {
		return err
	}

	metrics := LicenseMetrics{}
	if len(pending) == 0 {
		log.Debug().Str("dir", a.config.Inbox.Dir).Msg("No new workbooks in inbox")
		events.OnSuccess(metrics, time.Since(startTime))
		return nil
	}

	log.Info().Int("workbooks", len(pending)).Msg("Found new workbooks")

	for _, wb := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b, err := a.processFile(ctx, wb)
		if err != nil {
			log.Error().Err(err).Str("workbook", wb.name).Msg("Failed to process workbook")
			metrics.Errors++
			continue
		}

		metrics.Workbooks++
		metrics.Rows += len(b.Rows)
		metrics.Failed += b.Failed()
		metrics.Skipped += b.Skipped
	}

	duration := time.Since(startTime)
	if metrics.Workbooks == 0 {
		return fmt.Errorf("all %d workbooks failed", metrics.Errors)
	}
	if metrics.Errors > 0 {
		events.OnPartialFailure(fmt.Errorf("%d of %d workbooks failed", metrics.Errors, len(pending)), duration)
	}
	events.OnSuccess(metrics, duration)

	return nil
}

type inboxWorkbook struct {
	name string
	data []byte
	hash string
}

func (a *LicenseAgent) pendingWorkbooks() ([]inboxWorkbook, error) {
	entries, err := os.ReadDir(a.config.Inbox.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var pending []inboxWorkbook
	for _, entry := range entries {
		name := entry.Name()
		// Skip office lock files
		if entry.IsDir() || strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(a.config.Inbox.Dir, name))
		if err != nil {
			log.Warn().Err(err).Str("workbook", name).Msg("Failed to read workbook")
			continue
		}

		hash := storage.ContentHash(data)
		if a.tracker.IsProcessed(hash) {
			continue
		}
		pending = append(pending, inboxWorkbook{name: name, data: data, hash: hash})
	}
	return pending, nil
}

func (a *LicenseAgent) processFile(ctx context.Context, wb inboxWorkbook) (*models.Batch, error) {
	out, b, err := a.processor.ProcessWorkbook(ctx, wb.data)
	if err != nil {
		return nil, err
	}

	outputName := strings.TrimSuffix(wb.name, filepath.Ext(wb.name)) + outputSuffix
	outputPath := filepath.Join(a.config.Inbox.OutputDir, outputName)
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}

	log.Info().
		Str("workbook", wb.name).
		Str("output", outputPath).
		Str("batch_id", b.ID).
		Int("rows", len(b.Rows)).
		Int("failed", b.Failed()).
		Msg("Workbook analyzed")

	if a.emailSender != nil {
		report := &models.DeliveryReport{
			Date:       time.Now(),
			SourceName: wb.name,
			OutputName: outputName,
			Batch:      b,
		}
		// Results are already on disk
		if err := a.emailSender.SendResults(report, out); err != nil {
			log.Warn().Err(err).Str("workbook", wb.name).Msg("Failed to email results")
		}
	}

	if err := a.tracker.MarkProcessed(wb.hash, wb.name, b.ID); err != nil {
		log.Warn().Err(err).Str("workbook", wb.name).Msg("Failed to mark workbook as processed")
	}

	return b, nil
}
