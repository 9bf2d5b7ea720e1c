package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// WorkbookTracker remembers which inbox workbooks were already processed so a
// scheduled sweep does not analyze the same file twice.
type WorkbookTracker struct {
	filePath  string
	processed map[string]TrackedWorkbook
	mu        sync.RWMutex
	maxAge    time.Duration
}

// TrackedWorkbook records one processed workbook.
type TrackedWorkbook struct {
	Hash        string    `json:"hash"`
	Name        string    `json:"name"`
	BatchID     string    `json:"batch_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ContentHash returns the tracker key for workbook bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewWorkbookTracker creates a tracker persisted under dataDir.
func NewWorkbookTracker(dataDir string, maxAge time.Duration) (*WorkbookTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &WorkbookTracker{
		filePath:  filepath.Join(dataDir, "processed_workbooks.json"),
		processed: make(map[string]TrackedWorkbook),
		maxAge:    maxAge,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load workbook tracker data: %w", err)
	}

	tracker.cleanup()

	return tracker, nil
}

// IsProcessed reports whether a workbook with this hash was processed within maxAge.
func (wt *WorkbookTracker) IsProcessed(hash string) bool {
	wt.mu.RLock()
	defer wt.mu.RUnlock()

	entry, exists := wt.processed[hash]
	if !exists {
		return false
	}
	return time.Since(entry.ProcessedAt) < wt.maxAge
}

// MarkProcessed records a processed workbook and persists the tracker.
func (wt *WorkbookTracker) MarkProcessed(hash, name, batchID string) error {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	wt.processed[hash] = TrackedWorkbook{
		Hash:        hash,
		Name:        name,
		BatchID:     batchID,
		ProcessedAt: time.Now(),
	}
	return wt.save()
}

// Count returns the number of tracked workbooks.
func (wt *WorkbookTracker) Count() int {
	wt.mu.RLock()
	defer wt.mu.RUnlock()
	return len(wt.processed)
}

func (wt *WorkbookTracker) cleanup() {
	cutoff := time.Now().Add(-wt.maxAge)

	for hash, entry := range wt.processed {
		if entry.ProcessedAt.Before(cutoff) {
			delete(wt.processed, hash)
		}
	}
}

func (wt *WorkbookTracker) load() error {
	file, err := os.Open(wt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open tracker file: %w", err)
	}
	defer file.Close()

	var entries []TrackedWorkbook
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}

	for _, e := range entries {
		wt.processed[e.Hash] = e
	}
	return nil
}

func (wt *WorkbookTracker) save() error {
	entries := make([]TrackedWorkbook, 0, len(wt.processed))
	for _, e := range wt.processed {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.Before(entries[j].ProcessedAt)
	})

	file, err := os.Create(wt.filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
