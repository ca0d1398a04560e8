package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"trademe-scraper/models"
)

// CheckpointStore persists the crawl's resumable state under one output
// directory: a category-scoped record snapshot (full rewrite per save), a
// newline-delimited discovered-URL list, and a newline-delimited failed-URL
// list. Safe for concurrent use.
type CheckpointStore struct {
	mu  sync.Mutex
	dir string
}

// NewCheckpointStore creates the output directory if needed.
func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("checkpoint: create dir %q: %w", dir, err)
	}
	return &CheckpointStore{dir: dir}, nil
}

func (cs *CheckpointStore) snapshotPath(category models.Category) string {
	return filepath.Join(cs.dir, fmt.Sprintf("temp_scraped_%s_data.csv", category))
}

func (cs *CheckpointStore) urlListPath(category models.Category) string {
	return filepath.Join(cs.dir, fmt.Sprintf("collected_%s_listing_urls.txt", category))
}

func (cs *CheckpointStore) failedPath(category models.Category) string {
	return filepath.Join(cs.dir, fmt.Sprintf("failed_%s_listings.txt", category))
}

func (cs *CheckpointStore) finalPath(category models.Category) string {
	return filepath.Join(cs.dir, fmt.Sprintf("trademe_%s_listings_final.csv", category))
}

// SaveSnapshot overwrites the category snapshot with the full current record
// list.
func (cs *CheckpointStore) SaveSnapshot(category models.Category, records []models.Record) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return WriteRecordsCSV(cs.snapshotPath(category), category, records)
}

// LoadSnapshot reloads the most recent snapshot. A missing snapshot is a
// normal start-fresh condition and returns no records and no error.
func (cs *CheckpointStore) LoadSnapshot(category models.Category) ([]models.Record, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	records, err := ReadRecordsCSV(cs.snapshotPath(category), category)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load snapshot: %w", err)
	}
	return records, nil
}

// ExportFinal writes the category's final tabular export and returns its
// path.
func (cs *CheckpointStore) ExportFinal(category models.Category, records []models.Record) (string, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	path := cs.finalPath(category)
	if err := WriteRecordsCSV(path, category, records); err != nil {
		return "", err
	}
	return path, nil
}

// SaveURLList persists the discovered-URL list for reuse across runs
// (skip-url-collection mode).
func (cs *CheckpointStore) SaveURLList(category models.Category, urls []string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return writeLines(cs.urlListPath(category), urls)
}

// LoadURLList reloads a previously saved discovered-URL list.
func (cs *CheckpointStore) LoadURLList(category models.Category) ([]string, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	f, err := os.Open(cs.urlListPath(category))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load url list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("checkpoint: read url list: %w", err)
	}
	return urls, nil
}

// SaveFailed persists the failed-URL list for manual or automated re-attempt
// in a later run. Returns the written path.
func (cs *CheckpointStore) SaveFailed(category models.Category, urls []string) (string, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	path := cs.failedPath(category)
	if err := writeLines(path, urls); err != nil {
		return "", err
	}
	return path, nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("checkpoint: write %q: %w", path, err)
		}
	}
	return w.Flush()
}
