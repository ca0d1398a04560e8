package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeKeyRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ArtifactStore persists failure diagnostics - a full-page screenshot and
// the raw page markup - keyed by a sanitized identifier derived from the
// listing URL plus a timestamp, for offline diagnosis.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the artifact directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("artifacts: create dir %q: %w", dir, err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Save writes <key>_<timestamp>.png and .html for the failed listing.
// Either artifact may be empty (e.g. the screenshot itself failed); empty
// artifacts are skipped rather than written as zero-byte files.
func (a *ArtifactStore) Save(listingURL string, screenshot []byte, markup string, at time.Time) error {
	key := fmt.Sprintf("%s_%s", sanitizeKey(listingURL), at.Format("20060102_150405"))

	if len(screenshot) > 0 {
		path := filepath.Join(a.dir, key+".png")
		if err := os.WriteFile(path, screenshot, 0644); err != nil {
			return fmt.Errorf("artifacts: write screenshot: %w", err)
		}
	}
	if markup != "" {
		path := filepath.Join(a.dir, key+".html")
		if err := os.WriteFile(path, []byte(markup), 0644); err != nil {
			return fmt.Errorf("artifacts: write markup: %w", err)
		}
	}
	return nil
}

// sanitizeKey turns the last URL path segment into a filesystem-safe key.
func sanitizeKey(listingURL string) string {
	tail := listingURL
	if i := strings.LastIndex(listingURL, "/"); i >= 0 {
		tail = listingURL[i+1:]
	}
	if tail == "" {
		tail = "listing"
	}
	return unsafeKeyRe.ReplaceAllString(tail, "_")
}
