package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trademe-scraper/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cs, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	records := []models.Record{sampleRental()}
	if err := cs.SaveSnapshot(models.CategoryRental, records); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := cs.LoadSnapshot(models.CategoryRental)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded: got %d, want 1", len(loaded))
	}
	if loaded[0].Common().URL != records[0].Common().URL {
		t.Errorf("URL: got %q, want %q", loaded[0].Common().URL, records[0].Common().URL)
	}
}

func TestLoadSnapshotMissingStartsFresh(t *testing.T) {
	cs, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	records, err := cs.LoadSnapshot(models.CategorySale)
	if err != nil {
		t.Errorf("missing snapshot should not error, got %v", err)
	}
	if records != nil {
		t.Errorf("missing snapshot should yield no records, got %d", len(records))
	}
}

func TestSnapshotsAreCategoryIsolated(t *testing.T) {
	cs, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := cs.SaveSnapshot(models.CategoryRental, []models.Record{sampleRental()}); err != nil {
		t.Fatalf("save rental: %v", err)
	}
	if err := cs.SaveSnapshot(models.CategorySale, []models.Record{sampleSale()}); err != nil {
		t.Fatalf("save sale: %v", err)
	}

	rentals, _ := cs.LoadSnapshot(models.CategoryRental)
	sales, _ := cs.LoadSnapshot(models.CategorySale)
	if len(rentals) != 1 || len(sales) != 1 {
		t.Fatalf("got %d rentals and %d sales, want 1 each", len(rentals), len(sales))
	}
	if _, ok := rentals[0].(*models.RentalListing); !ok {
		t.Errorf("rental snapshot type: got %T", rentals[0])
	}
	if _, ok := sales[0].(*models.SaleListing); !ok {
		t.Errorf("sale snapshot type: got %T", sales[0])
	}
}

func TestURLListRoundTrip(t *testing.T) {
	cs, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	urls := []string{"https://example.com/1", "https://example.com/2"}
	if err := cs.SaveURLList(models.CategoryRental, urls); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := cs.LoadURLList(models.CategoryRental)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != urls[0] || loaded[1] != urls[1] {
		t.Errorf("loaded: got %v, want %v", loaded, urls)
	}
}

func TestSaveFailedWritesOneURLPerLine(t *testing.T) {
	dir := t.TempDir()
	cs, err := NewCheckpointStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := cs.SaveFailed(models.CategorySale, []string{"https://example.com/x", "https://example.com/y"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "failed_sale_listings.txt" {
		t.Errorf("path: got %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("lines: got %d, want 2", len(lines))
	}
}

func TestExportFinalPath(t *testing.T) {
	cs, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := cs.ExportFinal(models.CategoryRental, []models.Record{sampleRental()})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "trademe_rental_listings_final.csv" {
		t.Errorf("path: got %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file should exist: %v", err)
	}
}
