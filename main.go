package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"trademe-scraper/browser"
	"trademe-scraper/config"
	"trademe-scraper/models"
	"trademe-scraper/scraper/trademe"
	"trademe-scraper/services"
	"trademe-scraper/storage"
	"trademe-scraper/utils"
)

func main() {
	listingType := flag.String("listing-type", "rental",
		"The type of listings to scrape: 'rental', 'sale', or 'all'")
	skipURLCollection := flag.Bool("skip-url-collection", false,
		"Skip collecting URLs and load them from the saved file instead")
	startPage := flag.Int("start-page", 1,
		"The search results page number to start collecting URLs from")
	maxPages := flag.Int("max-pages", 1000,
		"Maximum number of search result pages per listing type (0 = no limit)")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	categories, ok := resolveCategories(*listingType)
	if !ok {
		logger.Error("Invalid -listing-type %q (want rental, sale, or all)", *listingType)
		os.Exit(2)
	}

	logger.Info("=== Trade Me Property Scraping System starting ===")
	logger.Info("Config - categories: %v | concurrency: %d | save interval: %d | output: %s",
		categories, cfg.MaxConcurrency, cfg.SaveInterval, cfg.OutputDir)

	store, err := storage.NewCheckpointStore(cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to create checkpoint store: %v", err)
		os.Exit(1)
	}
	artifacts, err := storage.NewArtifactStore(cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to create artifact store: %v", err)
		os.Exit(1)
	}

	// SIGINT stops before the next chunk; already-checkpointed state stays
	// on disk. In-flight listings not yet folded are lost.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	allocator := browser.NewAllocator(ctx, cfg.Headless, cfg.ChromeBin)
	defer allocator.Close()

	var sink storage.RecordWriter
	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("PostgreSQL unavailable, continuing with CSV only: %v", err)
		} else {
			defer pgWriter.Close()
			sink = pgWriter
		}
	}

	scraper := trademe.New(cfg, logger, allocator, store, artifacts)
	sanitizer := services.NewSanitizer(logger)
	reporter := services.NewReportService(logger)

	opts := trademe.RunOptions{
		SkipURLCollection: *skipURLCollection,
		StartPage:         *startPage,
		MaxPages:          *maxPages,
	}

	exitCode := 0
	for _, category := range categories {
		state, err := scraper.Run(ctx, category, opts)
		if err != nil {
			logger.Error("[%s] scrape ended with error: %v", category, err)
			exitCode = 1
		}

		records := sanitizer.Sanitize(state.Records())
		finalizeCategory(logger, store, sink, category, records, state.Failed())
		reporter.Print(reporter.Generate(category, records, state.Failed()))

		if ctx.Err() != nil {
			logger.Warn("Interrupted - skipping remaining categories")
			exitCode = 1
			break
		}
	}

	os.Exit(exitCode)
}

func finalizeCategory(logger *utils.Logger, store *storage.CheckpointStore, sink storage.RecordWriter, category models.Category, records []models.Record, failed []string) {
	path, err := store.ExportFinal(category, records)
	if err != nil {
		logger.Error("[%s] final export failed: %v", category, err)
	} else {
		logger.Info("[%s] %d listings saved to %s", category, len(records), path)
	}

	if len(failed) > 0 {
		failedPath, err := store.SaveFailed(category, failed)
		if err != nil {
			logger.Error("[%s] writing failed-URL list: %v", category, err)
		} else {
			logger.Warn("[%s] %d failed listings saved to %s", category, len(failed), failedPath)
		}
	} else {
		logger.Info("[%s] no failed listings", category)
	}

	if sink != nil {
		if err := sink.Write(records); err != nil {
			logger.Error("[%s] PostgreSQL write failed: %v", category, err)
		} else {
			logger.Info("[%s] records stored in PostgreSQL (table: listings)", category)
		}
	}
}

func resolveCategories(listingType string) ([]models.Category, bool) {
	switch listingType {
	case "all":
		return []models.Category{models.CategoryRental, models.CategorySale}, true
	default:
		category := models.Category(listingType)
		if !category.Valid() {
			return nil, false
		}
		return []models.Category{category}, true
	}
}
