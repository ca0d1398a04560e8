package services

import (
	"fmt"
	"sort"
	"strings"

	"trademe-scraper/models"
	"trademe-scraper/utils"
)

// ReportService computes a summary over one category's final record set.
type ReportService struct {
	logger *utils.Logger
}

// NewReportService creates a ReportService with the given logger.
func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate builds the crawl report. Price statistics cover weekly rent for
// rentals and the ask price for sales; records without a figure are skipped.
func (s *ReportService) Generate(category models.Category, records []models.Record, failed []string) *models.CrawlReport {
	report := &models.CrawlReport{
		Category:         category,
		TotalListings:    len(records),
		FailedListings:   len(failed),
		ListingsByRegion: make(map[string]int),
	}
	if len(records) == 0 {
		return report
	}

	var bedroomTotal int
	var priceTotal, priceCount int64
	for _, r := range records {
		c := r.Common()
		bedroomTotal += c.Bedrooms
		if c.Region != "" {
			report.ListingsByRegion[c.Region]++
		}

		price := priceOf(r)
		if price == nil {
			continue
		}
		if priceCount == 0 || *price < report.MinPriceNZD {
			report.MinPriceNZD = *price
		}
		if *price > report.MaxPriceNZD {
			report.MaxPriceNZD = *price
		}
		priceTotal += *price
		priceCount++

		if sale, ok := r.(*models.SaleListing); ok {
			if sale.EstimateLowNZD != nil && sale.EstimateHighNZD != nil {
				report.WithEstimate++
			}
		}
	}

	report.AverageBedrooms = round2(float64(bedroomTotal) / float64(len(records)))
	if priceCount > 0 {
		report.AveragePriceNZD = round2(float64(priceTotal) / float64(priceCount))
	}
	return report
}

func priceOf(r models.Record) *int64 {
	switch l := r.(type) {
	case *models.RentalListing:
		return l.RentNZD
	case *models.SaleListing:
		return l.AskPriceNZD
	}
	return nil
}

// Print renders the report to stdout.
func (s *ReportService) Print(r *models.CrawlReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	priceLabel := "Ask price"
	if r.Category == models.CategoryRental {
		priceLabel = "Weekly rent"
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  TRADE ME %s CRAWL SUMMARY\033[0m\n", strings.ToUpper(string(r.Category)))
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings scraped : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Failed listings  : \033[1m%d\033[0m\n", r.FailedListings)
	fmt.Printf("  Avg bedrooms     : \033[1m%.2f\033[0m\n", r.AverageBedrooms)
	if r.Category == models.CategorySale {
		fmt.Printf("  With estimate    : \033[1m%d\033[0m\n", r.WithEstimate)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  %s (NZD)\033[0m\n", priceLabel)
	fmt.Printf("  %s\n", thin)
	if r.AveragePriceNZD > 0 {
		fmt.Printf("  Average : \033[1;32m$%.2f\033[0m\n", r.AveragePriceNZD)
		fmt.Printf("  Minimum : \033[1;32m$%d\033[0m\n", r.MinPriceNZD)
		fmt.Printf("  Maximum : \033[1;32m$%d\033[0m\n", r.MaxPriceNZD)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by Region\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ListingsByRegion) == 0 {
		fmt.Printf("  No region data\n")
	} else {
		type regionCount struct {
			region string
			count  int
		}
		var regions []regionCount
		for region, cnt := range r.ListingsByRegion {
			regions = append(regions, regionCount{region, cnt})
		}
		sort.Slice(regions, func(i, j int) bool {
			if regions[i].count != regions[j].count {
				return regions[i].count > regions[j].count
			}
			return regions[i].region < regions[j].region
		})
		for _, rc := range regions {
			bar := strings.Repeat("█", rc.count)
			fmt.Printf("  %-30s %s (%d)\n", truncate(rc.region, 28), bar, rc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
