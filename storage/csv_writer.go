package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trademe-scraper/models"
)

// The snapshot schema is category-scoped: the common columns plus that
// category's fields only. The other category's columns never appear.
var commonColumns = []string{
	"listing_id", "list_date", "status", "address", "suburb", "city",
	"region", "agency_name", "property_type", "bedrooms", "bathrooms",
	"parking_spaces", "source_site", "url", "scraped_at", "description",
	"page_views",
}

var rentalColumns = append(append([]string{}, commonColumns...),
	"agent_name", "rent_nzd", "rent_period")

var saleColumns = append(append([]string{}, commonColumns...),
	"agent_names", "sale_type", "ask_price_nzd", "cv_nzd",
	"estimate_low_nzd", "estimate_high_nzd")

// agentNamesSeparator joins a sale listing's ordered agent names into one
// CSV cell.
const agentNamesSeparator = "|"

// Columns returns the CSV header for a category's snapshot and export files.
func Columns(category models.Category) []string {
	if category == models.CategorySale {
		return saleColumns
	}
	return rentalColumns
}

// WriteRecordsCSV rewrites the file at path with the full record set. Each
// save is a complete rewrite, not an append. Intermediate directories are
// created automatically.
func WriteRecordsCSV(path string, category models.Category, records []models.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns(category)); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range records {
		if r.Category() != category {
			continue
		}
		if err := w.Write(rowFor(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadRecordsCSV reads a category snapshot back into typed records. Field
// parsing is best-effort: malformed cells fall back to defaults rather than
// failing the load.
func ReadRecordsCSV(path string, category models.Category) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		index[col] = i
	}

	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := recordFromRow(category, index, row)
		if rec.Common().URL == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func rowFor(r models.Record) []string {
	c := r.Common()
	row := []string{
		c.ListingID,
		c.ListDate,
		c.Status,
		c.Address,
		c.Suburb,
		c.City,
		c.Region,
		c.AgencyName,
		c.PropertyType,
		strconv.Itoa(c.Bedrooms),
		strconv.Itoa(c.Bathrooms),
		strconv.Itoa(c.ParkingSpaces),
		c.SourceSite,
		c.URL,
		c.ScrapedAt.Format(time.RFC3339),
		c.Description,
		formatOptionalInt(c.PageViews),
	}

	switch l := r.(type) {
	case *models.RentalListing:
		row = append(row, l.AgentName, formatOptionalInt64(l.RentNZD), l.RentPeriod)
	case *models.SaleListing:
		row = append(row,
			strings.Join(l.AgentNames, agentNamesSeparator),
			l.SaleType,
			formatOptionalInt64(l.AskPriceNZD),
			formatOptionalInt64(l.CapitalValueNZD),
			formatOptionalInt64(l.EstimateLowNZD),
			formatOptionalInt64(l.EstimateHighNZD),
		)
	}
	return row
}

func recordFromRow(category models.Category, index map[string]int, row []string) models.Record {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	common := models.ListingCommon{
		ListingID:     cell("listing_id"),
		ListDate:      cell("list_date"),
		Status:        cell("status"),
		Address:       cell("address"),
		Suburb:        cell("suburb"),
		City:          cell("city"),
		Region:        cell("region"),
		AgencyName:    cell("agency_name"),
		PropertyType:  cell("property_type"),
		Bedrooms:      parseIntCell(cell("bedrooms")),
		Bathrooms:     parseIntCell(cell("bathrooms")),
		ParkingSpaces: parseIntCell(cell("parking_spaces")),
		SourceSite:    cell("source_site"),
		URL:           cell("url"),
		Description:   cell("description"),
		PageViews:     parseOptionalInt(cell("page_views")),
	}
	if ts, err := time.Parse(time.RFC3339, cell("scraped_at")); err == nil {
		common.ScrapedAt = ts
	}

	if category == models.CategorySale {
		sale := &models.SaleListing{
			ListingCommon:   common,
			SaleType:        cell("sale_type"),
			AskPriceNZD:     parseOptionalInt64(cell("ask_price_nzd")),
			CapitalValueNZD: parseOptionalInt64(cell("cv_nzd")),
			EstimateLowNZD:  parseOptionalInt64(cell("estimate_low_nzd")),
			EstimateHighNZD: parseOptionalInt64(cell("estimate_high_nzd")),
		}
		if names := cell("agent_names"); names != "" {
			sale.AgentNames = strings.Split(names, agentNamesSeparator)
		}
		return sale
	}

	return &models.RentalListing{
		ListingCommon: common,
		AgentName:     cell("agent_name"),
		RentNZD:       parseOptionalInt64(cell("rent_nzd")),
		RentPeriod:    cell("rent_period"),
	}
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptionalInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func parseIntCell(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseOptionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseOptionalInt64(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
