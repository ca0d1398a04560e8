package services

import (
	"strings"
	"unicode"

	"trademe-scraper/models"
	"trademe-scraper/utils"
)

// Sanitizer normalizes accumulated records before final export: trims and
// collapses whitespace on free-text fields, drops records with no URL, and
// deduplicates by URL (last write wins, matching the crawl's overwrite
// semantics for re-scraped listings).
type Sanitizer struct {
	logger *utils.Logger
}

// NewSanitizer creates a Sanitizer with the given logger.
func NewSanitizer(logger *utils.Logger) *Sanitizer {
	return &Sanitizer{logger: logger}
}

// Sanitize processes records and returns the cleaned set in first-seen order.
func (s *Sanitizer) Sanitize(records []models.Record) []models.Record {
	index := make(map[string]int)
	result := make([]models.Record, 0, len(records))

	for _, r := range records {
		c := r.Common()
		c.URL = strings.TrimSpace(c.URL)
		if c.URL == "" {
			s.logger.Warn("[sanitize] dropping record with empty URL (id %s)", c.ListingID)
			continue
		}

		s.scrubRecord(r)

		if at, dup := index[c.URL]; dup {
			s.logger.Debug("[sanitize] duplicate URL overwritten: %s", c.URL)
			result[at] = r
			continue
		}
		index[c.URL] = len(result)
		result = append(result, r)
	}

	s.logger.Info("[sanitize] %d → %d records (dropped %d)",
		len(records), len(result), len(records)-len(result))
	return result
}

func (s *Sanitizer) scrubRecord(r models.Record) {
	c := r.Common()
	c.Address = normaliseText(c.Address)
	c.AgencyName = normaliseText(c.AgencyName)
	c.Description = strings.TrimSpace(c.Description)

	switch l := r.(type) {
	case *models.RentalListing:
		l.AgentName = normaliseText(l.AgentName)
	case *models.SaleListing:
		names := l.AgentNames[:0]
		for _, name := range l.AgentNames {
			if cleaned := normaliseText(name); cleaned != "" {
				names = append(names, cleaned)
			}
		}
		l.AgentNames = names
	}
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
