package services

import (
	"testing"

	"trademe-scraper/models"
	"trademe-scraper/utils"
)

func rentalWith(url, address string, rent int64) *models.RentalListing {
	return &models.RentalListing{
		ListingCommon: models.ListingCommon{URL: url, Address: address},
		RentNZD:       &rent,
	}
}

func TestSanitizeDropsEmptyURL(t *testing.T) {
	svc := NewSanitizer(utils.NewLogger())
	in := []models.Record{
		rentalWith("", "1 No Street", 400),
		rentalWith("   ", "2 Blank Street", 450),
		rentalWith("https://example.com/a", "3 Kept Street", 500),
	}

	out := svc.Sanitize(in)
	if len(out) != 1 {
		t.Fatalf("records: got %d, want 1", len(out))
	}
	if out[0].Common().URL != "https://example.com/a" {
		t.Errorf("kept URL: got %q", out[0].Common().URL)
	}
}

func TestSanitizeDeduplicatesLastWriteWins(t *testing.T) {
	svc := NewSanitizer(utils.NewLogger())
	in := []models.Record{
		rentalWith("https://example.com/a", "Old Address", 400),
		rentalWith("https://example.com/b", "Other", 450),
		rentalWith("https://example.com/a", "New Address", 500),
	}

	out := svc.Sanitize(in)
	if len(out) != 2 {
		t.Fatalf("records: got %d, want 2", len(out))
	}
	// Position is first-seen, content is last-write.
	if out[0].Common().Address != "New Address" {
		t.Errorf("address: got %q, want %q", out[0].Common().Address, "New Address")
	}
}

func TestSanitizeNormalizesWhitespace(t *testing.T) {
	svc := NewSanitizer(utils.NewLogger())
	rental := rentalWith("https://example.com/a", "  12   Example\tStreet  ", 500)
	rental.AgentName = " Jordan   Smith "
	rental.AgencyName = "Example \n Realty"
	rental.Description = "  Sunny and warm.  "

	out := svc.Sanitize([]models.Record{rental})
	got := out[0].(*models.RentalListing)
	if got.Address != "12 Example Street" {
		t.Errorf("Address: got %q", got.Address)
	}
	if got.AgentName != "Jordan Smith" {
		t.Errorf("AgentName: got %q", got.AgentName)
	}
	if got.AgencyName != "Example Realty" {
		t.Errorf("AgencyName: got %q", got.AgencyName)
	}
	if got.Description != "Sunny and warm." {
		t.Errorf("Description: got %q", got.Description)
	}
}

func TestSanitizeScrubsSaleAgentNames(t *testing.T) {
	svc := NewSanitizer(utils.NewLogger())
	sale := &models.SaleListing{
		ListingCommon: models.ListingCommon{URL: "https://example.com/s"},
		AgentNames:    []string{" Jordan  Smith ", "   ", "Alex Brown"},
	}

	out := svc.Sanitize([]models.Record{sale})
	got := out[0].(*models.SaleListing)
	if len(got.AgentNames) != 2 {
		t.Fatalf("AgentNames: got %v, want 2 cleaned names", got.AgentNames)
	}
	if got.AgentNames[0] != "Jordan Smith" || got.AgentNames[1] != "Alex Brown" {
		t.Errorf("AgentNames: got %v", got.AgentNames)
	}
}

func TestSanitizeEmptyInput(t *testing.T) {
	svc := NewSanitizer(utils.NewLogger())
	if out := svc.Sanitize(nil); len(out) != 0 {
		t.Errorf("got %d records, want 0", len(out))
	}
}
