package trademe

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"trademe-scraper/models"
)

const (
	siteOrigin = "https://www.trademe.co.nz"

	rentalSearchBase = siteOrigin + "/a/property/residential/rent/search"
	saleSearchBase   = siteOrigin + "/a/property/residential/sale/search"
)

// SearchURL builds the search-results URL for a category and 1-based page.
func SearchURL(category models.Category, page int) string {
	base := rentalSearchBase
	if category == models.CategorySale {
		base = saleSearchBase
	}
	return fmt.Sprintf("%s?page=%d", base, page)
}

// NormalizeURL canonicalizes a listing URL so identical listings compare
// equal regardless of how they were discovered: the legacy /property/ path
// prefix is rewritten to /a/property/, and the query string and fragment are
// stripped (they carry tracking and search-session parameters only).
// Total and idempotent: on a parse error the input is returned unchanged.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.HasPrefix(u.Path, "/property/") {
		u.Path = "/a" + u.Path
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// ResolveURL resolves a (possibly relative) card href against the site
// origin. On a parse error the href is returned unchanged.
func ResolveURL(href string) string {
	base, err := url.Parse(siteOrigin)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

var listingIDRe = regexp.MustCompile(`/listing/(\d+)`)

// ListingIDFromURL extracts the numeric listing identifier from the URL
// path, or "" when the path carries none.
func ListingIDFromURL(listingURL string) string {
	m := listingIDRe.FindStringSubmatch(listingURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// LocationFromURL decomposes a listing URL of the shape
// /a/property/residential/{rent|sale}/{region}/{city}/{suburb}/listing/…
// into its positional segments, titleizing hyphenated words. All three are
// empty when the path does not match that shape.
func LocationFromURL(listingURL string) (region, city, suburb string) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", "", ""
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 7 || (parts[3] != "rent" && parts[3] != "sale") {
		return "", "", ""
	}
	return titleize(parts[4]), titleize(parts[5]), titleize(parts[6])
}

func titleize(segment string) string {
	words := strings.Fields(strings.ReplaceAll(segment, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
