package trademe

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"trademe-scraper/browser"
	"trademe-scraper/models"
	"trademe-scraper/utils"
)

// Selectors for the listing page. Any site-structure change lands here and
// in the crawler, never in the scheduler/checkpoint/orchestrator layers.
const (
	primarySelector = "h1[class*='tm-property-listing-body__location']"

	estimateContainerSelector = "div.tm-property-homes-pi-banner-homes-estimate__container-left"
	capitalValueSelector      = "div.tm-property-homes-pi-banner-capital-value__content"
)

// ErrPrimaryContentMissing marks an attempt where the page never rendered
// the primary heading/price block - a load or block failure, not a missing
// optional attribute.
var ErrPrimaryContentMissing = errors.New("primary listing content missing")

const enrichmentPollTimeout = 15 * time.Second

// listingSnapshot is the raw field bundle pulled out of a loaded listing
// page in a single in-page evaluation. Every field is collected null-safe so
// one absent DOM fragment never aborts extraction of the others.
type listingSnapshot struct {
	Address       string   `json:"address"`
	PriceText     string   `json:"priceText"`
	Features      []string `json:"features"`
	Description   string   `json:"description"`
	ListDateText  string   `json:"listDateText"`
	PageViewsText string   `json:"pageViewsText"`
	AgentNames    []string `json:"agentNames"`
	AgencyName    string   `json:"agencyName"`
}

const snapshotJS = `
(function() {
	var text = function(sel) {
		var el = document.querySelector(sel);
		return el && el.textContent ? el.textContent.trim() : '';
	};
	var texts = function(sel) {
		var out = [];
		var els = document.querySelectorAll(sel);
		for (var i = 0; i < els.length; i++) {
			var t = els[i].textContent ? els[i].textContent.trim() : '';
			if (t) out.push(t);
		}
		return out;
	};
	return {
		address: text("h1[class*='tm-property-listing-body__location']"),
		priceText: text("h2[class*='tm-property-listing-body__price']"),
		features: texts("ul.tm-property-listing-attributes__tag-list li"),
		description: text("div.tm-markdown"),
		listDateText: text("div[class*='tm-property-listing-body__date']"),
		pageViewsText: text("div.tm-property-listing__listing-metadata-page-views"),
		agentNames: texts("h3.pt-agent-summary__agent-name"),
		agencyName: text("h3.pt-agency-summary__agency-name")
	};
})()`

const showMoreJS = `
(function() {
	var el = document.querySelector('span.tm-property-listing-description__show-more-button-content');
	if (el) { el.click(); return true; }
	return false;
})()`

const estimateReadyJS = `
(function() {
	var el = document.querySelector('` + estimateContainerSelector + `');
	if (!el || !el.textContent) { return false; }
	var t = el.textContent;
	return t.indexOf('$') >= 0 || t.indexOf('K') >= 0 || t.indexOf('M') >= 0;
})()`

const estimateTextJS = `
(function() {
	var el = document.querySelector('` + estimateContainerSelector + ` p.p-h1') ||
	         document.querySelector('` + estimateContainerSelector + `');
	return el && el.textContent ? el.textContent.trim() : '';
})()`

const capitalValueTabJS = `
(function() {
	var links = document.querySelectorAll('a.o-tabs__tab-link');
	for (var i = 0; i < links.length; i++) {
		var t = (links[i].textContent || '').toLowerCase();
		if (t.indexOf('capital value') >= 0) { links[i].click(); return true; }
	}
	return false;
})()`

const capitalValueReadyJS = `
(function() {
	var el = document.querySelector('` + capitalValueSelector + `');
	return !!(el && el.textContent && el.textContent.indexOf('$') >= 0);
})()`

const capitalValueTextJS = `
(function() {
	var el = document.querySelector('` + capitalValueSelector + ` p.p-h1') ||
	         document.querySelector('` + capitalValueSelector + `');
	return el && el.textContent ? el.textContent.trim() : '';
})()`

// Parser turns a loaded listing page into a typed record. Field extraction
// is independently fault-tolerant: a missing fragment yields a default, not
// an error. Only the primary heading is existence-defining.
type Parser struct {
	logger *utils.Logger
}

// NewParser creates a Parser with the given logger.
func NewParser(logger *utils.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts one listing of the given category from an already
// navigated page. now anchors relative dates and the scraped-at timestamp.
func (p *Parser) Parse(pg browser.Page, listingURL string, category models.Category, now time.Time) (models.Record, error) {
	// Expand the truncated description first; best-effort.
	var clicked bool
	if err := pg.Evaluate(showMoreJS, &clicked); err != nil {
		p.logger.Debug("[parse] show-more click failed for %s: %v", listingURL, err)
	} else if clicked {
		pg.Sleep(500 * time.Millisecond)
	}

	var snap listingSnapshot
	if err := pg.Evaluate(snapshotJS, &snap); err != nil {
		return nil, err
	}
	if snap.Address == "" {
		return nil, ErrPrimaryContentMissing
	}

	common := p.commonFields(&snap, listingURL, now)

	switch category {
	case models.CategorySale:
		sale := &models.SaleListing{
			ListingCommon: common,
			AgentNames:    snap.AgentNames,
		}
		sale.SaleType, sale.AskPriceNZD = classifySaleType(snap.PriceText)
		p.enrichSale(pg, sale)
		return sale, nil
	default:
		rental := &models.RentalListing{ListingCommon: common}
		if len(snap.AgentNames) > 0 {
			rental.AgentName = snap.AgentNames[0]
		}
		rental.RentNZD = parseDollarAmount(snap.PriceText)
		if rental.RentNZD != nil {
			rental.RentPeriod = "weekly"
		}
		return rental, nil
	}
}

func (p *Parser) commonFields(snap *listingSnapshot, listingURL string, now time.Time) models.ListingCommon {
	common := models.ListingCommon{
		ListingID:    ListingIDFromURL(listingURL),
		URL:          listingURL,
		Address:      normalizeWhitespace(snap.Address),
		PropertyType: inferPropertyType(snap.Description),
		AgencyName:   normalizeWhitespace(snap.AgencyName),
		Description:  snap.Description,
		ScrapedAt:    now,
		Status:       models.StatusActive,
		SourceSite:   models.SourceSite,
	}

	common.Region, common.City, common.Suburb = LocationFromURL(listingURL)
	common.Bedrooms, common.Bathrooms, common.ParkingSpaces = parseFeatures(snap.Features)

	if snap.ListDateText != "" {
		date, err := ParseListDate(snap.ListDateText, now)
		if err != nil {
			p.logger.Warn("[parse] list date for %s: %v", listingURL, err)
		} else {
			common.ListDate = date
		}
	}
	common.PageViews = parseLeadingInt(snap.PageViewsText)

	return common
}

// enrichSale pulls the lazily rendered valuation banner figures. Both load
// asynchronously after a UI trigger: the homes estimate after a gradual
// scroll to the bottom, the capital value after a tab switch. Any timeout or
// mismatch leaves the field nil - never a listing-level failure.
func (p *Parser) enrichSale(pg browser.Page, sale *models.SaleListing) {
	p.scrollToBottom(pg)

	if err := pg.Poll(estimateReadyJS, enrichmentPollTimeout); err != nil {
		p.logger.Debug("[parse] homes estimate not populated for %s: %v", sale.URL, err)
	} else {
		var estimateText string
		if err := pg.Evaluate(estimateTextJS, &estimateText); err != nil {
			p.logger.Debug("[parse] homes estimate text for %s: %v", sale.URL, err)
		} else {
			sale.EstimateLowNZD, sale.EstimateHighNZD = parseEstimateRange(estimateText)
		}
	}

	var tabClicked bool
	if err := pg.Evaluate(capitalValueTabJS, &tabClicked); err != nil || !tabClicked {
		p.logger.Debug("[parse] capital value tab not found for %s", sale.URL)
		return
	}
	pg.Sleep(1500 * time.Millisecond)

	if err := pg.Poll(capitalValueReadyJS, enrichmentPollTimeout); err != nil {
		p.logger.Debug("[parse] capital value not populated for %s: %v", sale.URL, err)
		return
	}
	var cvText string
	if err := pg.Evaluate(capitalValueTextJS, &cvText); err != nil {
		p.logger.Debug("[parse] capital value text for %s: %v", sale.URL, err)
		return
	}
	sale.CapitalValueNZD = parseDollarAmount(cvText)
}

// scrollToBottom scrolls down a third of a viewport at a time so the lazily
// rendered panels near the bottom get a chance to mount.
func (p *Parser) scrollToBottom(pg browser.Page) {
	var pageHeight, viewportHeight float64
	if err := pg.Evaluate(`document.body.scrollHeight`, &pageHeight); err != nil {
		return
	}
	if err := pg.Evaluate(`window.innerHeight`, &viewportHeight); err != nil || viewportHeight <= 0 {
		return
	}

	increment := viewportHeight / 3
	for position := increment; position < pageHeight+increment; position += increment {
		js := "window.scrollTo(0, " + strconv.FormatFloat(position, 'f', 0, 64) + ")"
		if err := pg.Evaluate(js, nil); err != nil {
			return
		}
		pg.Sleep(800 * time.Millisecond)
	}
	pg.Sleep(2 * time.Second)
}

var (
	dollarRe     = regexp.MustCompile(`\$([0-9][0-9,]*)`)
	leadingIntRe = regexp.MustCompile(`\d+`)
	// estimateRangeRe matches "$1,425,000 - $1,575,000", "$325K - $365K" or
	// "$1.03M - $1.16M" with any dash variant.
	estimateRangeRe = regexp.MustCompile(`\$([0-9,.KkMm]+)\s*[-–—]\s*\$([0-9,.KkMm]+)`)
)

// parseDollarAmount extracts the first $<digits,with,commas> token as whole
// NZ dollars, or nil when none is present.
func parseDollarAmount(text string) *int64 {
	m := dollarRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// classifySaleType matches the lowercased price block against the ordered
// sale-type keyword set; the first match wins. Without a keyword match, a
// bare currency figure classifies as Fixed Price with that figure as the ask
// price. Keyword-classified listings still get their ask price extracted
// when one is displayed.
func classifySaleType(priceText string) (string, *int64) {
	lowered := strings.ToLower(priceText)
	switch {
	case strings.Contains(lowered, "auction"):
		return models.SaleTypeAuction, parseDollarAmount(priceText)
	case strings.Contains(lowered, "tender"):
		return models.SaleTypeTender, parseDollarAmount(priceText)
	case strings.Contains(lowered, "deadline sale"):
		return models.SaleTypeDeadline, parseDollarAmount(priceText)
	case strings.Contains(lowered, "negotiation"):
		return models.SaleTypeNegotiation, parseDollarAmount(priceText)
	}
	if amount := parseDollarAmount(priceText); amount != nil {
		return models.SaleTypeFixedPrice, amount
	}
	return "", nil
}

// parseFeatures folds the raw attribute-tag strings into bed/bath/parking
// counts. Bedrooms and bathrooms are last-write; parking is additive because
// a listing may tag "2 carports" and "1 garage" separately.
func parseFeatures(items []string) (bedrooms, bathrooms, parking int) {
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		n := 0
		if m := leadingIntRe.FindString(item); m != "" {
			n, _ = strconv.Atoi(m)
		}
		switch {
		case strings.Contains(item, "bed"):
			bedrooms = n
		case strings.Contains(item, "bath"):
			bathrooms = n
		case strings.Contains(item, "parking"), strings.Contains(item, "car"),
			strings.Contains(item, "garage"):
			parking += n
		}
	}
	return bedrooms, bathrooms, parking
}

// propertyTypeVocabulary is scanned in order against the lowercased
// description; the first containment match wins.
var propertyTypeVocabulary = []string{
	"apartment", "condo", "co-op", "home", "townhouse", "cape cod",
	"colonial", "contemporary", "federal", "craftsman", "greek revival",
	"farmhouse", "french country", "mediterranean", "midcentury modern",
	"ranch", "split-level", "tudor", "victorian",
}

func inferPropertyType(description string) string {
	lowered := strings.ToLower(description)
	for _, typ := range propertyTypeVocabulary {
		if strings.Contains(lowered, typ) {
			return strings.ToUpper(typ[:1]) + typ[1:]
		}
	}
	return "Other"
}

// parseEstimateRange parses a "$X - $Y" valuation range where X and Y may
// carry K/M scale suffixes.
func parseEstimateRange(text string) (low, high *int64) {
	m := estimateRangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	return parseScaledAmount(m[1]), parseScaledAmount(m[2])
}

func parseScaledAmount(raw string) *int64 {
	s := strings.ReplaceAll(strings.ToUpper(raw), ",", "")
	scale := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		scale = 1_000
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		scale = 1_000_000
		s = strings.TrimSuffix(s, "M")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int64(math.Round(f * float64(scale)))
	return &n
}

func parseLeadingInt(text string) *int {
	m := leadingIntRe.FindString(text)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// normalizeWhitespace trims and collapses internal whitespace.
func normalizeWhitespace(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), unicode.IsSpace)
	return strings.Join(fields, " ")
}
