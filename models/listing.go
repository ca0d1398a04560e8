package models

import "time"

// Category classifies a listing as a rental or a sale. The two categories
// carry different type-specific fields, so the record schema is a tagged
// variant rather than one struct with nullable columns.
type Category string

const (
	CategoryRental Category = "rental"
	CategorySale   Category = "sale"
)

// Valid reports whether c is a known listing category.
func (c Category) Valid() bool {
	return c == CategoryRental || c == CategorySale
}

const (
	// SourceSite tags every record with its origin marketplace.
	SourceSite = "trademe"

	// StatusActive is the only status currently emitted. Sold/withdrawn
	// detection is not implemented; treat the field as aspirational.
	StatusActive = "active"
)

// Sale types recognised in the price block, in classification order.
const (
	SaleTypeAuction     = "Auction"
	SaleTypeTender      = "Tender"
	SaleTypeDeadline    = "Deadline Sale"
	SaleTypeNegotiation = "Price by Negotiation"
	SaleTypeFixedPrice  = "Fixed Price"
)

// ListingCommon holds the fields shared by both listing categories.
// Optional numeric fields are pointers so "absent" stays distinct from zero.
type ListingCommon struct {
	ListingID     string
	URL           string
	Address       string
	Suburb        string
	City          string
	Region        string
	PropertyType  string
	Bedrooms      int
	Bathrooms     int
	ParkingSpaces int
	AgencyName    string
	ListDate      string // dd/mm/yyyy
	PageViews     *int
	Description   string
	ScrapedAt     time.Time
	Status        string
	SourceSite    string
}

// Record is one scraped listing of either category. The concrete type
// carries the category-specific fields; the other category's fields do not
// exist on it at all.
type Record interface {
	Common() *ListingCommon
	Category() Category
}

// RentalListing is a residential rental advertisement.
type RentalListing struct {
	ListingCommon
	AgentName  string
	RentNZD    *int64
	RentPeriod string // "weekly" whenever RentNZD is present
}

func (l *RentalListing) Common() *ListingCommon { return &l.ListingCommon }
func (l *RentalListing) Category() Category     { return CategoryRental }

// SaleListing is a residential for-sale advertisement. The capital value and
// the valuation estimate range load lazily on the live site and may be nil.
type SaleListing struct {
	ListingCommon
	AgentNames      []string
	SaleType        string
	AskPriceNZD     *int64
	CapitalValueNZD *int64
	EstimateLowNZD  *int64
	EstimateHighNZD *int64
}

func (l *SaleListing) Common() *ListingCommon { return &l.ListingCommon }
func (l *SaleListing) Category() Category     { return CategorySale }

// CrawlReport holds the computed summary over one category's final record
// set, printed at category completion.
type CrawlReport struct {
	Category         Category
	TotalListings    int
	FailedListings   int
	AverageBedrooms  float64
	AveragePriceNZD  float64
	MinPriceNZD      int64
	MaxPriceNZD      int64
	WithEstimate     int
	ListingsByRegion map[string]int
}
