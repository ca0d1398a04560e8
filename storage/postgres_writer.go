package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"trademe-scraper/models"
)

// PostgresWriter persists final listing records to PostgreSQL. The table
// holds the union of both categories' columns; the other category's columns
// are NULL for any given row.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                SERIAL PRIMARY KEY,
			category          VARCHAR(10)  NOT NULL,
			listing_id        VARCHAR(32)  NOT NULL DEFAULT '',
			url               TEXT         UNIQUE NOT NULL,
			address           TEXT         NOT NULL DEFAULT '',
			suburb            TEXT         NOT NULL DEFAULT '',
			city              TEXT         NOT NULL DEFAULT '',
			region            TEXT         NOT NULL DEFAULT '',
			property_type     VARCHAR(50)  NOT NULL DEFAULT 'Other',
			bedrooms          INT          NOT NULL DEFAULT 0,
			bathrooms         INT          NOT NULL DEFAULT 0,
			parking_spaces    INT          NOT NULL DEFAULT 0,
			agency_name       TEXT         NOT NULL DEFAULT '',
			agent_names       TEXT         NOT NULL DEFAULT '',
			list_date         VARCHAR(10)  NOT NULL DEFAULT '',
			page_views        INT,
			description       TEXT         NOT NULL DEFAULT '',
			status            VARCHAR(20)  NOT NULL DEFAULT 'active',
			source_site       VARCHAR(20)  NOT NULL DEFAULT 'trademe',
			scraped_at        TIMESTAMPTZ  NOT NULL,
			rent_nzd          BIGINT,
			rent_period       VARCHAR(10),
			sale_type         VARCHAR(30),
			ask_price_nzd     BIGINT,
			cv_nzd            BIGINT,
			estimate_low_nzd  BIGINT,
			estimate_high_nzd BIGINT
		);

		CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category);
		CREATE INDEX IF NOT EXISTS idx_listings_region   ON listings(region);
		CREATE INDEX IF NOT EXISTS idx_listings_suburb   ON listings(suburb);
	`)
	return err
}

// Write batch-upserts the record set, keyed by url - re-scraped listings
// overwrite their previous row.
func (pw *PostgresWriter) Write(records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.upsertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const listingColumnCount = 26

func (pw *PostgresWriter) upsertBatch(batch []models.Record) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*listingColumnCount)

	for idx, r := range batch {
		placeholders := make([]string, listingColumnCount)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx*listingColumnCount+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		c := r.Common()
		var agentNames string
		var rentPeriod, saleType *string
		var rentNZD, askPrice, cv, estimateLow, estimateHigh *int64
		switch l := r.(type) {
		case *models.RentalListing:
			agentNames = l.AgentName
			rentNZD = l.RentNZD
			if l.RentPeriod != "" {
				rentPeriod = &l.RentPeriod
			}
		case *models.SaleListing:
			agentNames = strings.Join(l.AgentNames, "|")
			if l.SaleType != "" {
				saleType = &l.SaleType
			}
			askPrice = l.AskPriceNZD
			cv = l.CapitalValueNZD
			estimateLow = l.EstimateLowNZD
			estimateHigh = l.EstimateHighNZD
		}

		valueArgs = append(valueArgs,
			string(r.Category()), c.ListingID, c.URL, c.Address, c.Suburb,
			c.City, c.Region, c.PropertyType, c.Bedrooms, c.Bathrooms,
			c.ParkingSpaces, c.AgencyName, agentNames, c.ListDate,
			c.PageViews, c.Description, c.Status, c.SourceSite, c.ScrapedAt,
			rentNZD, rentPeriod, saleType, askPrice, cv, estimateLow,
			estimateHigh,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (
			category, listing_id, url, address, suburb, city, region,
			property_type, bedrooms, bathrooms, parking_spaces, agency_name,
			agent_names, list_date, page_views, description, status,
			source_site, scraped_at, rent_nzd, rent_period, sale_type,
			ask_price_nzd, cv_nzd, estimate_low_nzd, estimate_high_nzd
		)
		VALUES %s
		ON CONFLICT (url) DO UPDATE SET
			category          = EXCLUDED.category,
			listing_id        = EXCLUDED.listing_id,
			address           = EXCLUDED.address,
			suburb            = EXCLUDED.suburb,
			city              = EXCLUDED.city,
			region            = EXCLUDED.region,
			property_type     = EXCLUDED.property_type,
			bedrooms          = EXCLUDED.bedrooms,
			bathrooms         = EXCLUDED.bathrooms,
			parking_spaces    = EXCLUDED.parking_spaces,
			agency_name       = EXCLUDED.agency_name,
			agent_names       = EXCLUDED.agent_names,
			list_date         = EXCLUDED.list_date,
			page_views        = EXCLUDED.page_views,
			description       = EXCLUDED.description,
			status            = EXCLUDED.status,
			source_site       = EXCLUDED.source_site,
			scraped_at        = EXCLUDED.scraped_at,
			rent_nzd          = EXCLUDED.rent_nzd,
			rent_period       = EXCLUDED.rent_period,
			sale_type         = EXCLUDED.sale_type,
			ask_price_nzd     = EXCLUDED.ask_price_nzd,
			cv_nzd            = EXCLUDED.cv_nzd,
			estimate_low_nzd  = EXCLUDED.estimate_low_nzd,
			estimate_high_nzd = EXCLUDED.estimate_high_nzd
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// Close releases the database connection pool.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
