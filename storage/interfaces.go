package storage

import "trademe-scraper/models"

// RecordWriter is the interface any final-output backend must satisfy.
type RecordWriter interface {
	Write(records []models.Record) error
	Close() error
}
