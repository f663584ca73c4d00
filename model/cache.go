package model

import "time"

// Extraction method tags for cached text.
const (
	ExtractionAuto     = "auto"     // text came from the extraction service
	ExtractionFallback = "fallback" // text was synthesized from contract metadata
)

// TextCacheEntry memoizes extracted contract text. At most one entry exists
// per contract (upsert on contract_id). An entry is reusable only while the
// contract has not been modified since ContractUpdatedAt.
type TextCacheEntry struct {
	ID                string    `json:"id,omitempty"`
	ContractID        string    `json:"contract_id"`
	Content           string    `json:"content"`
	ContentLength     int       `json:"content_length"`
	WordCount         int       `json:"word_count"`
	ExtractionMethod  string    `json:"extraction_method"`
	QualityScore      float64   `json:"quality_score"`
	ContractUpdatedAt time.Time `json:"contract_updated_at"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}
