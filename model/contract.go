package model

import (
	"time"
)

// Contract represents an uploaded contract document under analysis
type Contract struct {
	ID                  string     `json:"id,omitempty"`
	UserID              string     `json:"user_id"`
	Filename            string     `json:"filename"`
	FilePath            string     `json:"file_path,omitempty"` // object name in storage, empty when no file was stored
	FileSize            int64      `json:"file_size,omitempty"`
	FileType            string     `json:"file_type,omitempty"` // file extension, e.g. ".pdf"
	Title               string     `json:"contract_title,omitempty"`
	Counterparties      string     `json:"counterparties,omitempty"`
	Amount              string     `json:"contract_amount,omitempty"`
	EffectiveDate       string     `json:"effective_date,omitempty"`
	ExpirationDate      string     `json:"expiration_date,omitempty"`
	Category            string     `json:"category,omitempty"`
	Status              string     `json:"status"`
	AnalysisStartedAt   *time.Time `json:"analysis_started_at,omitempty"`
	AnalysisCompletedAt *time.Time `json:"analysis_completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at,omitempty"`
}

// Contract status constants. The analysis pipeline only drives
// uploaded -> processing -> analyzed, reverting to uploaded on failure.
// The review states are set by downstream business flows.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusAnalyzed   = "analyzed"
	StatusReviewed   = "reviewed"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

// HasFile reports whether the contract has a stored document to extract from.
func (c *Contract) HasFile() bool {
	return c.FilePath != ""
}
