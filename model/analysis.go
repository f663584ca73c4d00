package model

import (
	"fmt"
	"strings"
	"time"
)

// Risk level domain. Every persisted AnalysisResult carries exactly one of
// these three values in OverallRiskLevel, regardless of what the model
// returned in the raw analysis payload.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// AnalysisResult is the persisted outcome of one successful analysis attempt.
// Result holds the normalized analysis object as returned by the repair
// pipeline; the derived columns next to it are what dashboards filter on.
type AnalysisResult struct {
	ID               string         `json:"id,omitempty"`
	ContractID       string         `json:"contract_id"`
	UserID           string         `json:"user_id"`
	Result           map[string]any `json:"analysis_result"`
	ConfidenceScore  float64        `json:"confidence_score"`
	OverallRiskLevel string         `json:"overall_risk_level"`
	RiskSummary      string         `json:"risk_summary,omitempty"`
	ComplianceStatus bool           `json:"compliance_status"`
	ParseFidelity    string         `json:"parse_fidelity,omitempty"`
	ParseWarning     string         `json:"parse_warning,omitempty"`
	CreatedAt        time.Time      `json:"created_at,omitempty"`
}

// NormalizeRiskLevel clamps an arbitrary model-supplied risk level into the
// three-value domain. Matching is case-insensitive and works on the string
// form of non-string inputs. "critical" maps to high; anything unrecognized
// (including nil and numbers) maps to medium.
func NormalizeRiskLevel(v any) string {
	s := strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	switch s {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh, "critical":
		return RiskHigh
	default:
		return RiskMedium
	}
}
