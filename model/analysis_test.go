package model

import "testing"

func TestNormalizeRiskLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"low", "low", RiskLow},
		{"medium", "medium", RiskMedium},
		{"high", "high", RiskHigh},
		{"critical maps to high", "critical", RiskHigh},
		{"uppercase", "HIGH", RiskHigh},
		{"mixed case critical", "Critical", RiskHigh},
		{"surrounding whitespace", "  low  ", RiskLow},
		{"unrecognized string", "catastrophic", RiskMedium},
		{"empty string", "", RiskMedium},
		{"nil", nil, RiskMedium},
		{"number", 0.9, RiskMedium},
		{"bool", true, RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRiskLevel(tt.input); got != tt.expected {
				t.Errorf("NormalizeRiskLevel(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestContractHasFile(t *testing.T) {
	c := &Contract{FilePath: "user/contract/file.pdf"}
	if !c.HasFile() {
		t.Error("Expected HasFile to be true")
	}

	c = &Contract{}
	if c.HasFile() {
		t.Error("Expected HasFile to be false without a file path")
	}
}

func TestStatusConstants(t *testing.T) {
	statuses := []string{
		StatusUploaded,
		StatusProcessing,
		StatusAnalyzed,
		StatusReviewed,
		StatusApproved,
		StatusRejected,
	}

	seen := make(map[string]bool)
	for _, s := range statuses {
		if s == "" {
			t.Error("Status constant should not be empty")
		}
		if seen[s] {
			t.Errorf("Duplicate status constant: %s", s)
		}
		seen[s] = true
	}
}
