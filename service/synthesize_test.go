package service

import (
	"strings"
	"testing"

	"github.com/contractmind/backend/model"
)

func TestSynthesizeContractText(t *testing.T) {
	contract := &model.Contract{
		Title:          "Master Service Agreement",
		Counterparties: "Acme Corp; Globex Ltd",
		Amount:         "250000 USD",
		EffectiveDate:  "2026-01-01",
		ExpirationDate: "2027-01-01",
		Category:       "services",
	}

	text := SynthesizeContractText(contract)
	lines := strings.Split(text, "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d: %q", len(lines), text)
	}
	if lines[0] != "Master Service Agreement" {
		t.Errorf("Expected title first, got %q", lines[0])
	}
	if !strings.Contains(text, "Counterparties: Acme Corp; Globex Ltd") {
		t.Error("Expected counterparties line")
	}
	if !strings.Contains(text, "Contract term: 2026-01-01 to 2027-01-01") {
		t.Error("Expected term line with both dates")
	}
}

func TestSynthesizeContractTextSkipsEmptyFields(t *testing.T) {
	contract := &model.Contract{
		Title:         "Consulting Agreement",
		EffectiveDate: "2026-03-01",
	}

	text := SynthesizeContractText(contract)
	if strings.Contains(text, "Counterparties") {
		t.Error("Expected no counterparties line for empty field")
	}
	if !strings.Contains(text, "Contract term: 2026-03-01 to unspecified") {
		t.Errorf("Expected term line with placeholder expiration, got %q", text)
	}
}

func TestSynthesizeContractTextEmptyContract(t *testing.T) {
	if text := SynthesizeContractText(&model.Contract{UserID: "u1", Filename: "x.pdf"}); text != "" {
		t.Errorf("Expected empty text for contract with no business fields, got %q", text)
	}
}
