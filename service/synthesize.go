package service

import (
	"fmt"
	"strings"

	"github.com/contractmind/backend/model"
)

// SynthesizeContractText builds analyzable text from a contract's structured
// business fields, used when no file is stored or extraction fails. Only
// fields that are actually set contribute, so a bare record with no metadata
// yields an empty string and the caller's minimum-length check fails the
// analysis instead of sending garbage to the model.
func SynthesizeContractText(c *model.Contract) string {
	var parts []string

	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	if c.Counterparties != "" {
		parts = append(parts, "Counterparties: "+c.Counterparties)
	}
	if c.Amount != "" {
		parts = append(parts, "Contract amount: "+c.Amount)
	}
	if c.EffectiveDate != "" || c.ExpirationDate != "" {
		parts = append(parts, fmt.Sprintf("Contract term: %s to %s",
			valueOr(c.EffectiveDate, "unspecified"),
			valueOr(c.ExpirationDate, "unspecified")))
	}
	if c.Category != "" {
		parts = append(parts, "Category: "+c.Category)
	}

	return strings.Join(parts, "\n")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
