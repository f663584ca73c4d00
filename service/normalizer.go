package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseFidelity tags how much repair was needed to turn a raw completion
// into structured data. Later values are strictly more lossy; consumers
// should trust numeric fields less the further down the ladder they came.
type ParseFidelity string

const (
	FidelityExact     ParseFidelity = "exact"     // strict parse after fence stripping
	FidelityRepaired  ParseFidelity = "repaired"  // generic JSON repair applied
	FidelityPatched   ParseFidelity = "patched"   // heuristic text substitutions applied
	FidelitySynthetic ParseFidelity = "synthetic" // fallback object, nothing parsed
)

// NormalizedAnalysis is the outcome of normalizing one raw completion.
// Warning is empty only for exact parses.
type NormalizedAnalysis struct {
	Data     map[string]any
	Fidelity ParseFidelity
	Warning  string
}

// fallbackSummaryPrefixLen bounds how much raw text is embedded in the
// synthetic fallback summary for human triage.
const fallbackSummaryPrefixLen = 200

var fenceRe = regexp.MustCompile("```(?:json)?\\n?|\\n?```")

// Normalize converts a raw LLM completion into a structured analysis object
// via a layered repair ladder, cheapest and most faithful first. It never
// fails: if no layer can parse the text, a synthetic fallback object is
// returned so the pipeline always has something persistable.
func Normalize(raw string) *NormalizedAnalysis {
	stripped := stripFences(raw)

	// Layer 1: strict parse of the fence-stripped text.
	if data, err := parseAnalysisObject(stripped); err == nil {
		return &NormalizedAnalysis{Data: data, Fidelity: FidelityExact}
	}

	// Layer 2: generic JSON repair (unquoted keys, trailing commas,
	// unbalanced brackets, single-quote strings), then strict parse.
	if repaired, err := jsonrepair.JSONRepair(stripped); err == nil {
		if data, perr := parseAnalysisObject(repaired); perr == nil {
			return &NormalizedAnalysis{
				Data:     data,
				Fidelity: FidelityRepaired,
				Warning:  "AI response was not valid JSON; generic JSON repair was applied",
			}
		}
	}

	// Layer 3: fixed sequence of heuristic text substitutions targeting
	// common LLM mistakes, then strict parse.
	if data, err := parseAnalysisObject(ApplyTextFixes(stripped)); err == nil {
		return &NormalizedAnalysis{
			Data:     data,
			Fidelity: FidelityPatched,
			Warning:  "AI response was not valid JSON; heuristic text fixes were applied",
		}
	}

	// Layer 4: synthetic fallback. Always succeeds.
	return &NormalizedAnalysis{
		Data:     synthesizeFallbackAnalysis(raw),
		Fidelity: FidelitySynthetic,
		Warning:  "AI response could not be parsed as JSON; a synthetic fallback analysis was generated, manual review advised",
	}
}

// stripFences removes Markdown code-fence markers (optionally tagged json)
// and trims surrounding whitespace.
func stripFences(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
}

// parseAnalysisObject strict-parses s and requires the document to be a
// JSON object. Scalars, arrays and null all escalate to the next layer.
func parseAnalysisObject(s string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("document is null")
	}
	return data, nil
}

// TextFix is one named, pure textual substitution in the heuristic repair
// sequence. Fixes are applied in declaration order.
type TextFix struct {
	Name  string
	Apply func(string) string
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// TextFixes is the fixed heuristic repair sequence.
//
// Input/output examples:
//
//	fullwidth-punctuation: {"a"：1，"b"：2}      -> {"a":1,"b":2}
//	smart-quotes:          {“a”: ‘x’}            -> {"a": 'x'}
//	single-quotes:         {'a': 'x'}            -> {"a": "x"}
//	trailing-commas:       {"a": [1, 2,],}       -> {"a": [1, 2]}
//	escape-newlines:       {"a": "line1<LF>line2"} -> {"a": "line1\nline2"}
var TextFixes = []TextFix{
	{
		Name: "fullwidth-punctuation",
		Apply: func(s string) string {
			s = strings.ReplaceAll(s, "，", ",") // full-width comma
			s = strings.ReplaceAll(s, "：", ":") // full-width colon
			return s
		},
	},
	{
		Name: "smart-quotes",
		Apply: func(s string) string {
			s = strings.ReplaceAll(s, "“", `"`)
			s = strings.ReplaceAll(s, "”", `"`)
			s = strings.ReplaceAll(s, "‘", "'")
			s = strings.ReplaceAll(s, "’", "'")
			return s
		},
	},
	{
		Name: "single-quotes",
		Apply: func(s string) string {
			return strings.ReplaceAll(s, "'", `"`)
		},
	},
	{
		Name: "trailing-commas",
		Apply: func(s string) string {
			return trailingCommaRe.ReplaceAllString(s, "$1")
		},
	},
	{
		Name:  "escape-newlines",
		Apply: escapeNewlinesInStrings,
	},
}

// ApplyTextFixes runs the full heuristic fix sequence over s.
func ApplyTextFixes(s string) string {
	for _, fix := range TextFixes {
		s = fix.Apply(s)
	}
	return s
}

// escapeNewlinesInStrings escapes literal newline, carriage-return and tab
// characters occurring inside double-quoted strings, which the model emits
// when it wraps long summaries. Text outside strings is left untouched.
func escapeNewlinesInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
				// A backslash followed by a literal control character: the
				// backslash is already written, so emitting the escape letter
				// completes a valid sequence.
				switch r {
				case '\n':
					b.WriteByte('n')
					continue
				case '\r':
					b.WriteByte('r')
					continue
				case '\t':
					b.WriteByte('t')
					continue
				}
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			}
		} else if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

// synthesizeFallbackAnalysis builds a minimal well-formed analysis object
// signaling that automated parsing failed. The summary embeds a prefix of
// the raw response so a human can triage what the model actually said.
func synthesizeFallbackAnalysis(raw string) map[string]any {
	prefix := strings.TrimSpace(raw)
	if runes := []rune(prefix); len(runes) > fallbackSummaryPrefixLen {
		prefix = string(runes[:fallbackSummaryPrefixLen]) + "..."
	}

	return map[string]any{
		"risk_level": "medium",
		"risk_score": 0.6,
		"summary":    "Automated parsing of the AI analysis response failed. Raw response prefix: " + prefix,
		"major_risks": []any{
			map[string]any{
				"type":        "analysis_format",
				"description": "Analysis response format abnormal, manual review advised",
				"clause":      "",
				"severity":    "medium",
				"suggestion":  "Re-run the analysis or review the contract manually",
			},
		},
		"compliance_issues": []any{
			map[string]any{
				"issue":      "Automated compliance check unavailable: analysis response format abnormal, manual review advised",
				"clause":     "",
				"standard":   "",
				"suggestion": "Perform a manual compliance review",
			},
		},
		"missing_clauses": []any{},
		"key_terms": map[string]any{
			"parties":       "unrecognized",
			"amount":        "unrecognized",
			"duration":      "unrecognized",
			"payment_terms": "unrecognized",
			"termination":   "unrecognized",
		},
	}
}
