package service

import "fmt"

// RiskAnalysisPrompt asks the model to review contract text and return a
// pure-JSON risk analysis. The model frequently ignores the "pure JSON"
// instruction, which is what the normalizer exists for.
func RiskAnalysisPrompt(contractText string) string {
	return fmt.Sprintf(`You are a professional contract review lawyer. Perform a thorough risk analysis of the following contract text:

Contract text:
"""
%s
"""

Return your result as JSON in exactly this format:
{
  "risk_level": "low|medium|high|critical",
  "risk_score": 0.0-1.0,
  "summary": "overall risk assessment summary",
  "major_risks": [
    {
      "type": "risk type",
      "description": "risk description",
      "clause": "related clause",
      "severity": "low|medium|high|critical",
      "suggestion": "suggested amendment"
    }
  ],
  "compliance_issues": [
    {
      "issue": "compliance issue description",
      "clause": "related clause",
      "standard": "relevant regulation or standard",
      "suggestion": "compliance suggestion"
    }
  ],
  "missing_clauses": ["important missing clauses"],
  "key_terms": {
    "parties": "contracting parties",
    "amount": "contract amount",
    "duration": "contract duration",
    "payment_terms": "payment terms",
    "termination": "termination terms"
  }
}

Return pure JSON only, with no surrounding text.`, contractText)
}

// ClauseExtractionPrompt asks the model to extract structured clauses.
func ClauseExtractionPrompt(contractText string) string {
	return fmt.Sprintf(`Extract every significant clause from the following contract text and return it in structured form:

Contract text:
"""
%s
"""

Return JSON:
{
  "clauses": [
    {
      "clause_number": "clause number",
      "title": "clause title",
      "content": "clause content",
      "type": "clause type"
    }
  ],
  "metadata": {
    "total_clauses": 0,
    "document_type": "contract type",
    "parties": ["party A", "party B"]
  }
}

Return pure JSON only.`, contractText)
}

// ContractQAPrompt grounds a user question on contract text.
func ContractQAPrompt(question, contractText string) string {
	return fmt.Sprintf(`Answer the user's question based on the following contract text:

Contract text:
"""
%s
"""

Question: %s

Give an accurate, professional answer and cite the relevant clauses.`, contractText, question)
}

// SummaryPrompt asks for a short free-text contract summary.
func SummaryPrompt(contractText string) string {
	return fmt.Sprintf(`Write a concise summary of the following contract covering:
1. Contract type and main purpose
2. Key clauses
3. Important dates and amounts
4. Principal rights and obligations

Contract text:
"""
%s
"""

Keep the format short and clear.`, contractText)
}

// TemplateGenerationPrompt asks the model to draft a contract template.
func TemplateGenerationPrompt(category, description string) string {
	return fmt.Sprintf(`Draft a reusable contract template.

Category: %s
Requirements: %s

Use {{variable_name}} placeholders for the parts that change per contract
(parties, dates, amounts). Return the template text only.`, category, description)
}
