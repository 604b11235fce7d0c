package local

import (
	"regexp"
	"strings"

	"docproc-backend/internal/engine"
)

// typeKeywords maps each category to cue words. Classification scores a
// document by keyword hits and picks the highest-scoring category.
var typeKeywords = map[engine.DocumentType][]string{
	engine.TypeInvoice:  {"invoice", "bill to", "amount due", "payment due", "invoice number", "subtotal", "tax", "total due"},
	engine.TypeReceipt:  {"receipt", "paid", "change due", "cash", "card ending", "transaction", "thank you for your purchase"},
	engine.TypeContract: {"agreement", "contract", "party", "parties", "hereby", "terms and conditions", "witness whereof", "obligations"},
	engine.TypeResume:   {"experience", "education", "skills", "employment", "curriculum vitae", "references", "objective", "linkedin"},
	engine.TypeReport:   {"report", "summary", "findings", "analysis", "conclusion", "methodology", "results"},
	engine.TypeLetter:   {"dear", "sincerely", "regards", "yours truly", "to whom it may concern"},
	engine.TypeForm:     {"form", "please fill", "signature", "date of birth", "applicant", "checkbox"},
	engine.TypeEmail:    {"subject:", "from:", "to:", "cc:", "forwarded message", "wrote:"},
	engine.TypeMemo:     {"memo", "memorandum", "re:", "internal use"},
}

var moneyPattern = regexp.MustCompile(`[$€£]\s?\d[\d,]*(\.\d{2})?`)

// datePattern matches ISO dates (2024-01-01) and day-first or month-first
// numeric dates (01/15/2024, 15-01-24).
var datePattern = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)

// classify scores the text against each category's keywords. Confidence
// grows with the number of distinct keyword hits but never reaches 1.
func classify(text string) engine.ClassificationResult {
	lower := strings.ToLower(text)

	bestType := engine.TypeUnknown
	bestHits := 0
	for docType, keywords := range typeKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && docType < bestType) {
			bestType = docType
			bestHits = hits
		}
	}

	confidence := 0.0
	if bestHits > 0 {
		confidence = 0.3 + 0.15*float64(bestHits)
		if confidence > 0.9 {
			confidence = 0.9
		}
	}

	return engine.ClassificationResult{
		DocumentType:   string(bestType),
		Confidence:     confidence,
		KeyInformation: extractKeyInfo(text, bestType),
		AnalysisMethod: "keyword",
	}
}

// extractKeyInfo pulls cheap surface features: amounts, dates, and a title
// line. It is deliberately shallow; the point is having something useful
// without a model.
func extractKeyInfo(text string, docType engine.DocumentType) map[string]any {
	info := make(map[string]any)

	if amounts := moneyPattern.FindAllString(text, 3); len(amounts) > 0 {
		info["amounts"] = amounts
	}
	if dates := datePattern.FindAllString(text, 3); len(dates) > 0 {
		info["dates"] = dates
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			info["first_line"] = truncate(line, 120)
			break
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
