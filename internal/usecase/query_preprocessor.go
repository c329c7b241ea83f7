package usecase

import (
	"log"
	"regexp"
	"strings"
)

// maxQueryLength is the longest accepted search query
const maxQueryLength = 120

// Compiled regex patterns for query preprocessing
var (
	// Matches UK pack sizes like "500g", "1.5 l", "4 pints", "2 x 330ml"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b(?:\d+\s*x\s*)?\d+\.?\d*\s*(?:kg|g|grams?|ml|cl|l|litres?|liters?|pt|pints?)\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "24 count", "x4"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(?:pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\bx\s?\d+\b|\b\d+\s*(?:cans?|bottles?|pieces?|bars?|rolls?)\b`)

	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpacePattern    = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are dropped before scoring listing names against a query
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"value": true, "finest": true, "extra": true, "special": true,
	"premium": true, "select": true, "essential": true, "essentials": true,
	"taste": true, "quality": true, "best": true, "new": true,

	// Size descriptors
	"large": true, "medium": true, "small": true, "mini": true,
	"jumbo": true, "big": true, "family": true, "size": true,

	// Packaging terms
	"pack": true, "box": true, "bag": true, "bottle": true, "can": true,
	"jar": true, "tub": true, "carton": true, "pouch": true, "tin": true,

	// Generic terms that don't narrow anything down
	"food": true, "item": true, "product": true, "brand": true, "buy": true,
}

// QueryPreprocessor cleans shopper queries for the upstream search and for relevance scoring
type QueryPreprocessor struct {
	enableDebugLogging bool
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// CleanQuery trims and collapses whitespace. The wording is otherwise left as typed.
func CleanQuery(query string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(query, " "))
}

// KeyTerms returns the query tokens worth matching against product names,
// ordered by importance: food terms, then descriptive terms, then the rest.
// Pack sizes, counts and marketing noise are removed first.
func (p *QueryPreprocessor) KeyTerms(query string) []string {
	cleaned := sizeQuantityPattern.ReplaceAllString(query, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")

	var highPriority, medPriority, lowPriority []string
	for _, token := range tokenize(cleaned) {
		if queryNoiseWords[token] {
			continue
		}
		switch {
		case foodTerms[token]:
			highPriority = append(highPriority, token)
		case descriptiveTerms[token]:
			medPriority = append(medPriority, token)
		default:
			lowPriority = append(lowPriority, token)
		}
	}

	result := make([]string, 0, len(highPriority)+len(medPriority)+len(lowPriority))
	result = append(result, highPriority...)
	result = append(result, medPriority...)
	result = append(result, lowPriority...)

	// Everything was noise: score against the raw tokens instead
	if len(result) == 0 {
		result = tokenize(query)
	}

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] Input: %q -> Terms: %v", query, result)
	}
	return result
}

// normalizeForCacheKey lowercases, strips punctuation and collapses whitespace
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
