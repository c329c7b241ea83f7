package selector

import (
	"context"
	"log"

	"github.com/georglynx/grocerycompare/internal/domain"
)

// Provider names accepted by New
const (
	ProviderNone      = "none"
	ProviderRelevance = "relevance"
	ProviderGemini    = "gemini"
)

// New builds the selector for a provider name. A Gemini selector that cannot
// be created (no API key, client error) is logged and replaced by FirstCandidate.
func New(ctx context.Context, provider string, opts GeminiOptions) domain.CandidateSelector {
	switch provider {
	case ProviderNone:
		return FirstCandidate{}
	case ProviderGemini:
		s, err := NewGeminiSelector(ctx, opts)
		if err != nil {
			log.Printf("[SELECTOR] WARNING: gemini unavailable, using first listing result: %v", err)
			return FirstCandidate{}
		}
		return s
	default:
		return ByRelevance{TopK: opts.TopK}
	}
}
