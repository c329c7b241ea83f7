package selector

import (
	"context"
	"fmt"
	"sort"

	"github.com/georglynx/grocerycompare/internal/domain"
)

// FirstCandidate always picks the first listing result
type FirstCandidate struct{}

// SelectBest returns the first candidate's index
func (FirstCandidate) SelectBest(_ context.Context, _ string, candidates []domain.Candidate) ([]int, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", domain.ErrSelectorUnavailable)
	}
	return []int{candidates[0].Index}, nil
}

// ByRelevance ranks candidates by their relevance score, listing order breaking ties
type ByRelevance struct {
	TopK int
}

// SelectBest returns up to TopK candidate indices with the highest scores
func (s ByRelevance) SelectBest(_ context.Context, _ string, candidates []domain.Candidate) ([]int, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", domain.ErrSelectorUnavailable)
	}
	topK := s.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	ranked := make([]domain.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	indices := make([]int, len(ranked))
	for i, c := range ranked {
		indices[i] = c.Index
	}
	return indices, nil
}
