package selector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(n int) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		out[i] = domain.Candidate{Index: i, Name: "Item " + string(rune('A'+i))}
	}
	return out
}

func TestParseIndices(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		topK    int
		want    []int
		wantErr bool
	}{
		{name: "plain array", text: "[2, 0, 1]", topK: 4, want: []int{2, 0, 1}},
		{name: "wrapped in prose", text: "Best matches: [3,1] as requested.", topK: 4, want: []int{3, 1}},
		{name: "out of range and duplicates dropped", text: "[9, 1, 1, -1, 0]", topK: 4, want: []int{1, 0}},
		{name: "capped at topK", text: "[0, 1, 2, 3, 4]", topK: 3, want: []int{0, 1, 2}},
		{name: "no array", text: "I cannot decide", topK: 4, wantErr: true},
		{name: "nothing usable", text: "[7, 8]", topK: 4, wantErr: true},
		{name: "empty array", text: "[]", topK: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndices(tt.text, candidates(5), tt.topK)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	weight := "125g"
	per100 := 0.68
	prompt, err := buildPrompt("mozzarella", []domain.Candidate{
		{Index: 0, Name: "Galbani Mozzarella", Weight: &weight, Per100g: &per100, Score: 80},
	}, 3)
	require.NoError(t, err)

	assert.Contains(t, prompt, `Search: "mozzarella"`)
	assert.Contains(t, prompt, `"name":"Galbani Mozzarella"`)
	assert.Contains(t, prompt, `"weight":"125g"`)
	assert.Contains(t, prompt, "Pick the 3 candidates")
}

func TestGeminiSelector_SelectBest(t *testing.T) {
	var gotPrompt string
	s := newGeminiSelector(GeminiOptions{TopK: 2}, func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "[4, 2, 0]", nil
	})

	indices, err := s.SelectBest(context.Background(), "cheddar", candidates(5))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, indices)
	assert.Contains(t, gotPrompt, `"cheddar"`)
}

func TestGeminiSelector_LimitsCandidates(t *testing.T) {
	s := newGeminiSelector(GeminiOptions{MaxCandidates: 2}, func(_ context.Context, prompt string) (string, error) {
		assert.NotContains(t, prompt, "Item C")
		return "[3, 1]", nil
	})

	indices, err := s.SelectBest(context.Background(), "q", candidates(5))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indices, "index 3 was never offered")
}

func TestGeminiSelector_Failures(t *testing.T) {
	t.Run("generation error", func(t *testing.T) {
		s := newGeminiSelector(GeminiOptions{}, func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		})
		_, err := s.SelectBest(context.Background(), "q", candidates(3))
		assert.ErrorIs(t, err, domain.ErrSelectorUnavailable)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("unparseable answer", func(t *testing.T) {
		s := newGeminiSelector(GeminiOptions{}, func(context.Context, string) (string, error) {
			return strings.Repeat("no ", 50), nil
		})
		_, err := s.SelectBest(context.Background(), "q", candidates(3))
		assert.ErrorIs(t, err, domain.ErrSelectorUnavailable)
	})

	t.Run("no candidates", func(t *testing.T) {
		s := newGeminiSelector(GeminiOptions{}, func(context.Context, string) (string, error) {
			t.Fatal("generate should not be called")
			return "", nil
		})
		_, err := s.SelectBest(context.Background(), "q", nil)
		assert.ErrorIs(t, err, domain.ErrSelectorUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		s := newGeminiSelector(GeminiOptions{Timeout: 20 * time.Millisecond}, func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
		_, err := s.SelectBest(context.Background(), "q", candidates(3))
		assert.ErrorIs(t, err, domain.ErrSelectorUnavailable)
	})
}

func TestNewGeminiSelector_RequiresKey(t *testing.T) {
	_, err := NewGeminiSelector(context.Background(), GeminiOptions{})
	assert.ErrorIs(t, err, domain.ErrSelectorUnavailable)
}

func TestNewGeminiSelector_Defaults(t *testing.T) {
	s := newGeminiSelector(GeminiOptions{}, nil)
	assert.Equal(t, DefaultTopK, s.topK)
	assert.Equal(t, DefaultMaxCandidates, s.maxCandidates)
	assert.Equal(t, defaultTimeout, s.timeout)
	assert.NoError(t, s.Close())
}

func TestFirstCandidate(t *testing.T) {
	indices, err := FirstCandidate{}.SelectBest(context.Background(), "q", candidates(3))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indices)

	_, err = FirstCandidate{}.SelectBest(context.Background(), "q", nil)
	assert.ErrorIs(t, err, domain.ErrSelectorUnavailable)
}

func TestByRelevance(t *testing.T) {
	cands := []domain.Candidate{
		{Index: 0, Name: "a", Score: 40},
		{Index: 1, Name: "b", Score: 90},
		{Index: 2, Name: "c", Score: 40},
		{Index: 3, Name: "d", Score: 75},
		{Index: 4, Name: "e", Score: 10},
	}

	indices, err := ByRelevance{TopK: 3}.SelectBest(context.Background(), "q", cands)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 0}, indices)

	indices, err = ByRelevance{}.SelectBest(context.Background(), "q", cands[:2])
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, indices)

	assert.Equal(t, 40.0, cands[0].Score, "input is not reordered")
	assert.Equal(t, 0, cands[0].Index)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, FirstCandidate{}, New(ctx, ProviderNone, GeminiOptions{}))
	assert.Equal(t, ByRelevance{TopK: 3}, New(ctx, ProviderRelevance, GeminiOptions{TopK: 3}))
	assert.Equal(t, ByRelevance{TopK: 3}, New(ctx, "", GeminiOptions{TopK: 3}))

	t.Run("gemini without a key degrades to the first candidate", func(t *testing.T) {
		s := New(ctx, ProviderGemini, GeminiOptions{Model: DefaultModel})
		assert.Equal(t, FirstCandidate{}, s)

		indices, err := s.SelectBest(ctx, "milk", []domain.Candidate{{Index: 0, Name: "Milk"}, {Index: 1, Name: "Oat Milk"}})
		require.NoError(t, err)
		assert.Equal(t, []int{0}, indices)
	})
}
