package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is used when no model name is configured
	DefaultModel = "gemini-1.5-flash"
	// DefaultTopK is how many indices the selector asks for
	DefaultTopK = 4
	// DefaultMaxCandidates bounds the prompt size
	DefaultMaxCandidates = 20
	defaultTimeout       = 8 * time.Second
)

var indexArrayRegex = regexp.MustCompile(`\[[-\d,\s]*\]`)

// GeminiOptions configures the Gemini selector
type GeminiOptions struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	TopK          int
	MaxCandidates int
}

// GeminiSelector asks a Gemini model which listing candidates best match a query
type GeminiSelector struct {
	client        *genai.Client
	generate      func(ctx context.Context, prompt string) (string, error)
	timeout       time.Duration
	topK          int
	maxCandidates int
}

// NewGeminiSelector creates a selector backed by the Gemini API
func NewGeminiSelector(ctx context.Context, opts GeminiOptions) (*GeminiSelector, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", domain.ErrSelectorUnavailable)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	modelName := opts.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You match UK supermarket products to a shopper's search. " +
				"Reply with a JSON array of candidate indices only, best match first.")},
	}

	s := newGeminiSelector(opts, func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		return responseText(resp), nil
	})
	s.client = client
	return s, nil
}

func newGeminiSelector(opts GeminiOptions, generate func(ctx context.Context, prompt string) (string, error)) *GeminiSelector {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &GeminiSelector{
		generate:      generate,
		timeout:       timeout,
		topK:          topK,
		maxCandidates: maxCandidates,
	}
}

// SelectBest returns up to topK candidate indices, best first.
// Any failure is reported as ErrSelectorUnavailable so the caller can degrade.
func (s *GeminiSelector) SelectBest(ctx context.Context, query string, candidates []domain.Candidate) ([]int, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", domain.ErrSelectorUnavailable)
	}
	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	prompt, err := buildPrompt(query, candidates, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSelectorUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSelectorUnavailable, err)
	}

	indices, err := parseIndices(text, candidates, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSelectorUnavailable, err)
	}
	log.Printf("[SELECTOR] %q -> %v", query, indices)
	return indices, nil
}

// Close releases the underlying client
func (s *GeminiSelector) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func buildPrompt(query string, candidates []domain.Candidate, topK int) (string, error) {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}
	return fmt.Sprintf(`Search: %q
Candidates (index, name, pack weight, price per 100g, relevance score 0-100):
%s
Pick the %d candidates that are the same kind of product as the search, preferring common pack sizes.
Answer with a JSON array of their "index" values, for example [3, 0, 7].`, query, payload, topK), nil
}

// parseIndices reads the first JSON array of integers in text and keeps the
// indices that belong to an offered candidate, without duplicates.
func parseIndices(text string, candidates []domain.Candidate, topK int) ([]int, error) {
	raw := indexArrayRegex.FindString(text)
	if raw == "" {
		return nil, fmt.Errorf("no index array in response %q", truncate(text, 80))
	}

	var values []int
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode indices: %w", err)
	}

	offered := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		offered[c.Index] = true
	}

	indices := make([]int, 0, topK)
	seen := make(map[int]bool)
	for _, v := range values {
		if !offered[v] || seen[v] {
			continue
		}
		seen[v] = true
		indices = append(indices, v)
		if len(indices) == topK {
			break
		}
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("no usable indices in %s", raw)
	}
	return indices, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..." + strconv.Itoa(len(s)-n) + " more"
}
