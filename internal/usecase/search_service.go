package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/georglynx/grocerycompare/internal/domain"
	"golang.org/x/sync/errgroup"
)

var (
	productCodeRegex = regexp.MustCompile(`^[A-Z0-9]{3,64}$`)
	productSlugRegex = regexp.MustCompile(`^[A-Za-z0-9-]{0,200}$`)
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL          time.Duration
	TopK              int
	DetailConcurrency int
	DefaultMaxResults int
	MaxResultsLimit   int
	Relevance         RelevanceConfig
}

// SearchService runs listing, detail and compare requests against the product source
type SearchService struct {
	source            domain.ProductSource
	selector          domain.CandidateSelector
	cache             domain.CacheRepository
	scorer            *RelevanceScorer
	cacheTTL          time.Duration
	topK              int
	detailConcurrency int
	defaultMaxResults int
	maxResultsLimit   int
}

// NewSearchService creates a new search service with dependencies.
// A nil selector always picks the first listing result.
func NewSearchService(
	source domain.ProductSource,
	selector domain.CandidateSelector,
	cache domain.CacheRepository,
	config SearchServiceConfig,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	topK := config.TopK
	if topK <= 0 {
		topK = 4
	}
	concurrency := config.DetailConcurrency
	if concurrency <= 0 {
		concurrency = topK
	}
	limit := config.MaxResultsLimit
	if limit <= 0 {
		limit = 50
	}
	defaultMax := config.DefaultMaxResults
	if defaultMax <= 0 || defaultMax > limit {
		defaultMax = min(20, limit)
	}

	return &SearchService{
		source:            source,
		selector:          selector,
		cache:             cache,
		scorer:            NewRelevanceScorer(config.Relevance),
		cacheTTL:          cacheTTL,
		topK:              topK,
		detailConcurrency: concurrency,
		defaultMaxResults: defaultMax,
		maxResultsLimit:   limit,
	}
}

// Search returns the listing for a query.
// Flow: validate -> check cache -> try URL variants in order -> cache -> return
func (s *SearchService) Search(ctx context.Context, query string, maxResults int) (*domain.ListingResult, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}
	maxResults = s.clampMaxResults(maxResults)

	cacheKey := "listing:" + normalizeForCacheKey(query) + ":" + strconv.Itoa(maxResults)
	var cached domain.ListingResult
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	result, err := s.listing(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if result.TotalResults > 0 {
		s.setInCache(ctx, cacheKey, result)
	}
	return result, nil
}

// Detail returns the parsed product page for a code.
// This is the one mode where an upstream failure is an error for the caller.
func (s *SearchService) Detail(ctx context.Context, code, productSlug string) (*domain.ProductDetail, error) {
	if !productCodeRegex.MatchString(code) {
		return nil, fmt.Errorf("%w: invalid product code", domain.ErrInvalidRequest)
	}
	if !productSlugRegex.MatchString(productSlug) {
		return nil, fmt.Errorf("%w: invalid product slug", domain.ErrInvalidRequest)
	}

	cacheKey := "detail:" + code
	var cached domain.ProductDetail
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	detail, err := s.source.FetchDetail(ctx, code, productSlug)
	if err != nil {
		log.Printf("[SEARCH] %s detail %s failed: %v", domain.RequestID(ctx), code, err)
		if errors.Is(err, domain.ErrUpstreamFetch) {
			return nil, fmt.Errorf("product %s: %w", code, err)
		}
		return nil, fmt.Errorf("%w: product %s: %w", domain.ErrUpstreamFetch, code, err)
	}

	s.setInCache(ctx, cacheKey, detail)
	return detail, nil
}

// Compare builds the cross-store table for a query.
// Flow: listing -> select top candidates -> fetch details concurrently -> merge -> sort
func (s *SearchService) Compare(ctx context.Context, query string) (*domain.CompareResult, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}

	cacheKey := "compare:" + normalizeForCacheKey(query)
	var cached domain.CompareResult
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	result := &domain.CompareResult{Query: query, StorePrices: []domain.ComparisonRow{}}

	listing, err := s.listing(ctx, query, s.defaultMaxResults)
	if err != nil {
		return nil, err
	}
	if len(listing.Products) == 0 {
		return result, nil
	}

	candidates := s.scorer.Candidates(query, listing.Products)
	indices := s.selectCandidates(ctx, query, candidates)

	details := s.fetchDetails(ctx, listing.Products, indices)
	rows := MergeStorePrices(details)
	sortRows(rows)
	result.StorePrices = rows

	log.Printf("[SEARCH] %s compare %q: %d candidates, %d selected, %d store rows",
		domain.RequestID(ctx), query, len(candidates), len(indices), len(rows))

	if len(rows) > 0 {
		s.setInCache(ctx, cacheKey, result)
	}
	return result, nil
}

// listing tries each URL variant in order; the first with a usable stub wins.
// Fetch and parse failures only skip the variant.
func (s *SearchService) listing(ctx context.Context, query string, maxResults int) (*domain.ListingResult, error) {
	for _, url := range s.source.ListingURLs(query) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stubs, err := s.source.FetchListing(ctx, url, maxResults)
		if err != nil {
			log.Printf("[SEARCH] %s listing %s skipped: %v", domain.RequestID(ctx), url, err)
			continue
		}

		usable := make([]domain.ProductStub, 0, len(stubs))
		for _, stub := range stubs {
			if utf8.RuneCountInString(stub.Name) >= 3 {
				usable = append(usable, stub)
			}
		}
		if len(usable) > 0 {
			return &domain.ListingResult{
				Query:        query,
				Products:     usable,
				TotalResults: len(usable),
				Source:       url,
			}, nil
		}
	}

	log.Printf("[SEARCH] %s no listing results for %q", domain.RequestID(ctx), query)
	return &domain.ListingResult{Query: query, Products: []domain.ProductStub{}}, nil
}

// selectCandidates asks the selector for the best candidates and falls back
// to the first listing result on any failure. Returned indices are valid,
// unique and at most topK long.
func (s *SearchService) selectCandidates(ctx context.Context, query string, candidates []domain.Candidate) []int {
	if s.selector == nil {
		return []int{0}
	}

	indices, err := s.selector.SelectBest(ctx, query, candidates)
	if err != nil {
		log.Printf("[SELECTOR] %s falling back to first result: %v", domain.RequestID(ctx), err)
		return []int{0}
	}

	selected := make([]int, 0, s.topK)
	seen := make(map[int]bool)
	for _, i := range indices {
		if i < 0 || i >= len(candidates) || seen[i] {
			continue
		}
		seen[i] = true
		selected = append(selected, i)
		if len(selected) == s.topK {
			break
		}
	}
	if len(selected) == 0 {
		log.Printf("[SELECTOR] %s no valid indices in %v, using first result", domain.RequestID(ctx), indices)
		return []int{0}
	}
	return selected
}

// fetchDetails fetches the selected products concurrently. A failed fetch
// leaves a nil slot and never cancels its siblings.
func (s *SearchService) fetchDetails(ctx context.Context, products []domain.ProductStub, indices []int) []*domain.ProductDetail {
	details := make([]*domain.ProductDetail, len(indices))

	var g errgroup.Group
	g.SetLimit(s.detailConcurrency)
	for slot, idx := range indices {
		stub := products[idx]
		g.Go(func() error {
			detail, err := s.source.FetchDetail(ctx, stub.Code, stub.Slug)
			if err != nil {
				log.Printf("[SEARCH] %s detail %s excluded: %v", domain.RequestID(ctx), stub.Code, err)
				return nil
			}
			details[slot] = detail
			return nil
		})
	}
	_ = g.Wait()

	return details
}

// sortRows orders rows by price per 100g, rows without one last, then by best price and store name
func sortRows(rows []domain.ComparisonRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.Per100g != nil && b.Per100g != nil:
			if *a.Per100g != *b.Per100g {
				return *a.Per100g < *b.Per100g
			}
		case a.Per100g != nil:
			return true
		case b.Per100g != nil:
			return false
		}
		if a.BestPrice != b.BestPrice {
			return a.BestPrice < b.BestPrice
		}
		return a.Store < b.Store
	})
}

func (s *SearchService) clampMaxResults(n int) int {
	if n <= 0 {
		return s.defaultMaxResults
	}
	if n > s.maxResultsLimit {
		return s.maxResultsLimit
	}
	return n
}

func validateQuery(query string) (string, error) {
	query = CleanQuery(query)
	if query == "" {
		return "", fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		return "", fmt.Errorf("%w: query must be at most %d characters", domain.ErrInvalidRequest, maxQueryLength)
	}
	return query, nil
}

// getFromCache decodes a cached value into v. Any cache or decode error is a miss.
func (s *SearchService) getFromCache(ctx context.Context, key string, v any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("[SEARCH] %s dropping undecodable cache entry %s: %v", domain.RequestID(ctx), key, err)
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

// setInCache stores a successful response; failures are logged, never returned
func (s *SearchService) setInCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[SEARCH] %s cannot encode %s for cache: %v", domain.RequestID(ctx), key, err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		log.Printf("[SEARCH] %s cache set %s failed: %v", domain.RequestID(ctx), key, err)
	}
}
