package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching serialized responses
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageFetcher retrieves the raw HTML of a remote page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ProductSource reads listings and product pages from the price comparison site
type ProductSource interface {
	ListingURLs(query string) []string
	FetchListing(ctx context.Context, url string, max int) ([]ProductStub, error)
	FetchDetail(ctx context.Context, code, slug string) (*ProductDetail, error)
}

// CandidateSelector ranks listing candidates against a query and returns
// the indices of the best matches, best first.
type CandidateSelector interface {
	SelectBest(ctx context.Context, query string, candidates []Candidate) ([]int, error)
}
