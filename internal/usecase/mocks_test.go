package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/georglynx/grocerycompare/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockProductSource is a mock implementation of domain.ProductSource
type MockProductSource struct {
	mu           sync.Mutex
	urls         []string
	listings     map[string][]domain.ProductStub
	listingError map[string]error
	details      map[string]*domain.ProductDetail
	detailError  map[string]error
	detailDelay  time.Duration
	listingCalls []string
	detailCalls  []string
}

func NewMockProductSource() *MockProductSource {
	return &MockProductSource{
		urls:         []string{"u1", "u2", "u3"},
		listings:     make(map[string][]domain.ProductStub),
		listingError: make(map[string]error),
		details:      make(map[string]*domain.ProductDetail),
		detailError:  make(map[string]error),
	}
}

func (m *MockProductSource) ListingURLs(query string) []string {
	return m.urls
}

func (m *MockProductSource) FetchListing(ctx context.Context, url string, max int) ([]domain.ProductStub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listingCalls = append(m.listingCalls, url)
	if err := m.listingError[url]; err != nil {
		return nil, err
	}
	stubs := m.listings[url]
	if max > 0 && len(stubs) > max {
		stubs = stubs[:max]
	}
	return stubs, nil
}

func (m *MockProductSource) FetchDetail(ctx context.Context, code, slug string) (*domain.ProductDetail, error) {
	if m.detailDelay > 0 {
		time.Sleep(m.detailDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls = append(m.detailCalls, code)
	if err := m.detailError[code]; err != nil {
		return nil, err
	}
	if d, ok := m.details[code]; ok {
		return d, nil
	}
	return nil, &domain.FetchError{URL: "/product/" + slug + "/" + code, StatusCode: 404}
}

// MockSelector is a mock implementation of domain.CandidateSelector
type MockSelector struct {
	indices    []int
	err        error
	called     bool
	candidates []domain.Candidate
}

func (m *MockSelector) SelectBest(ctx context.Context, query string, candidates []domain.Candidate) ([]int, error) {
	m.called = true
	m.candidates = candidates
	if m.err != nil {
		return nil, m.err
	}
	return m.indices, nil
}

func ptr[T any](v T) *T {
	return &v
}

func stub(code, name, store string, price float64) domain.ProductStub {
	return domain.ProductStub{
		Code:  code,
		Slug:  fmt.Sprintf("slug-%s", code),
		Name:  name,
		Store: store,
		Price: price,
	}
}
