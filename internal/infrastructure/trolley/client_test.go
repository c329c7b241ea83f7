package trolley

import (
	"context"
	"errors"
	"testing"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned pages keyed by URL
type fakeFetcher struct {
	pages   map[string]string
	err     error
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	if f.err != nil {
		return "", f.err
	}
	page, ok := f.pages[url]
	if !ok {
		return "", &domain.FetchError{URL: url, StatusCode: 404}
	}
	return page, nil
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(&fakeFetcher{}, "", nil)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultListingTemplates, client.templates)

	client = NewClient(&fakeFetcher{}, "http://localhost:9000/", []string{"/s?q={query}"})
	assert.Equal(t, "http://localhost:9000", client.baseURL)
	assert.Equal(t, []string{"/s?q={query}"}, client.templates)
}

func TestClient_FetchListing(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://shop.test/search/?q=mozzarella": listingPage,
	}}
	client := NewClient(fetcher, "http://shop.test", nil)

	stubs, err := client.FetchListing(context.Background(), "http://shop.test/search/?q=mozzarella", 2)
	require.NoError(t, err)
	require.Len(t, stubs, 2)
	assert.Equal(t, "http://shop.test/product/galbani-mozzarella/ABC123", stubs[0].ProductURL)
	assert.Equal(t, []string{"http://shop.test/search/?q=mozzarella"}, fetcher.fetched)
}

func TestClient_FetchListing_FetchError(t *testing.T) {
	client := NewClient(&fakeFetcher{pages: map[string]string{}}, "http://shop.test", nil)

	stubs, err := client.FetchListing(context.Background(), "http://shop.test/explore/nothing", 10)
	require.Error(t, err)
	assert.Nil(t, stubs)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
}

func TestClient_FetchDetail(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://shop.test/product/galbani-mozzarella/ABC123": detailPage,
		"http://shop.test/product/item/MYS1":                 `<html><head><title>Mystery | Trolley</title></head><body></body></html>`,
	}}
	client := NewClient(fetcher, "http://shop.test", nil)

	detail, err := client.FetchDetail(context.Background(), "ABC123", "galbani-mozzarella")
	require.NoError(t, err)
	assert.Equal(t, "Galbani Mozzarella 125g", detail.Name)
	assert.Len(t, detail.StorePrices, 3)
	assert.Equal(t, "http://shop.test/product/galbani-mozzarella/ABC123", detail.ProductURL)

	detail, err = client.FetchDetail(context.Background(), "MYS1", "")
	require.NoError(t, err)
	assert.Equal(t, "Mystery", detail.Name)
	assert.Equal(t, "http://shop.test/product/item/MYS1", detail.ProductURL, "fetched URL is used when the page has no canonical link")
	assert.Empty(t, detail.StorePrices)
}

func TestClient_FetchDetail_PropagatesError(t *testing.T) {
	boom := errors.New("connection reset")
	client := NewClient(&fakeFetcher{err: boom}, "http://shop.test", nil)

	_, err := client.FetchDetail(context.Background(), "ABC123", "x")
	assert.ErrorIs(t, err, boom)
}
