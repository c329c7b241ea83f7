package trolley

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/georglynx/grocerycompare/internal/domain"
)

// Client reads listings and product pages from the price comparison site
type Client struct {
	fetcher   domain.PageFetcher
	baseURL   string
	templates []string
}

// NewClient creates a client. Empty baseURL or templates fall back to the defaults.
func NewClient(fetcher domain.PageFetcher, baseURL string, templates []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(templates) == 0 {
		templates = DefaultListingTemplates
	}
	return &Client{
		fetcher:   fetcher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		templates: templates,
	}
}

// FetchListing fetches one listing URL and parses up to max stubs
func (c *Client) FetchListing(ctx context.Context, url string, max int) ([]domain.ProductStub, error) {
	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	stubs, err := ParseListing(page, c.baseURL, max)
	if err != nil {
		return nil, err
	}
	log.Printf("[TROLLEY] %s -> %d products", url, len(stubs))
	return stubs, nil
}

// FetchDetail fetches and parses a product page addressed by code
func (c *Client) FetchDetail(ctx context.Context, code, productSlug string) (*domain.ProductDetail, error) {
	url := c.DetailURL(code, productSlug)
	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	detail, err := ParseDetail(page, code, productSlug, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", code, err)
	}
	if detail.ProductURL == "" {
		detail.ProductURL = url
	}
	log.Printf("[TROLLEY] product %s -> %d store prices, %d alternatives",
		code, len(detail.StorePrices), len(detail.Alternatives))
	return detail, nil
}
