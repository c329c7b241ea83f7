package trolley

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/georglynx/grocerycompare/internal/domain"
)

// ParseListing extracts product stubs from a results or category page.
// Links without a usable name (image-only tiles, bare prices) are skipped
// before they count against max. The first named link for a code wins and at
// most max stubs are returned (max <= 0 means no cap). A page without product
// links yields an empty slice, not an error.
func ParseListing(page string, baseURL string, max int) ([]domain.ProductStub, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}
	base, _ := url.Parse(baseURL)

	stubs := make([]domain.ProductStub, 0)
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		stub, ok := parseProductLink(a, base)
		if !ok || seen[stub.Code] || utf8.RuneCountInString(stub.Name) < minNameLength {
			return true
		}
		seen[stub.Code] = true
		stubs = append(stubs, stub)
		return max <= 0 || len(stubs) < max
	})

	return stubs, nil
}
