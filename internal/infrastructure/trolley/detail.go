package trolley

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/georglynx/grocerycompare/internal/pricetext"
)

const (
	// sectionBudget bounds the "where to buy" text when no closing marker is found
	sectionBudget = 4000
	// unavailableWindow is how far into a store segment an unavailable marker counts
	unavailableWindow = 60
	// maxAlternatives caps the alternatives list
	maxAlternatives = 8
)

const amountPattern = `£\s?(\d+(?:\.\d{1,2})?)`

var (
	sectionStartRegex = regexp.MustCompile(`(?i)where to buy|compare prices`)
	sectionEndRegex   = regexp.MustCompile(`(?i)price history|similar products|alternatives|you may also like|related products|nutrition|ingredients|product information|reviews`)
	unavailableRegex  = regexp.MustCompile(`(?i)unavailable|out of stock|not available|not stocked`)
	titleSuffixRegex  = regexp.MustCompile(`(?i)\s*(?:[|\-–—]\s*)?(?:compare prices(?: at)?\s*)?(?:[|\-–—]\s*)?trolley(?:\.co\.uk)?.*$`)
	usualPriceRegex   = regexp.MustCompile(`(?i)usual(?:ly)?(?:\s+price)?\s*:?\s*` + amountPattern)
	highestPriceRegex = regexp.MustCompile(`(?i)highest(?:\s+price)?\s*:?\s*` + amountPattern)
	storeNameRegex    = domain.StorePattern()
)

// promotionPatterns are the multi-buy phrasings recognised in a store segment, most specific first
var promotionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)any\s+\d+\s+for\s+` + amountPattern),
	regexp.MustCompile(`(?i)\d+\s+for\s+` + amountPattern),
	regexp.MustCompile(`(?i)buy\s+\d+\s+get\s+\d+\s+(?:free|half\s+price)`),
	regexp.MustCompile(`(?i)\b\d+\s+for\s+\d+\b`),
	regexp.MustCompile(`(?i)half\s+price`),
	regexp.MustCompile(`(?i)\d+%\s+off`),
	regexp.MustCompile(`(?i)save\s+` + amountPattern),
}

// loyaltyPatterns holds, per scheme store, the two orderings the site uses:
// "SCHEME price £X" and "£X SCHEME".
var loyaltyPatterns = buildLoyaltyPatterns()

func buildLoyaltyPatterns() map[string][]*regexp.Regexp {
	patterns := make(map[string][]*regexp.Regexp)
	for _, s := range domain.Stores {
		if s.LoyaltyScheme == "" {
			continue
		}
		scheme := regexp.QuoteMeta(s.LoyaltyScheme)
		patterns[s.Name] = []*regexp.Regexp{
			regexp.MustCompile(`(?i)` + scheme + `(?:\s+(?:member\s+)?price)?\s*:?\s*` + amountPattern),
			regexp.MustCompile(`(?i)` + amountPattern + `\s*(?:with\s+)?` + scheme),
		}
	}
	return patterns
}

// ParseDetail extracts the per-store prices, alternatives and price history
// from a product page. Sections that cannot be found produce empty slices.
func ParseDetail(page, code, productSlug, baseURL string) (*domain.ProductDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail HTML: %w", err)
	}
	base, _ := url.Parse(baseURL)

	title := collapse(doc.Find("title").First().Text())
	detail := &domain.ProductDetail{
		Code:         code,
		Slug:         productSlug,
		Name:         detailName(doc, title),
		StorePrices:  []domain.StorePriceEntry{},
		Alternatives: []domain.ProductStub{},
	}

	detail.Weight = pricetext.ExtractWeight(detail.Name)
	if detail.Weight == nil {
		detail.Weight = pricetext.ExtractWeight(title)
	}
	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		detail.ImageURL = resolve(base, img)
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		detail.ProductURL = resolve(base, canonical)
	}

	text := flattenText(doc.Find("body"))
	detail.StorePrices = parseStorePrices(whereToBuySection(text))
	detail.Alternatives = parseAlternatives(doc, code, base)
	detail.PriceHistory = parsePriceHistory(text)

	return detail, nil
}

// detailName prefers the page heading and falls back to the title minus site branding
func detailName(doc *goquery.Document, title string) string {
	if h1 := flattenText(doc.Find("h1").First()); len(h1) >= minNameLength {
		return h1
	}
	return strings.TrimSpace(titleSuffixRegex.ReplaceAllString(title, ""))
}

// whereToBuySection returns the text between the "where to buy" heading and
// the next known section heading, or a fixed budget when there is none.
func whereToBuySection(text string) string {
	loc := sectionStartRegex.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	section := text[loc[1]:]
	if end := sectionEndRegex.FindStringIndex(section); end != nil {
		return section[:end[0]]
	}
	if len(section) > sectionBudget {
		section = section[:sectionBudget]
	}
	return section
}

// parseStorePrices splits the section on store names and parses each segment.
// The first priced segment for a store is kept.
func parseStorePrices(section string) []domain.StorePriceEntry {
	entries := []domain.StorePriceEntry{}
	if section == "" {
		return entries
	}

	locs := storeNameRegex.FindAllStringIndex(section, -1)
	seen := make(map[string]bool)
	for i, loc := range locs {
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		store, ok := domain.MatchStore(section[loc[0]:loc[1]])
		if !ok || seen[store.Name] {
			continue
		}
		entry, ok := parseStoreSegment(store, section[loc[1]:end])
		if !ok {
			continue
		}
		seen[store.Name] = true
		entries = append(entries, entry)
	}
	return entries
}

// parseStoreSegment reads one store's price block. ok is false when the store
// is marked unavailable or no item price can be found.
func parseStoreSegment(store domain.Store, segment string) (domain.StorePriceEntry, bool) {
	head := segment
	if len(head) > unavailableWindow {
		head = head[:unavailableWindow]
	}
	if unavailableRegex.MatchString(head) {
		return domain.StorePriceEntry{}, false
	}

	priceText := segment
	var promotion *string
	for _, re := range promotionPatterns {
		if loc := re.FindStringIndex(segment); loc != nil {
			promo := collapse(segment[loc[0]:loc[1]])
			promotion = &promo
			priceText = segment[:loc[0]] + " " + segment[loc[1]:]
			break
		}
	}

	price, loyalty := extractLoyaltyPrice(store, priceText)
	if price <= 0 {
		price = pricetext.ExtractItemPrice(priceText)
	}
	if price <= 0 {
		return domain.StorePriceEntry{}, false
	}

	entry := domain.NewStorePriceEntry(store.Name, price, loyalty, store.LoyaltyScheme)
	entry.Promotion = promotion
	if up := pricetext.ExtractPricePerUnit(priceText); up != nil {
		amount, unit := up.Amount, up.Unit
		entry.PricePerUnit = &amount
		entry.Unit = &unit
	}
	return entry, true
}

// extractLoyaltyPrice tries the store's loyalty orderings in turn. The labelled
// amount is removed before reading the item price, and the loyalty price is only
// accepted when strictly below it. Returns a zero price when nothing is accepted.
func extractLoyaltyPrice(store domain.Store, text string) (float64, *float64) {
	for _, re := range loyaltyPatterns[store.Name] {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		loyalty := pricetext.ParseAmount(text[loc[2]:loc[3]])
		price := pricetext.ExtractItemPrice(text[:loc[0]] + " " + text[loc[1]:])
		if loyalty > 0 && price > 0 && loyalty < price {
			return price, &loyalty
		}
	}
	return 0, nil
}

// parseAlternatives collects links to other products that carry a store and a price
func parseAlternatives(doc *goquery.Document, code string, base *url.URL) []domain.ProductStub {
	alternatives := []domain.ProductStub{}
	seen := map[string]bool{code: true}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		stub, ok := parseProductLink(a, base)
		if !ok || seen[stub.Code] {
			return true
		}
		if stub.Store == "" || stub.Price <= 0 || len(stub.Name) < minNameLength {
			return true
		}
		seen[stub.Code] = true
		alternatives = append(alternatives, stub)
		return len(alternatives) < maxAlternatives
	})

	return alternatives
}

func parsePriceHistory(text string) domain.PriceHistory {
	var history domain.PriceHistory
	if m := usualPriceRegex.FindStringSubmatch(text); m != nil {
		if v := pricetext.ParseAmount(m[1]); v > 0 {
			history.Usual = &v
		}
	}
	if m := highestPriceRegex.FindStringSubmatch(text); m != nil {
		if v := pricetext.ParseAmount(m[1]); v > 0 {
			history.Highest = &v
		}
	}
	return history
}
