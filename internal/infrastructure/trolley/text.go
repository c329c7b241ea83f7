package trolley

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/georglynx/grocerycompare/internal/pricetext"
	"golang.org/x/net/html"
)

var (
	productPathRegex = regexp.MustCompile(`/product/([^/?#]+)/([A-Z0-9]{3,64})(?:[/?#]|$)`)
	spaceRegex       = regexp.MustCompile(`\s+`)
)

// flattenText joins every text node under the selection with single spaces.
// goquery's Text() concatenates siblings directly ("Tesco£2.50").
func flattenText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// nameStrategy tries to pull a product name from a link; ok is false when it has nothing plausible
type nameStrategy func(a *goquery.Selection, text string) (string, bool)

// linkNameStrategies are tried in order until one yields a plausible name
var linkNameStrategies = []nameStrategy{
	nameFromTitleAttr,
	nameFromHeading,
	nameFromText,
}

func nameFromTitleAttr(a *goquery.Selection, _ string) (string, bool) {
	title, ok := a.Attr("title")
	title = collapse(title)
	return title, ok && len(title) >= minNameLength
}

func nameFromHeading(a *goquery.Selection, _ string) (string, bool) {
	name := flattenText(a.Find("h1, h2, h3, h4, h5, h6, strong, b").First())
	return name, len(name) >= minNameLength
}

func nameFromText(_ *goquery.Selection, text string) (string, bool) {
	name := pricetext.StripPricesAndWeights(text)
	return name, len(name) >= minNameLength
}

// minNameLength is the shortest name treated as real; shorter names are parse noise
const minNameLength = 3

func linkName(a *goquery.Selection, text string) string {
	var last string
	for _, strategy := range linkNameStrategies {
		name, ok := strategy(a, text)
		if ok {
			return name
		}
		if name != "" {
			last = name
		}
	}
	return last
}

// parseProductLink turns an anchor pointing at a product page into a stub.
// ok is false when the link is not a product link.
func parseProductLink(a *goquery.Selection, base *url.URL) (domain.ProductStub, bool) {
	href, _ := a.Attr("href")
	m := productPathRegex.FindStringSubmatch(href)
	if m == nil {
		return domain.ProductStub{}, false
	}

	text := flattenText(a)
	stub := domain.ProductStub{
		Name:       linkName(a, text),
		Slug:       m[1],
		Code:       m[2],
		Price:      pricetext.ExtractItemPrice(text),
		ProductURL: resolve(base, href),
	}

	if store, ok := domain.MatchStore(text); ok {
		stub.Store = store.Name
	}

	stub.Weight = pricetext.ExtractWeight(text)
	if stub.Weight == nil {
		stub.Weight = pricetext.ExtractWeight(stub.Name)
	}
	if up := pricetext.ExtractPricePerUnit(text); up != nil {
		amount, unit := up.Amount, up.Unit
		stub.PricePerUnit = &amount
		stub.Unit = &unit
	}
	if stub.Weight != nil {
		stub.Per100g = pricetext.ComputePer100g(stub.Price, *stub.Weight)
	}

	img := a.Find("img").First()
	if src, ok := img.Attr("src"); ok && src != "" && !strings.HasPrefix(src, "data:") {
		stub.ImageURL = resolve(base, src)
	} else if src, ok := img.Attr("data-src"); ok {
		stub.ImageURL = resolve(base, src)
	}

	return stub, true
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
