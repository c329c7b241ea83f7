package trolley

import (
	"net/url"
	"strings"

	"github.com/gosimple/slug"
)

// DefaultBaseURL is the price comparison site scraped for listings and product pages
const DefaultBaseURL = "https://www.trolley.co.uk"

// DefaultListingTemplates are tried in order for a listing search. The site is
// inconsistent about singular, plural and category slugs, so several shapes are needed.
var DefaultListingTemplates = []string{
	"/search/?q={query}",
	"/explore/{slug}",
	"/explore/{plural}",
	"/explore/{singular}",
}

// ListingURLs expands the listing templates for a query, dropping duplicates.
// Relative templates are joined to the base URL.
func (c *Client) ListingURLs(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	base := slug.Make(query)
	replacer := strings.NewReplacer(
		"{query}", url.QueryEscape(query),
		"{slug}", base,
		"{plural}", pluralSlug(base),
		"{singular}", singularSlug(base),
	)

	seen := make(map[string]bool)
	urls := make([]string, 0, len(c.templates))
	for _, tmpl := range c.templates {
		u := replacer.Replace(tmpl)
		if strings.HasPrefix(u, "/") {
			u = c.baseURL + u
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// DetailURL builds a product page address. The site resolves pages by code,
// so a placeholder is used when the slug is unknown.
func (c *Client) DetailURL(code, productSlug string) string {
	if productSlug == "" {
		productSlug = "item"
	}
	return c.baseURL + "/product/" + url.PathEscape(productSlug) + "/" + url.PathEscape(code)
}

// singularSlug turns the last word of a slug into its singular form
func singularSlug(s string) string {
	head, last := splitLastWord(s)
	switch {
	case strings.HasSuffix(last, "ies") && len(last) > 4:
		last = strings.TrimSuffix(last, "ies") + "y"
	case strings.HasSuffix(last, "oes"), strings.HasSuffix(last, "ches"),
		strings.HasSuffix(last, "shes"), strings.HasSuffix(last, "xes"):
		last = strings.TrimSuffix(last, "es")
	case strings.HasSuffix(last, "s") && !strings.HasSuffix(last, "ss") && len(last) > 3:
		last = strings.TrimSuffix(last, "s")
	}
	return head + last
}

// pluralSlug turns the last word of a slug into its plural form
func pluralSlug(s string) string {
	head, last := splitLastWord(s)
	switch {
	case last == "":
	case strings.HasSuffix(last, "s") && !strings.HasSuffix(last, "ss"):
		// already plural
	case strings.HasSuffix(last, "y") && len(last) > 1 && !strings.ContainsAny(last[len(last)-2:len(last)-1], "aeiou"):
		last = strings.TrimSuffix(last, "y") + "ies"
	case strings.HasSuffix(last, "ss"), strings.HasSuffix(last, "ch"),
		strings.HasSuffix(last, "sh"), strings.HasSuffix(last, "x"),
		strings.HasSuffix(last, "o"):
		last += "es"
	default:
		last += "s"
	}
	return head + last
}

func splitLastWord(s string) (string, string) {
	i := strings.LastIndex(s, "-")
	if i < 0 {
		return "", s
	}
	return s[:i+1], s[i+1:]
}
