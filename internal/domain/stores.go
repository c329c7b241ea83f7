package domain

import (
	"regexp"
	"strings"
)

// Store is one row of the known-store table
type Store struct {
	Name          string
	LoyaltyScheme string
	Pattern       *regexp.Regexp
}

// Stores is the fixed set of retailers the site compares, in match priority order.
// Only Tesco and Sainsbury's run a loyalty price scheme.
var Stores = []Store{
	{Name: "Tesco", LoyaltyScheme: "Clubcard", Pattern: regexp.MustCompile(`(?i)\btesco\b`)},
	{Name: "Sainsbury's", LoyaltyScheme: "Nectar", Pattern: regexp.MustCompile(`(?i)\bsainsbury(?:['’]?s)?\b`)},
	{Name: "Asda", Pattern: regexp.MustCompile(`(?i)\basda\b`)},
	{Name: "Morrisons", Pattern: regexp.MustCompile(`(?i)\bmorrisons\b`)},
	{Name: "Aldi", Pattern: regexp.MustCompile(`(?i)\baldi\b`)},
	{Name: "Lidl", Pattern: regexp.MustCompile(`(?i)\blidl\b`)},
	{Name: "Waitrose", Pattern: regexp.MustCompile(`(?i)\bwaitrose\b`)},
	{Name: "Co-op", Pattern: regexp.MustCompile(`(?i)\bco-?op\b`)},
	{Name: "Iceland", Pattern: regexp.MustCompile(`(?i)\biceland\b`)},
	{Name: "Ocado", Pattern: regexp.MustCompile(`(?i)\bocado\b`)},
	{Name: "M&S", Pattern: regexp.MustCompile(`(?i)\bM\s?&(?:amp;)?\s?S\b|\bmarks\s*(?:&|and)\s*spencer\b`)},
}

// MatchStore returns the first known store whose pattern occurs in text
func MatchStore(text string) (Store, bool) {
	for _, s := range Stores {
		if s.Pattern.MatchString(text) {
			return s, true
		}
	}
	return Store{}, false
}

// LookupStore finds a store by its canonical name, case-insensitively
func LookupStore(name string) (Store, bool) {
	for _, s := range Stores {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Store{}, false
}

// StorePattern returns a regexp matching any known store name.
// Leftmost match wins, so each occurrence maps to exactly one store.
func StorePattern() *regexp.Regexp {
	parts := make([]string, 0, len(Stores))
	for _, s := range Stores {
		parts = append(parts, "(?:"+strings.TrimPrefix(s.Pattern.String(), "(?i)")+")")
	}
	return regexp.MustCompile("(?i)" + strings.Join(parts, "|"))
}
