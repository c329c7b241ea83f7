// Package pricetext pulls prices, unit prices and pack weights out of free text
// scraped from product listings and detail pages.
package pricetext

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Sanity window for a normalized pack size in grams or millilitres.
// Anything outside it is treated as a parsing error.
const (
	MinNormalizedAmount = 5.0
	MaxNormalizedAmount = 50000.0
)

// mlPerPint is the imperial pint approximation used for per-100ml figures
const mlPerPint = 568.0

var (
	amountRegex    = regexp.MustCompile(`£\s?(\d+(?:\.\d{1,2})?)`)
	qualifierRegex = regexp.MustCompile(`(?i)^\s*(?:per\s+\S|/\s*\d*\.?\d*\s*[a-z]|each\b)`)
	unitPriceRegex = regexp.MustCompile(`(?i)£\s?(\d+(?:\.\d{1,2})?)\s*(?:per\s+(\d*\.?\d*\s*[a-z]+)|/\s*(\d*\.?\d*\s*[a-z]+)|(each)\b)`)
	weightRegex    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s?(kg|g|ml|l|pt)\b`)
	weightToken    = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(kg|g|ml|l|pt)\s*$`)
	perPrefixRegex = regexp.MustCompile(`(?i)(?:per\s*|/\s*)$`)
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// UnitPrice is a "£X per Y" figure
type UnitPrice struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// ParseAmount converts a decimal string such as "2.50" to a float.
// Returns 0 when the string is not a number.
func ParseAmount(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// ExtractItemPrice returns the first currency amount in text that is not
// qualified as a unit price ("£X per Y", "£X/Y", "£X each").
// Returns 0 when no such amount exists; 0 is never a real price.
func ExtractItemPrice(text string) float64 {
	for _, loc := range amountRegex.FindAllStringSubmatchIndex(text, -1) {
		if qualifierRegex.MatchString(text[loc[1]:]) {
			continue
		}
		if amount := ParseAmount(text[loc[2]:loc[3]]); amount > 0 {
			return amount
		}
	}
	return 0
}

// ExtractPricePerUnit finds "£X per Y" or "£X each". The latter is reported
// with unit "per item".
func ExtractPricePerUnit(text string) *UnitPrice {
	m := unitPriceRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	amount := ParseAmount(m[1])
	if amount <= 0 {
		return nil
	}

	var unit string
	switch {
	case m[4] != "":
		unit = "per item"
	case m[2] != "":
		unit = "per " + compactUnit(m[2])
	default:
		unit = "per " + compactUnit(m[3])
	}
	return &UnitPrice{Amount: amount, Unit: unit}
}

// ExtractWeight returns the first magnitude+unit token (g, kg, ml, l, pt),
// ignoring sizes that belong to a unit price such as "per 100g".
func ExtractWeight(text string) *string {
	for _, loc := range weightRegex.FindAllStringSubmatchIndex(text, -1) {
		if perPrefixRegex.MatchString(text[:loc[0]]) {
			continue
		}
		token := text[loc[2]:loc[3]] + strings.ToLower(text[loc[4]:loc[5]])
		return &token
	}
	return nil
}

// NormalizeWeight converts a weight token to grams or millilitres.
// ok is false when the token cannot be parsed.
func NormalizeWeight(weight string) (amount float64, ok bool) {
	m := weightToken.FindStringSubmatch(weight)
	if m == nil {
		return 0, false
	}
	amount = ParseAmount(m[1])
	switch strings.ToLower(m[2]) {
	case "kg", "l":
		amount *= 1000
	case "pt":
		amount *= mlPerPint
	}
	return amount, true
}

// ComputePer100g returns price per 100g (or 100ml) for a weight token, or nil
// when the price is missing, the token is unparseable, or the normalized
// amount is outside [MinNormalizedAmount, MaxNormalizedAmount].
func ComputePer100g(price float64, weight string) *float64 {
	if price <= 0 {
		return nil
	}
	amount, ok := NormalizeWeight(weight)
	if !ok || amount < MinNormalizedAmount || amount > MaxNormalizedAmount {
		return nil
	}
	per100 := price / amount * 100
	return &per100
}

// StripPricesAndWeights removes currency amounts, unit price phrases and
// weight tokens, leaving the descriptive part of a product label.
func StripPricesAndWeights(text string) string {
	text = unitPriceRegex.ReplaceAllString(text, " ")
	text = amountRegex.ReplaceAllString(text, " ")
	text = weightRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRegex.ReplaceAllString(text, " "))
}

func compactUnit(u string) string {
	return strings.ToLower(spaceRegex.ReplaceAllString(strings.TrimSpace(u), ""))
}
