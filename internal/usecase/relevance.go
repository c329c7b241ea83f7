package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/georglynx/grocerycompare/internal/domain"
)

var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Token weight categories for scoring
const (
	weightFood        = 3.0 // Core food terms (milk, chicken, bread)
	weightDescriptive = 2.0 // Descriptive terms (semi, skimmed, organic)
	weightDefault     = 1.0 // Everything else
	fuzzyWeightFactor = 0.8 // Fuzzy matches get 80% of normal weight
)

const (
	substringMatchBonus = 10.0
	maxScore            = 100.0
)

// foodTerms contains high-importance food keywords
var foodTerms = map[string]bool{
	// Proteins
	"chicken": true, "beef": true, "pork": true, "fish": true, "salmon": true,
	"turkey": true, "lamb": true, "prawns": true, "tuna": true, "bacon": true,
	"sausages": true, "sausage": true, "steak": true, "ham": true, "mince": true,
	"cod": true, "haddock": true, "eggs": true, "egg": true, "tofu": true,
	// Dairy
	"milk": true, "cheese": true, "yogurt": true, "yoghurt": true, "butter": true,
	"cream": true, "cheddar": true, "mozzarella": true, "parmesan": true, "feta": true,
	"halloumi": true, "brie": true,
	// Bakery and grains
	"bread": true, "rice": true, "pasta": true, "cereal": true, "oats": true,
	"flour": true, "noodles": true, "wraps": true, "bagels": true, "crumpets": true,
	// Produce
	"apple": true, "apples": true, "banana": true, "bananas": true, "orange": true,
	"lettuce": true, "tomato": true, "tomatoes": true, "potato": true, "potatoes": true,
	"onion": true, "onions": true, "carrot": true, "carrots": true, "broccoli": true,
	"spinach": true, "strawberries": true, "blueberries": true, "grapes": true,
	"lemon": true, "lime": true, "avocado": true, "cucumber": true, "pepper": true,
	"peppers": true, "mushrooms": true, "beans": true, "peas": true,
	// Drinks
	"juice": true, "cola": true, "coffee": true, "tea": true, "water": true,
	"squash": true, "lemonade": true, "beer": true, "wine": true, "lager": true,
	// Cupboard and snacks
	"crisps": true, "biscuits": true, "chocolate": true, "cake": true, "jam": true,
	"honey": true, "ketchup": true, "mayonnaise": true, "sauce": true, "soup": true,
	"sugar": true, "oil": true, "pizza": true, "houmous": true, "hummus": true,
}

// descriptiveTerms contains medium-importance descriptive keywords
var descriptiveTerms = map[string]bool{
	// Preparation/processing
	"whole": true, "semi": true, "skimmed": true, "reduced": true, "fat": true,
	"low": true, "organic": true, "free": true, "range": true, "fresh": true,
	"frozen": true, "tinned": true, "dried": true, "smoked": true, "unsmoked": true,
	"cooked": true, "roast": true, "sliced": true, "grated": true, "diced": true,
	// Flavour/variety
	"mature": true, "mild": true, "extra": true, "vintage": true, "plain": true,
	"salted": true, "unsalted": true, "sweet": true, "spicy": true, "light": true,
	"diet": true, "original": true, "cherry": true, "baby": true, "greek": true,
	// Type descriptors
	"white": true, "brown": true, "wholemeal": true, "seeded": true, "sourdough": true,
	"british": true, "boneless": true, "skinless": true, "lean": true, "thighs": true,
	"breast": true, "fillets": true,
}

// extendedStopWords includes basic English stop words plus product-specific noise
var extendedStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	// Size/quantity units
	"g": true, "kg": true, "ml": true, "cl": true, "l": true, "pt": true,
	"litre": true, "litres": true, "pint": true, "pints": true, "gram": true,
	"grams": true,
	// Packaging terms
	"pack": true, "pk": true, "x": true, "each": true, "per": true,
}

// RelevanceConfig holds configuration for the relevance scorer
type RelevanceConfig struct {
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
	EnableDebugLogging  bool
}

// RelevanceScorer scores listing names against a shopper's query
type RelevanceScorer struct {
	preprocessor        *QueryPreprocessor
	enableFuzzyMatching bool
	fuzzyEditDistance   int
	enableDebugLogging  bool
}

// NewRelevanceScorer creates a new scorer with the given configuration
func NewRelevanceScorer(config RelevanceConfig) *RelevanceScorer {
	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	return &RelevanceScorer{
		preprocessor:        NewQueryPreprocessor(config.EnableDebugLogging),
		enableFuzzyMatching: config.EnableFuzzyMatching,
		fuzzyEditDistance:   fuzzyDist,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// Candidates turns listing stubs into selector candidates, each scored against the query.
// Candidate.Index is the stub's position in the listing.
func (s *RelevanceScorer) Candidates(query string, stubs []domain.ProductStub) []domain.Candidate {
	terms := s.preprocessor.KeyTerms(query)
	candidates := make([]domain.Candidate, len(stubs))
	for i, stub := range stubs {
		score, matched := s.score(query, terms, stub.Name)
		if s.enableDebugLogging {
			log.Printf("[MATCH] %q | Score: %.1f | Matched: %v", stub.Name, score, matched)
		}
		candidates[i] = domain.Candidate{
			Index:   i,
			Name:    stub.Name,
			Weight:  stub.Weight,
			Per100g: stub.Per100g,
			Score:   score,
		}
	}
	return candidates
}

// Score returns the relevance of a product name to a query on a 0-100 scale
func (s *RelevanceScorer) Score(query, name string) float64 {
	score, _ := s.score(query, s.preprocessor.KeyTerms(query), name)
	return score
}

// score combines:
//   - weighted query coverage: how much of the query (food terms count most) the name contains
//   - name coverage: what share of the name's tokens the query mentions
//   - a substring bonus when the cleaned query appears verbatim in the name
func (s *RelevanceScorer) score(query string, terms []string, name string) (float64, []string) {
	nameTokens := tokenize(name)
	if len(terms) == 0 || len(nameTokens) == 0 {
		return 0, nil
	}

	nameSet := make(map[string]bool, len(nameTokens))
	for _, t := range nameTokens {
		nameSet[t] = true
	}

	var totalWeight, matchedWeight float64
	var matched []string
	for _, term := range terms {
		w := tokenWeight(term)
		totalWeight += w
		if nameSet[term] {
			matchedWeight += w
			matched = append(matched, term)
			continue
		}
		if s.enableFuzzyMatching {
			for _, nt := range nameTokens {
				if fuzzyTokenMatch(term, nt, s.fuzzyEditDistance) {
					matchedWeight += w * fuzzyWeightFactor
					matched = append(matched, term+"~"+nt)
					break
				}
			}
		}
	}
	queryCoverage := matchedWeight / totalWeight

	nameMatched, _ := findIntersection(nameTokens, terms)
	nameCoverage := float64(nameMatched) / float64(len(nameTokens))

	score := (queryCoverage*0.75 + nameCoverage*0.25) * 90

	cleaned := strings.Join(tokenize(query), " ")
	if len(cleaned) > 3 && strings.Contains(strings.Join(nameTokens, " "), cleaned) {
		score += substringMatchBonus
	}

	if score > maxScore {
		score = maxScore
	}
	return score, matched
}

func tokenWeight(token string) float64 {
	switch {
	case foodTerms[token]:
		return weightFood
	case descriptiveTerms[token]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if extendedStopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens of 4+ chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of a full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}
