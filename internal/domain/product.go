package domain

// ProductStub is a lightweight product record parsed from a listing page.
// A zero Price means the price could not be found.
type ProductStub struct {
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	Slug         string   `json:"slug"`
	Store        string   `json:"store"`
	Price        float64  `json:"price"`
	Weight       *string  `json:"weight"`
	PricePerUnit *float64 `json:"pricePerUnit"`
	Unit         *string  `json:"unit"`
	Per100g      *float64 `json:"per100g,omitempty"`
	ImageURL     string   `json:"imageUrl"`
	ProductURL   string   `json:"productUrl"`
}

// StorePriceEntry is a confirmed price for one store taken from a product's detail page
type StorePriceEntry struct {
	Store         string   `json:"store"`
	Price         float64  `json:"price"`
	LoyaltyPrice  *float64 `json:"loyaltyPrice"`
	LoyaltyScheme *string  `json:"loyaltyScheme"`
	PricePerUnit  *float64 `json:"pricePerUnit"`
	Unit          *string  `json:"unit"`
	Promotion     *string  `json:"promotion"`
	BestPrice     float64  `json:"bestPrice"`
}

// NewStorePriceEntry builds an entry and derives BestPrice.
// A loyalty price that is not strictly below price is discarded together with its scheme.
func NewStorePriceEntry(store string, price float64, loyaltyPrice *float64, scheme string) StorePriceEntry {
	entry := StorePriceEntry{
		Store:     store,
		Price:     price,
		BestPrice: price,
	}
	if loyaltyPrice != nil && *loyaltyPrice > 0 && *loyaltyPrice < price {
		lp := *loyaltyPrice
		entry.LoyaltyPrice = &lp
		entry.BestPrice = lp
		if scheme != "" {
			entry.LoyaltyScheme = &scheme
		}
	}
	return entry
}

// EffectivePrice returns the loyalty price when it undercuts the regular price
func (e StorePriceEntry) EffectivePrice() float64 {
	if e.LoyaltyPrice != nil && *e.LoyaltyPrice < e.Price {
		return *e.LoyaltyPrice
	}
	return e.Price
}

// Row sources
const (
	SourcePrimary     = "primary"
	SourceAlternative = "alternative"
)

// ComparisonRow is one store's entry in a cross-product comparison table
type ComparisonRow struct {
	StorePriceEntry
	Per100g    *float64 `json:"per100g"`
	Name       string   `json:"name"`
	Weight     *string  `json:"weight"`
	ImageURL   string   `json:"imageUrl"`
	ProductURL string   `json:"productUrl"`
	Code       string   `json:"code"`
	Slug       string   `json:"slug"`
	Source     string   `json:"source"`
}

// PriceHistory holds the optional price history hints shown on a detail page
type PriceHistory struct {
	Usual   *float64 `json:"usual"`
	Highest *float64 `json:"highest"`
}

// ProductDetail is the full parse of a single product page
type ProductDetail struct {
	Code         string            `json:"code"`
	Slug         string            `json:"slug,omitempty"`
	Name         string            `json:"name"`
	Weight       *string           `json:"weight"`
	ImageURL     string            `json:"imageUrl"`
	ProductURL   string            `json:"productUrl,omitempty"`
	StorePrices  []StorePriceEntry `json:"storePrices"`
	Alternatives []ProductStub     `json:"alternatives"`
	PriceHistory PriceHistory      `json:"priceHistory"`
}

// ListingResult is the response for a listing search
type ListingResult struct {
	Query        string        `json:"query"`
	Products     []ProductStub `json:"products"`
	TotalResults int           `json:"totalResults"`
	Source       string        `json:"source"`
}

// CompareResult is the merged per-store table for a query
type CompareResult struct {
	Query       string          `json:"query"`
	StorePrices []ComparisonRow `json:"storePrices"`
}

// Candidate is a listing stub offered to the candidate selector
type Candidate struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Weight  *string  `json:"weight,omitempty"`
	Per100g *float64 `json:"per100g,omitempty"`
	Score   float64  `json:"score"`
}

// BasketRequest lists the items to total across stores
type BasketRequest struct {
	Items []string `json:"items" binding:"required,min=1,max=20,dive,required,max=120"`
}

// StoreTotal is one store's basket total
type StoreTotal struct {
	Store       string  `json:"store"`
	Total       float64 `json:"total"`
	ItemsPriced int     `json:"itemsPriced"`
	Complete    bool    `json:"complete"`
}

// BasketItem is the comparison for one basket line
type BasketItem struct {
	Query       string          `json:"query"`
	StorePrices []ComparisonRow `json:"storePrices"`
}

// BasketResult is the response for a basket comparison
type BasketResult struct {
	Items         []BasketItem `json:"items"`
	Totals        []StoreTotal `json:"totals"`
	CheapestStore *string      `json:"cheapestStore"`
}
