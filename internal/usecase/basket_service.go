package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxBasketItems is the largest basket accepted
const maxBasketItems = 20

// Comparer builds the cross-store table for one query
type Comparer interface {
	Compare(ctx context.Context, query string) (*domain.CompareResult, error)
}

// BasketService totals a shopping list across stores
type BasketService struct {
	comparer    Comparer
	concurrency int
}

// NewBasketService creates a basket service. Items are compared at most concurrency at a time.
func NewBasketService(comparer Comparer, concurrency int) *BasketService {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &BasketService{comparer: comparer, concurrency: concurrency}
}

// Compare runs a comparison per item and totals each store's best prices.
// An item that cannot be compared contributes an empty table, not an error.
func (s *BasketService) Compare(ctx context.Context, items []string) (*domain.BasketResult, error) {
	if len(items) == 0 || len(items) > maxBasketItems {
		return nil, fmt.Errorf("%w: basket must have 1 to %d items", domain.ErrInvalidRequest, maxBasketItems)
	}
	queries := make([]string, len(items))
	for i, item := range items {
		q, err := validateQuery(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		queries[i] = q
	}

	basket := make([]domain.BasketItem, len(queries))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			basket[i] = domain.BasketItem{Query: q, StorePrices: []domain.ComparisonRow{}}
			result, err := s.comparer.Compare(ctx, q)
			if err != nil {
				log.Printf("[BASKET] %s item %q skipped: %v", domain.RequestID(ctx), q, err)
				return nil
			}
			basket[i].StorePrices = result.StorePrices
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	totals := basketTotals(basket)
	result := &domain.BasketResult{Items: basket, Totals: totals}
	if len(totals) > 0 && totals[0].Complete {
		cheapest := totals[0].Store
		result.CheapestStore = &cheapest
	}
	return result, nil
}

// basketTotals sums each store's best price over the items that have data.
// A store is complete when it priced every such item. Complete stores come
// first, then by total and store name.
func basketTotals(items []domain.BasketItem) []domain.StoreTotal {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	withData := 0

	for _, item := range items {
		if len(item.StorePrices) == 0 {
			continue
		}
		withData++
		for _, row := range item.StorePrices {
			sums[row.Store] = sums[row.Store].Add(decimal.NewFromFloat(row.BestPrice))
			counts[row.Store]++
		}
	}

	totals := make([]domain.StoreTotal, 0, len(sums))
	for store, sum := range sums {
		totals = append(totals, domain.StoreTotal{
			Store:       store,
			Total:       sum.Round(2).InexactFloat64(),
			ItemsPriced: counts[store],
			Complete:    counts[store] == withData,
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		a, b := totals[i], totals[j]
		if a.Complete != b.Complete {
			return a.Complete
		}
		if a.Total != b.Total {
			return a.Total < b.Total
		}
		return a.Store < b.Store
	})
	return totals
}
