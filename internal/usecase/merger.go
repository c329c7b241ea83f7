package usecase

import (
	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/georglynx/grocerycompare/internal/pricetext"
)

// MergeStorePrices folds the detail pages of several matched products into a
// single table with at most one row per store.
//
// Primary rows come from each detail's own store prices; the lowest best price
// wins per store and ties keep the first seen. Alternatives only fill stores
// that no primary row covers, so a primary row is never replaced by an
// alternative however cheap. Rows are returned in first-seen store order.
func MergeStorePrices(details []*domain.ProductDetail) []domain.ComparisonRow {
	rows := make([]domain.ComparisonRow, 0)
	index := make(map[string]int)

	for _, d := range details {
		if d == nil {
			continue
		}
		for _, entry := range d.StorePrices {
			row := primaryRow(d, entry)
			if i, ok := index[entry.Store]; ok {
				if row.BestPrice < rows[i].BestPrice {
					rows[i] = row
				}
				continue
			}
			index[entry.Store] = len(rows)
			rows = append(rows, row)
		}
	}

	primaryStores := len(rows)
	for _, d := range details {
		if d == nil {
			continue
		}
		for _, alt := range d.Alternatives {
			if alt.Store == "" || alt.Price <= 0 {
				continue
			}
			i, ok := index[alt.Store]
			if ok && i < primaryStores {
				continue
			}
			row := alternativeRow(alt)
			if ok {
				if row.BestPrice < rows[i].BestPrice {
					rows[i] = row
				}
				continue
			}
			index[alt.Store] = len(rows)
			rows = append(rows, row)
		}
	}

	return rows
}

func primaryRow(d *domain.ProductDetail, entry domain.StorePriceEntry) domain.ComparisonRow {
	row := domain.ComparisonRow{
		StorePriceEntry: entry,
		Name:            d.Name,
		Weight:          d.Weight,
		ImageURL:        d.ImageURL,
		ProductURL:      d.ProductURL,
		Code:            d.Code,
		Slug:            d.Slug,
		Source:          domain.SourcePrimary,
	}
	if d.Weight != nil {
		row.Per100g = pricetext.ComputePer100g(entry.BestPrice, *d.Weight)
	}
	return row
}

func alternativeRow(alt domain.ProductStub) domain.ComparisonRow {
	return domain.ComparisonRow{
		StorePriceEntry: domain.StorePriceEntry{
			Store:        alt.Store,
			Price:        alt.Price,
			BestPrice:    alt.Price,
			PricePerUnit: alt.PricePerUnit,
			Unit:         alt.Unit,
		},
		Name:       alt.Name,
		Weight:     alt.Weight,
		ImageURL:   alt.ImageURL,
		ProductURL: alt.ProductURL,
		Code:       alt.Code,
		Slug:       alt.Slug,
		Source:     domain.SourceAlternative,
	}
}
