package pricetext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractItemPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"single amount", "Tesco Mozzarella 125g £0.85", 0.85},
		{"skips per unit amount", "Tesco £2.50 per 100g £10.00", 10.00},
		{"skips slash unit amount", "£0.68/100g £0.85", 0.85},
		{"skips each amount", "£0.30 each £1.80", 1.80},
		{"first unqualified wins", "£2.50 Clubcard Price £2.00", 2.50},
		{"whole pounds", "Asda £3", 3},
		{"only qualified amounts", "£1.20 per kg", 0},
		{"no amount", "Currently unavailable", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExtractItemPrice(tt.text), 1e-9)
		})
	}
}

func TestExtractPricePerUnit(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantAmount float64
		wantUnit   string
		wantNil    bool
	}{
		{name: "per 100g", text: "Tesco £2.50 per 100g £10.00", wantAmount: 2.50, wantUnit: "per 100g"},
		{name: "per kg", text: "£6.80 per kg", wantAmount: 6.80, wantUnit: "per kg"},
		{name: "spaced magnitude", text: "£0.45 per 100 ml", wantAmount: 0.45, wantUnit: "per 100ml"},
		{name: "slash form", text: "£0.68/100g", wantAmount: 0.68, wantUnit: "per 100g"},
		{name: "each", text: "£0.30 each", wantAmount: 0.30, wantUnit: "per item"},
		{name: "no unit price", text: "£1.80", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPricePerUnit(tt.text)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.wantAmount, got.Amount, 1e-9)
			assert.Equal(t, tt.wantUnit, got.Unit)
		})
	}
}

func TestExtractWeight(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Galbani Mozzarella 125g", "125g"},
		{"Semi Skimmed Milk 2.272L", "2.272l"},
		{"Cola 6 x 330ml", "330ml"},
		{"Milk 4 pt", "4pt"},
		{"Flour 1.5kg bag", "1.5kg"},
		{"£0.68 per 100g then 500g", "500g"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ExtractWeight(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	t.Run("no weight", func(t *testing.T) {
		assert.Nil(t, ExtractWeight("Bananas loose"))
		assert.Nil(t, ExtractWeight("£0.68 per 100g"))
	})
}

func TestComputePer100g(t *testing.T) {
	tests := []struct {
		name    string
		price   float64
		weight  string
		want    float64
		wantNil bool
	}{
		{name: "grams", price: 1.00, weight: "400g", want: 0.25},
		{name: "kilograms", price: 2.00, weight: "1kg", want: 0.20},
		{name: "litres", price: 1.50, weight: "2l", want: 0.075},
		{name: "millilitres", price: 0.66, weight: "330ml", want: 0.20},
		{name: "pints", price: 1.45, weight: "4pt", want: 1.45 / (4 * 568) * 100},
		{name: "lower bound inclusive", price: 1.00, weight: "5g", want: 20},
		{name: "upper bound inclusive", price: 50.00, weight: "50kg", want: 0.10},
		{name: "too small", price: 1.00, weight: "4g", wantNil: true},
		{name: "too large", price: 1.00, weight: "51kg", wantNil: true},
		{name: "unparseable", price: 1.00, weight: "a bag", wantNil: true},
		{name: "empty weight", price: 1.00, weight: "", wantNil: true},
		{name: "missing price", price: 0, weight: "400g", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePer100g(tt.price, tt.weight)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestComputePer100gWindowProperty(t *testing.T) {
	weights := []string{"1g", "4.9g", "5g", "250g", "0.004kg", "0.005kg", "50kg", "50.001kg", "49l", "88pt", "89pt", "3ml"}
	for _, w := range weights {
		amount, ok := NormalizeWeight(w)
		require.True(t, ok, w)

		got := ComputePer100g(3.20, w)
		if amount < MinNormalizedAmount || amount > MaxNormalizedAmount {
			assert.Nil(t, got, w)
			continue
		}
		require.NotNil(t, got, w)
		assert.InDelta(t, 3.20/amount*100, *got, 1e-9, w)
	}
}

func TestStripPricesAndWeights(t *testing.T) {
	got := StripPricesAndWeights("Galbani Mozzarella 125g £0.85 £0.68 per 100g")
	assert.Equal(t, "Galbani Mozzarella", got)
}

func TestParseAmount(t *testing.T) {
	assert.InDelta(t, 2.5, ParseAmount("2.50"), 1e-12)
	assert.Equal(t, 0.0, ParseAmount("abc"))
}
