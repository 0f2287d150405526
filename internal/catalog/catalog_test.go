package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		category string
		wantLen  int
		first    string
	}{
		{name: "apparel", category: "Apparel", wantLen: 3, first: "T-Shirt"},
		{name: "books", category: "Books", wantLen: 2, first: "Atomic Habits"},
		{name: "unknown category", category: "Garden", wantLen: 0},
		{name: "case sensitive", category: "apparel", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommendations(tt.category)
			require.NotNil(t, got)
			require.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.first, got[0].Name)
			}
		})
	}
}

func TestRecommendations_ReturnsCopy(t *testing.T) {
	got := Recommendations("Footwear")
	got[0].Price = 1

	again := Recommendations("Footwear")
	assert.Equal(t, float64(1200), again[0].Price)
}

func TestDefaultProducts(t *testing.T) {
	products := DefaultProducts()
	require.Len(t, products, 7)
	assert.Equal(t, "Toothpaste", products[0].Name)
	assert.Equal(t, "Pen (Pack of 5)", products[5].Name)
	assert.Equal(t, float64(50), products[5].Price)
}

func TestRecommendations_AllCategories(t *testing.T) {
	for _, category := range []string{"Apparel", "Electronics", "Books", "Accessories", "Footwear"} {
		assert.NotEmpty(t, Recommendations(category), category)
	}
	assert.Len(t, byCategory, 5)
}
