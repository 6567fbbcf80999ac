package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrc-bakery/storefront/db"
)

func TestParseCreamOption(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantPrice int64
	}{
		{in: "Chocolate Cream (+200)", wantName: "Chocolate Cream", wantPrice: 200},
		{in: "Vanilla Cream", wantName: "Vanilla Cream", wantPrice: 0},
		{in: "Cream Cheese (+350)", wantName: "Cream Cheese", wantPrice: 350},
		{in: "Odd (200)", wantName: "Odd (200)", wantPrice: 0},
		{in: "Negative (-50)", wantName: "Negative (-50)", wantPrice: 0},
		{in: "", wantName: "", wantPrice: 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseCreamOption(tt.in)
			assert.Equal(t, tt.wantName, got.Name)
			assert.True(t, decimal.NewFromInt(tt.wantPrice).Equal(got.Surcharge),
				"expected surcharge %d, got %s", tt.wantPrice, got.Surcharge)
		})
	}
}

func TestCreamOption_String(t *testing.T) {
	assert.Equal(t, "Chocolate Cream (+200)", ParseCreamOption("Chocolate Cream (+200)").String())
	assert.Equal(t, "Vanilla Cream", ParseCreamOption("Vanilla Cream").String())
}

func TestCreamOption_UnmarshalJSON(t *testing.T) {
	var opts []CreamOption
	err := json.Unmarshal([]byte(`["Vanilla Cream", {"name": "Mocha", "surcharge": 150}]`), &opts)
	require.NoError(t, err)
	require.Len(t, opts, 2)

	assert.Equal(t, "Vanilla Cream", opts[0].Name)
	assert.True(t, opts[0].Surcharge.IsZero())
	assert.Equal(t, "Mocha", opts[1].Name)
	assert.True(t, decimal.NewFromInt(150).Equal(opts[1].Surcharge))
}

func TestLookupContainerType(t *testing.T) {
	for _, name := range []string{"Round Tin", "Square Tin", "Heart Tin", "Standard Box", "Premium Box"} {
		c, ok := LookupContainerType(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name)
		assert.NotEmpty(t, c.Value)
	}

	_, ok := LookupContainerType("round tin")
	assert.False(t, ok)
	_, ok = LookupContainerType("Gift Bag")
	assert.False(t, ok)
	assert.Len(t, ContainerTypes(), 5)
}

func TestPriceTier_Label(t *testing.T) {
	tier := PriceTier{Weight: "1 kg", Amount: decimal.NewFromInt(2600), Servings: 20}
	assert.Equal(t, "1 kg - 20 servings", tier.Label())
}

func TestDecodeSnapshot_Seed(t *testing.T) {
	s, err := DecodeSnapshot(db.CatalogSeed)
	require.NoError(t, err)

	require.NotEmpty(t, s.Cakes)
	prod1 := s.Cakes[0]
	assert.Equal(t, "prod1", prod1.ID)
	require.NotEmpty(t, prod1.CreamOptions)
	assert.Equal(t, "Vanilla Cream", prod1.CreamOptions[0].Name)
	assert.True(t, decimal.NewFromInt(200).Equal(prod1.CreamOptions[1].Surcharge))

	require.NotEmpty(t, s.Zones)
	assert.Equal(t, "CBD & Surrounding Areas", s.Zones[0].Name)
	assert.True(t, s.Zones[0].Fee.IsZero())
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"cakes": 12}`))
	require.Error(t, err)
}
