package catalog

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	cakes              []string
	deleted            []string
	decorations        []int
	deletedDecorations []int
	categories         []string
	zones              []string
	deletedZones       []string
	err                error
}

func (m *mockWriter) SaveCake(_ context.Context, c Cake) error {
	m.cakes = append(m.cakes, c.ID)
	return m.err
}

func (m *mockWriter) DeleteCake(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockWriter) SaveDecoration(_ context.Context, d Decoration) error {
	m.decorations = append(m.decorations, d.ID)
	return m.err
}

func (m *mockWriter) DeleteDecoration(_ context.Context, id int) error {
	m.deletedDecorations = append(m.deletedDecorations, id)
	return m.err
}

func (m *mockWriter) SaveCategory(_ context.Context, c DecorationCategory) error {
	m.categories = append(m.categories, c.ID)
	return m.err
}

func (m *mockWriter) DeleteZone(_ context.Context, id string) error {
	m.deletedZones = append(m.deletedZones, id)
	return m.err
}

func (m *mockWriter) SaveZone(_ context.Context, z DeliveryZone) error {
	m.zones = append(m.zones, z.ID)
	return m.err
}

func validCake() Cake {
	return Cake{
		ID:   "prod9",
		Name: "Carrot Cake",
		Prices: []PriceTier{
			{Weight: "1 kg", Amount: decimal.NewFromInt(2800), Servings: 20},
		},
		CreamOptions: []CreamOption{{Name: "Cream Cheese"}},
		Active:       true,
	}
}

func TestAdmin_WritesThrough(t *testing.T) {
	ctx := context.Background()
	tables := newTestTables()
	writer := &mockWriter{}
	admin := NewAdmin(tables, writer)

	changes := 0
	tables.OnChange(func() { changes++ })

	require.NoError(t, admin.PutCake(ctx, validCake()))
	require.NoError(t, admin.PutDecoration(ctx, Decoration{ID: 9, Name: "Macarons", Price: decimal.NewFromInt(400)}))
	require.NoError(t, admin.PutZone(ctx, DeliveryZone{ID: "zone-9", Name: "Kilimani", Fee: decimal.NewFromInt(350)}))
	require.NoError(t, admin.DeleteCake(ctx, "prod9"))

	assert.Equal(t, []string{"prod9"}, writer.cakes)
	assert.Equal(t, []string{"prod9"}, writer.deleted)
	assert.Equal(t, []int{9}, writer.decorations)
	assert.Equal(t, []string{"zone-9"}, writer.zones)
	assert.Equal(t, 4, changes)

	_, ok := tables.Cake("prod9")
	assert.False(t, ok)
	z, ok := tables.Zone("zone-9")
	require.True(t, ok)
	assert.Equal(t, "Kilimani", z.Name)
}

func TestAdmin_MemoryOnly(t *testing.T) {
	tables := newTestTables()
	admin := NewAdmin(tables, nil)

	require.NoError(t, admin.PutCake(context.Background(), validCake()))
	_, ok := tables.Cake("prod9")
	assert.True(t, ok)
}

func TestAdmin_WriterErrorLeavesTables(t *testing.T) {
	tables := newTestTables()
	writerErr := errors.New("connection reset")
	admin := NewAdmin(tables, &mockWriter{err: writerErr})

	err := admin.PutCake(context.Background(), validCake())
	require.ErrorIs(t, err, writerErr)

	_, ok := tables.Cake("prod9")
	assert.False(t, ok)
}

func TestAdmin_DeleteUnknownCake(t *testing.T) {
	writer := &mockWriter{}
	admin := NewAdmin(newTestTables(), writer)

	err := admin.DeleteCake(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, writer.deleted)
}

func TestAdmin_DecorationsCategoriesZones(t *testing.T) {
	ctx := context.Background()
	tables := newTestTables()
	writer := &mockWriter{}
	admin := NewAdmin(tables, writer)

	changes := 0
	tables.OnChange(func() { changes++ })

	require.NoError(t, admin.PutCategory(ctx, DecorationCategory{ID: "drips", Name: "Drips", DecorationIDs: []int{2}}))
	require.NoError(t, admin.DeleteDecoration(ctx, 2))
	require.NoError(t, admin.DeleteZone(ctx, "z1"))

	assert.Equal(t, []string{"drips"}, writer.categories)
	assert.Equal(t, []int{2}, writer.deletedDecorations)
	assert.Equal(t, []string{"z1"}, writer.deletedZones)
	assert.Equal(t, 3, changes)

	_, ok := tables.Decoration(2)
	assert.False(t, ok)
	_, ok = tables.Zone("z1")
	assert.False(t, ok)
	for _, c := range tables.Categories() {
		assert.NotContains(t, c.DecorationIDs, 2, c.ID)
	}

	assert.ErrorIs(t, admin.DeleteDecoration(ctx, 2), ErrNotFound)
	assert.ErrorIs(t, admin.DeleteZone(ctx, "z1"), ErrNotFound)
	assert.Equal(t, []int{2}, writer.deletedDecorations, "unknown ids never reach the writer")

	assert.ErrorIs(t, admin.PutCategory(ctx, DecorationCategory{Name: "x"}), ErrInvalid)
	assert.ErrorIs(t, admin.PutCategory(ctx, DecorationCategory{ID: "x", Name: " "}), ErrInvalid)
	assert.ErrorIs(t, admin.PutCategory(ctx, DecorationCategory{ID: "x", Name: "x", DecorationIDs: []int{2}}), ErrInvalid)
}

func TestAdmin_Validation(t *testing.T) {
	ctx := context.Background()
	admin := NewAdmin(newTestTables(), nil)

	cakes := map[string]func(*Cake){
		"missing id":          func(c *Cake) { c.ID = "" },
		"blank name":          func(c *Cake) { c.Name = "  " },
		"no prices":           func(c *Cake) { c.Prices = nil },
		"empty weight":        func(c *Cake) { c.Prices[0].Weight = "" },
		"negative amount":     func(c *Cake) { c.Prices[0].Amount = decimal.NewFromInt(-1) },
		"default cream range": func(c *Cake) { c.DefaultCream = 3 },
		"fractional surcharge": func(c *Cake) {
			c.CreamOptions = []CreamOption{{Name: "Gold", Surcharge: decimal.RequireFromString("150.5")}}
		},
		"negative surcharge": func(c *Cake) {
			c.CreamOptions = []CreamOption{{Name: "Gold", Surcharge: decimal.NewFromInt(-50)}}
		},
		"suffix in cream name": func(c *Cake) { c.CreamOptions = []CreamOption{{Name: "Gold (+5)"}} },
		"blank cream name":     func(c *Cake) { c.CreamOptions = []CreamOption{{Name: " "}} },
		"duplicate weight": func(c *Cake) {
			c.Prices = append(c.Prices, PriceTier{Weight: "1 kg", Amount: decimal.NewFromInt(1)})
		},
	}
	for name, mod := range cakes {
		t.Run("cake "+name, func(t *testing.T) {
			c := validCake()
			mod(&c)
			assert.ErrorIs(t, admin.PutCake(ctx, c), ErrInvalid)
		})
	}

	assert.ErrorIs(t, admin.PutDecoration(ctx, Decoration{ID: 0, Name: "x"}), ErrInvalid)
	assert.ErrorIs(t, admin.PutDecoration(ctx, Decoration{ID: 1, Name: ""}), ErrInvalid)
	assert.ErrorIs(t, admin.PutDecoration(ctx, Decoration{ID: 1, Name: "x", Price: decimal.NewFromInt(-5)}), ErrInvalid)

	assert.ErrorIs(t, admin.PutZone(ctx, DeliveryZone{Name: "x"}), ErrInvalid)
	assert.ErrorIs(t, admin.PutZone(ctx, DeliveryZone{ID: "z", Name: " "}), ErrInvalid)
	assert.ErrorIs(t, admin.PutZone(ctx, DeliveryZone{ID: "z", Name: "x", Fee: decimal.NewFromInt(-1)}), ErrInvalid)
}

func TestAdmin_CreamOptionsSurviveStorageForm(t *testing.T) {
	admin := NewAdmin(newTestTables(), nil)

	c := validCake()
	c.CreamOptions = []CreamOption{
		{Name: "Plain", Surcharge: decimal.Zero},
		{Name: "Gold", Surcharge: decimal.RequireFromString("150.00")},
		{Name: "Ruby", Surcharge: decimal.NewFromInt(300)},
	}
	require.NoError(t, admin.PutCake(context.Background(), c))

	for _, o := range c.CreamOptions {
		got := ParseCreamOption(o.String())
		assert.Equal(t, o.Name, got.Name)
		assert.True(t, o.Surcharge.Equal(got.Surcharge), "%s: %s != %s", o.Name, o.Surcharge, got.Surcharge)
	}
}
